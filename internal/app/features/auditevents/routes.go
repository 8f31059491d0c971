// internal/app/features/auditevents/routes.go
package auditevents

import (
	"github.com/go-chi/chi/v5"
	"github.com/lumenlms/admission/internal/app/system/auth"
	"github.com/lumenlms/admission/internal/domain/models"
)

// Routes mounts the audit trail routes (typically under "/audit").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Use(auth.RequireRole(models.RoleSuperAdmin, models.RoleInstitutionAdmin))

		pr.Get("/", h.ServeList)
	})

	return r
}
