// internal/app/features/institutions/routes.go
package institutions

import (
	"github.com/go-chi/chi/v5"
	"github.com/lumenlms/admission/internal/app/system/auth"
	"github.com/lumenlms/admission/internal/domain/models"
)

// Routes mounts all institution routes under the base path
// (typically "/institutions" from bootstrap).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Browse endpoints (any signed-in role)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServeView)
	})

	// Provisioning (super admins only)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Use(auth.RequireRole(models.RoleSuperAdmin))

		pr.Post("/", h.HandleCreate)
		pr.Post("/{id}/deactivate", h.HandleDeactivate)
		pr.Post("/{id}/invite_code", h.HandleRotateInviteCode)
	})

	return r
}
