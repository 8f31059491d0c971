// internal/app/features/memberships/routes.go
package memberships

import (
	"github.com/go-chi/chi/v5"
	"github.com/lumenlms/admission/internal/app/system/auth"
	"github.com/lumenlms/admission/internal/domain/models"
)

// Routes mounts all membership routes under the path where the caller
// mounts it. Typically: r.Mount("/memberships", memberships.Routes(handler))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Member-facing (any signed-in role)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Post("/join", h.HandleJoin)
		pr.Get("/mine", h.ServeMine)
		pr.Get("/users/{userID}", h.ServeUserMemberships)
	})

	// Review and roster management (fine-grained institution scoping is
	// enforced inside the workflow; the role gate here is the cheap outer
	// check)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Use(auth.RequireRole(models.RoleSuperAdmin, models.RoleInstitutionAdmin))

		pr.Get("/queue/{institutionID}", h.ServeQueue)
		pr.Post("/review", h.HandleReview)
		pr.Post("/assign", h.HandleAssign)
		pr.Post("/backfill/{institutionID}", h.HandleBackfill)
	})

	return r
}
