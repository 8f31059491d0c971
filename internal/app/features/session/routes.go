// internal/app/features/session/routes.go
package session

import (
	"github.com/go-chi/chi/v5"
	"github.com/lumenlms/admission/internal/app/system/auth"
)

// Routes mounts the session routes. Typically: r.Mount("/session", session.Routes(h))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/me", h.ServeMe)
		pr.Get("/logins", h.ServeLogins)
		pr.Post("/bootstrap", h.HandleBootstrap)
		pr.Post("/logout", h.HandleLogout)
	})

	return r
}
