// internal/app/features/contact/routes.go
package contact

import (
	"github.com/go-chi/chi/v5"

	sysauth "github.com/civicworks/civicconnect/internal/app/system/auth"
	"github.com/civicworks/civicconnect/internal/domain/models"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Public form.
	r.Post("/", h.Submit)

	r.Group(func(r chi.Router) {
		r.Use(sysauth.RequireRole(models.RoleAdmin))
		r.Get("/stats", h.Stats)
		r.Get("/admin", h.List)
		r.Get("/{id}", h.Get)
		r.Put("/{id}/status", h.UpdateStatus)
		r.Post("/{id}/respond", h.Respond)
		r.Delete("/{id}", h.Delete)
	})

	return r
}
