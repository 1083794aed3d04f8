// internal/app/features/reports/routes.go
package reports

import (
	"github.com/go-chi/chi/v5"

	sysauth "github.com/civicworks/civicconnect/internal/app/system/auth"
	"github.com/civicworks/civicconnect/internal/domain/models"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Public browsing; viewer identity (if any) widens visibility.
	r.Get("/", h.List)

	r.Group(func(r chi.Router) {
		r.Use(sysauth.RequireSignedIn)
		r.Post("/", h.Create)
		r.Get("/my-reports", h.MyReports)
		r.Post("/{id}/vote", h.Vote)
		r.Post("/{id}/comments", h.Comment)
		r.Post("/{id}/images", h.UploadImages)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})

	r.Group(func(r chi.Router) {
		r.Use(sysauth.RequireRole(models.RoleAdmin))
		r.Put("/{id}/status", h.UpdateStatus)
		r.Put("/{id}/assign", h.Assign)
	})

	// Keep after /my-reports so the literal route wins.
	r.Get("/{id}", h.Get)

	return r
}
