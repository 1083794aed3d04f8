// internal/app/features/admin/routes.go
package admin

import (
	"github.com/go-chi/chi/v5"

	sysauth "github.com/civicworks/civicconnect/internal/app/system/auth"
	"github.com/civicworks/civicconnect/internal/domain/models"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(sysauth.RequireRole(models.RoleAdmin))

	r.Get("/dashboard", h.Dashboard)
	r.Get("/reports", h.ListReports)
	r.Get("/users", h.ListUsers)
	r.Put("/users/{id}/active", h.SetUserActive)
	r.Get("/messages", h.ListMessages)
	r.Get("/analytics", h.GetAnalytics)
	r.Post("/analytics/generate", h.GenerateAnalytics)

	return r
}
