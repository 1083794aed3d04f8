// internal/app/features/messages/routes.go
package messages

import (
	"github.com/go-chi/chi/v5"

	sysauth "github.com/civicworks/civicconnect/internal/app/system/auth"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(sysauth.RequireSignedIn)

	r.Get("/", h.List)
	r.Post("/", h.Send)
	r.Post("/admin", h.SendToAdmin)
	r.Get("/unread-count", h.UnreadCount)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/reply", h.Reply)
	r.Put("/{id}/read", h.MarkRead)
	r.Put("/{id}/archive", h.Archive)
	r.Delete("/{id}", h.Delete)

	return r
}
