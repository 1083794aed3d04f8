// internal/app/features/auth/routes.go
package auth

import (
	"github.com/go-chi/chi/v5"

	sysauth "github.com/civicworks/civicconnect/internal/app/system/auth"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/send-otp", h.SendOTP)
	r.Post("/verify-otp", h.VerifyOTP)
	r.Post("/login", h.Login)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Put("/reset-password", h.ResetPassword)
	r.Post("/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(sysauth.RequireSignedIn)
		r.Get("/me", h.Me)
		r.Put("/profile", h.UpdateProfile)
		r.Put("/change-password", h.ChangePassword)
		r.Delete("/account", h.DeactivateAccount)
	})

	return r
}
