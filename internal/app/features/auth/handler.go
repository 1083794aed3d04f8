// Package auth is the HTTP surface for registration, login, and account
// management. Registration is gated by an emailed one-time code.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	otpstore "github.com/civicworks/civicconnect/internal/app/store/otp"
	userstore "github.com/civicworks/civicconnect/internal/app/store/users"
	"github.com/civicworks/civicconnect/internal/app/system/apierr"
	"github.com/civicworks/civicconnect/internal/app/system/apiutil"
	sysauth "github.com/civicworks/civicconnect/internal/app/system/auth"
	"github.com/civicworks/civicconnect/internal/app/system/authz"
	"github.com/civicworks/civicconnect/internal/app/system/inputval"
	"github.com/civicworks/civicconnect/internal/app/system/mailer"
	"github.com/civicworks/civicconnect/internal/app/system/normalize"
	"github.com/civicworks/civicconnect/internal/app/system/ratelimit"
	"github.com/civicworks/civicconnect/internal/app/system/sanitize"
	"github.com/civicworks/civicconnect/internal/domain/models"
)

// SiteName appears in outgoing mail.
const SiteName = "CivicConnect"

// Handler holds the auth feature's dependencies.
type Handler struct {
	Users    *userstore.Store
	Codes    *otpstore.Store
	Tokens   *sysauth.Tokens
	Notifier mailer.Notifier
	Limiter  *ratelimit.AuthLimiter
	BaseURL  string
	Log      *zap.Logger
}

func NewHandler(users *userstore.Store, codes *otpstore.Store, tokens *sysauth.Tokens, notifier mailer.Notifier, limiter *ratelimit.AuthLimiter, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    users,
		Codes:    codes,
		Tokens:   tokens,
		Notifier: notifier,
		Limiter:  limiter,
		BaseURL:  baseURL,
		Log:      logger,
	}
}

// userPayload is the account shape returned to clients.
func userPayload(u *models.User) map[string]any {
	return map[string]any{
		"id":                u.ID.Hex(),
		"name":              u.Name,
		"email":             u.Email,
		"role":              u.Role,
		"is_active":         u.IsActive,
		"is_email_verified": u.IsEmailVerified,
		"reports_count":     u.ReportsCount,
		"last_login":        u.LastLogin,
		"created_at":        u.CreatedAt,
	}
}

// SendOTP handles POST /api/auth/send-otp.
func (h *Handler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := apiutil.DecodeBody(r, &req); err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	if err := inputval.Email(req.Email); err != nil {
		apiutil.Error(w, h.Log, apierr.Validation("a valid email is required"))
		return
	}

	if ok, retry := h.Limiter.Check(r, req.Email); !ok {
		apiutil.Error(w, h.Log, apierr.RateLimited("too many requests, try again later", retry))
		return
	}

	exists, err := h.Users.EmailExists(r.Context(), req.Email)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	if exists {
		apiutil.Error(w, h.Log, apierr.Conflict("an account with this email already exists"))
		return
	}

	code, err := h.Codes.Issue(r.Context(), req.Email, models.OTPPurposeRegistration)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	mail := mailer.BuildOTPEmail(mailer.OTPEmailData{
		SiteName:  SiteName,
		Code:      code,
		ExpiresIn: "10 minutes",
	})
	mail.To = normalize.Email(req.Email)
	if err := h.Notifier.Send(mail); err != nil {
		// The code record stays; the client may retry the send.
		apiutil.Error(w, h.Log, apierr.Dependency("could not send verification email", err))
		return
	}

	apiutil.OK(w, "verification code sent", nil)
}

// VerifyOTP handles POST /api/auth/verify-otp: it finishes registration.
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Code     string `json:"code"`
	}
	if err := apiutil.DecodeBody(r, &req); err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	req.Name = sanitize.Text(normalize.Name(req.Name))
	if err := inputval.Required("name", req.Name); err != nil {
		apiutil.Error(w, h.Log, apierr.Validation("name is required"))
		return
	}
	if err := inputval.Email(req.Email); err != nil {
		apiutil.Error(w, h.Log, apierr.Validation("a valid email is required"))
		return
	}
	if err := inputval.Password(req.Password); err != nil {
		apiutil.Error(w, h.Log, apierr.Validation("password must be at least 8 characters"))
		return
	}

	if err := h.Codes.Verify(r.Context(), req.Email, models.OTPPurposeRegistration, req.Code); err != nil {
		apiutil.Error(w, h.Log, verifyError(err))
		return
	}

	u, err := h.Users.Create(r.Context(), req.Name, req.Email, req.Password, models.RoleCitizen)
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		apiutil.Error(w, h.Log, apierr.Conflict("an account with this email already exists"))
		return
	}
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	token, err := h.Tokens.IssueSession(u)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	go h.sendWelcome(u)

	apiutil.Created(w, "registration complete", map[string]any{
		"token": token,
		"user":  userPayload(u),
	})
}

func (h *Handler) sendWelcome(u *models.User) {
	mail := mailer.BuildWelcomeEmail(mailer.WelcomeEmailData{SiteName: SiteName, Name: u.Name})
	mail.To = u.Email
	if err := h.Notifier.Send(mail); err != nil {
		h.Log.Warn("welcome mail failed", zap.String("email", u.Email), zap.Error(err))
	}
}

// verifyError maps OTP store sentinels onto the API error taxonomy.
func verifyError(err error) error {
	switch {
	case errors.Is(err, otpstore.ErrNotFound):
		return apierr.Credential("no verification code found for this email")
	case errors.Is(err, otpstore.ErrAlreadyUsed):
		return apierr.Credential("verification code already used")
	case errors.Is(err, otpstore.ErrExpired):
		return apierr.Credential("verification code expired")
	case errors.Is(err, otpstore.ErrTooManyAttempts):
		return apierr.Credential("too many attempts, request a new code")
	case errors.Is(err, otpstore.ErrInvalidCode):
		return apierr.Credential("invalid verification code")
	default:
		return err
	}
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := apiutil.DecodeBody(r, &req); err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	if ok, retry := h.Limiter.Check(r, req.Email); !ok {
		apiutil.Error(w, h.Log, apierr.RateLimited("too many login attempts, try again later", retry))
		return
	}

	// One message for unknown email and wrong password.
	invalid := apierr.Unauthorized("invalid email or password")

	u, err := h.Users.GetByEmail(r.Context(), req.Email)
	if errors.Is(err, userstore.ErrNotFound) {
		apiutil.Error(w, h.Log, invalid)
		return
	}
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	if !userstore.CheckPassword(u, req.Password) {
		apiutil.Error(w, h.Log, invalid)
		return
	}
	if !u.IsActive {
		apiutil.Error(w, h.Log, apierr.Forbidden("account is deactivated"))
		return
	}

	if err := h.Users.UpdateLastLogin(r.Context(), u.ID); err != nil {
		h.Log.Warn("update last login", zap.Error(err))
	}
	h.Limiter.ResetEmail(req.Email)

	token, err := h.Tokens.IssueSession(u)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.OK(w, "login successful", map[string]any{
		"token": token,
		"user":  userPayload(u),
	})
}

// Me handles GET /api/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, h.Log, apierr.Unauthorized("authentication required"))
		return
	}
	u, err := h.Users.GetByID(r.Context(), userID)
	if errors.Is(err, userstore.ErrNotFound) {
		apiutil.Error(w, h.Log, apierr.NotFound("account not found"))
		return
	}
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.OK(w, "", map[string]any{"user": userPayload(u)})
}

// UpdateProfile handles PUT /api/auth/profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, h.Log, apierr.Unauthorized("authentication required"))
		return
	}

	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := apiutil.DecodeBody(r, &req); err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	if req.Name == "" && req.Email == "" {
		apiutil.Error(w, h.Log, apierr.Validation("nothing to update"))
		return
	}
	if req.Name != "" {
		req.Name = sanitize.Text(normalize.Name(req.Name))
		if req.Name == "" {
			apiutil.Error(w, h.Log, apierr.Validation("name is required"))
			return
		}
	}
	if req.Email != "" {
		if err := inputval.Email(req.Email); err != nil {
			apiutil.Error(w, h.Log, apierr.Validation("a valid email is required"))
			return
		}
	}

	u, err := h.Users.UpdateProfile(r.Context(), userID, req.Name, req.Email)
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		apiutil.Error(w, h.Log, apierr.Conflict("an account with this email already exists"))
		return
	}
	if errors.Is(err, userstore.ErrNotFound) {
		apiutil.Error(w, h.Log, apierr.NotFound("account not found"))
		return
	}
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.OK(w, "profile updated", map[string]any{"user": userPayload(u)})
}

// ChangePassword handles PUT /api/auth/change-password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, h.Log, apierr.Unauthorized("authentication required"))
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := apiutil.DecodeBody(r, &req); err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	if err := inputval.Password(req.NewPassword); err != nil {
		apiutil.Error(w, h.Log, apierr.Validation("new password must be at least 8 characters"))
		return
	}

	u, err := h.Users.GetByID(r.Context(), userID)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	if !userstore.CheckPassword(u, req.CurrentPassword) {
		apiutil.Error(w, h.Log, apierr.Unauthorized("current password is incorrect"))
		return
	}

	if err := h.Users.UpdatePassword(r.Context(), userID, req.NewPassword); err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.OK(w, "password changed", nil)
}

// ForgotPassword handles POST /api/auth/forgot-password.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := apiutil.DecodeBody(r, &req); err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	if ok, retry := h.Limiter.Check(r, req.Email); !ok {
		apiutil.Error(w, h.Log, apierr.RateLimited("too many requests, try again later", retry))
		return
	}

	// Do not reveal whether the email exists.
	neutral := "if the email is registered, a reset link has been sent"

	u, err := h.Users.GetByEmail(r.Context(), req.Email)
	if errors.Is(err, userstore.ErrNotFound) {
		apiutil.OK(w, neutral, nil)
		return
	}
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	token, err := h.Tokens.IssueReset(u)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	mail := mailer.BuildResetEmail(mailer.ResetEmailData{
		SiteName:  SiteName,
		Name:      u.Name,
		ResetLink: fmt.Sprintf("%s/reset-password?token=%s", h.BaseURL, token),
		ExpiresIn: "1 hour",
	})
	mail.To = u.Email
	if err := h.Notifier.Send(mail); err != nil {
		apiutil.Error(w, h.Log, apierr.Dependency("could not send reset email", err))
		return
	}
	apiutil.OK(w, neutral, nil)
}

// ResetPassword handles PUT /api/auth/reset-password.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := apiutil.DecodeBody(r, &req); err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	if err := inputval.Password(req.NewPassword); err != nil {
		apiutil.Error(w, h.Log, apierr.Validation("new password must be at least 8 characters"))
		return
	}

	claims, err := h.Tokens.VerifyReset(req.Token)
	if err != nil {
		apiutil.Error(w, h.Log, apierr.Credential("invalid or expired reset token"))
		return
	}

	u, err := h.Users.GetByEmail(r.Context(), claims.Email)
	if err != nil {
		apiutil.Error(w, h.Log, apierr.Credential("invalid or expired reset token"))
		return
	}

	// A token issued before the last password change is spent. JWT
	// timestamps have second resolution, so the comparison truncates.
	if claims.IssuedAt != nil && claims.IssuedAt.Time.Before(u.PasswordChangedAt.Truncate(time.Second)) {
		apiutil.Error(w, h.Log, apierr.Credential("reset token has already been used"))
		return
	}

	if err := h.Users.UpdatePassword(r.Context(), u.ID, req.NewPassword); err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.OK(w, "password reset", nil)
}

// Logout handles POST /api/auth/logout. Tokens are stateless; the
// client discards its copy.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	apiutil.OK(w, "logged out", nil)
}

// DeactivateAccount handles DELETE /api/auth/account: a soft deactivate,
// not a data delete.
func (h *Handler) DeactivateAccount(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, h.Log, apierr.Unauthorized("authentication required"))
		return
	}
	if err := h.Users.SetActive(r.Context(), userID, false); err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.OK(w, "account deactivated", nil)
}
