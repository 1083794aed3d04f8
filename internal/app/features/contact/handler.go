// Package contact is the public contact form and its admin triage
// surface. Submitters need no account.
package contact

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	contactstore "github.com/civicworks/civicconnect/internal/app/store/contacts"
	"github.com/civicworks/civicconnect/internal/app/system/apierr"
	"github.com/civicworks/civicconnect/internal/app/system/apiutil"
	"github.com/civicworks/civicconnect/internal/app/system/authz"
	"github.com/civicworks/civicconnect/internal/app/system/inputval"
	"github.com/civicworks/civicconnect/internal/app/system/mailer"
	"github.com/civicworks/civicconnect/internal/app/system/normalize"
	"github.com/civicworks/civicconnect/internal/app/system/paging"
	"github.com/civicworks/civicconnect/internal/app/system/ratelimit"
	"github.com/civicworks/civicconnect/internal/app/system/sanitize"
	"github.com/civicworks/civicconnect/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

// SiteName appears in outgoing mail.
const SiteName = "CivicConnect"

// Handler holds the contact feature's dependencies.
type Handler struct {
	Contacts *contactstore.Store
	Notifier mailer.Notifier
	Limiter  *ratelimit.Limiter
	Log      *zap.Logger
}

func NewHandler(contacts *contactstore.Store, notifier mailer.Notifier, limiter *ratelimit.Limiter, logger *zap.Logger) *Handler {
	return &Handler{Contacts: contacts, Notifier: notifier, Limiter: limiter, Log: logger}
}

// Submit handles POST /api/contact. Public; throttled per IP. The
// confirmation mail is best-effort and never fails the request.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	ip := ratelimit.ClientIP(r)
	if !h.Limiter.Allow(ip) {
		apiutil.Error(w, h.Log, apierr.RateLimited("too many contact form submissions, try again later", h.Limiter.RetryAfter(ip)))
		return
	}

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Subject  string `json:"subject"`
		Message  string `json:"message"`
		Category string `json:"category"`
	}
	if err := apiutil.DecodeBody(r, &req); err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	req.Name = sanitize.Text(normalize.Name(req.Name))
	req.Subject = sanitize.Text(req.Subject)
	req.Message = sanitize.Text(req.Message)

	for _, check := range []error{
		inputval.Required("name", req.Name),
		inputval.MaxLen("name", req.Name, 100),
		inputval.Email(req.Email),
		inputval.Required("subject", req.Subject),
		inputval.MaxLen("subject", req.Subject, 200),
		inputval.Required("message", req.Message),
		inputval.MaxLen("message", req.Message, 2000),
		inputval.OneOf("category", req.Category, models.ContactCategories),
	} {
		if check != nil {
			apiutil.Error(w, h.Log, check)
			return
		}
	}

	c, err := h.Contacts.Create(r.Context(), contactstore.NewContact{
		Name:     req.Name,
		Email:    req.Email,
		Subject:  req.Subject,
		Message:  req.Message,
		Category: req.Category,
	})
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	go h.sendConfirmation(c)

	apiutil.Created(w, "thank you for contacting us, we will get back to you soon", map[string]any{"contact": c})
}

func (h *Handler) sendConfirmation(c *models.Contact) {
	mail := mailer.BuildContactEmail(mailer.ContactEmailData{
		SiteName: SiteName,
		Name:     c.Name,
		Subject:  c.Subject,
	})
	mail.To = c.Email
	if err := h.Notifier.Send(mail); err != nil {
		h.Log.Warn("contact confirmation mail failed",
			zap.String("email", c.Email), zap.Error(err))
	}
}

// Stats handles GET /api/contact/stats (admin).
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Contacts.GetStats(r.Context())
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.OK(w, "", map[string]any{"stats": stats})
}

// List handles GET /api/contact/admin (admin).
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	f := contactstore.ListFilter{
		Status:   query.Get(r, "status"),
		Category: query.Get(r, "category"),
	}
	if s := query.Get(r, "is_read"); s != "" {
		v := s == "true"
		f.IsRead = &v
	}

	p := paging.Parse(r)
	contacts, total, err := h.Contacts.List(r.Context(), f, p.Skip(), int64(p.Limit))
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.OK(w, "", map[string]any{
		"contacts":   contacts,
		"pagination": paging.NewMeta(p, total),
	})
}

// Get handles GET /api/contact/{id} (admin). Viewing marks the
// submission read.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apiutil.Error(w, h.Log, apierr.Validation("invalid contact id"))
		return
	}

	if err := h.Contacts.MarkRead(r.Context(), id); errors.Is(err, contactstore.ErrNotFound) {
		apiutil.Error(w, h.Log, apierr.NotFound("contact submission not found"))
		return
	} else if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	c, err := h.Contacts.GetByID(r.Context(), id)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.OK(w, "", map[string]any{"contact": c})
}

// UpdateStatus handles PUT /api/contact/{id}/status (admin).
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apiutil.Error(w, h.Log, apierr.Validation("invalid contact id"))
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := apiutil.DecodeBody(r, &req); err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	if err := inputval.Required("status", req.Status); err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	if err := inputval.OneOf("status", req.Status, models.ContactStatuses); err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	c, err := h.Contacts.UpdateStatus(r.Context(), id, req.Status)
	if errors.Is(err, contactstore.ErrNotFound) {
		apiutil.Error(w, h.Log, apierr.NotFound("contact submission not found"))
		return
	}
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.OK(w, "contact status updated", map[string]any{"contact": c})
}

// Respond handles POST /api/contact/{id}/respond (admin).
func (h *Handler) Respond(w http.ResponseWriter, r *http.Request) {
	_, _, adminID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, h.Log, apierr.Unauthorized("authentication required"))
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apiutil.Error(w, h.Log, apierr.Validation("invalid contact id"))
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := apiutil.DecodeBody(r, &req); err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	req.Content = sanitize.Text(req.Content)
	if err := inputval.Required("content", req.Content); err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	if err := inputval.MaxLen("content", req.Content, 2000); err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	c, err := h.Contacts.Respond(r.Context(), id, adminID, req.Content)
	if errors.Is(err, contactstore.ErrNotFound) {
		apiutil.Error(w, h.Log, apierr.NotFound("contact submission not found"))
		return
	}
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.OK(w, "response recorded", map[string]any{"contact": c})
}

// Delete handles DELETE /api/contact/{id} (admin).
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apiutil.Error(w, h.Log, apierr.Validation("invalid contact id"))
		return
	}

	if err := h.Contacts.Delete(r.Context(), id); errors.Is(err, contactstore.ErrNotFound) {
		apiutil.Error(w, h.Log, apierr.NotFound("contact submission not found"))
		return
	} else if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.OK(w, "contact submission deleted", nil)
}
