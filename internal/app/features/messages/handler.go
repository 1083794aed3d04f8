// Package messages is the HTTP surface for citizen↔admin messaging.
package messages

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	messagestore "github.com/civicworks/civicconnect/internal/app/store/messages"
	reportstore "github.com/civicworks/civicconnect/internal/app/store/reports"
	userstore "github.com/civicworks/civicconnect/internal/app/store/users"
	"github.com/civicworks/civicconnect/internal/app/system/apierr"
	"github.com/civicworks/civicconnect/internal/app/system/apiutil"
	"github.com/civicworks/civicconnect/internal/app/system/authz"
	"github.com/civicworks/civicconnect/internal/app/system/inputval"
	"github.com/civicworks/civicconnect/internal/app/system/paging"
	"github.com/civicworks/civicconnect/internal/app/system/sanitize"
	"github.com/civicworks/civicconnect/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

// Handler holds the messages feature's dependencies.
type Handler struct {
	Messages *messagestore.Store
	Users    *userstore.Store
	Reports  *reportstore.Store
	Log      *zap.Logger
}

func NewHandler(messages *messagestore.Store, users *userstore.Store, reports *reportstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Messages: messages, Users: users, Reports: reports, Log: logger}
}

func messageIDParam(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return primitive.NilObjectID, apierr.Validation("invalid message id")
	}
	return id, nil
}

// List handles GET /api/messages: the caller's inbox and outbox.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, h.Log, apierr.Unauthorized("authentication required"))
		return
	}

	f := messagestore.ListFilter{
		MessageType: query.Get(r, "type"),
		Priority:    query.Get(r, "priority"),
	}
	if s := query.Get(r, "is_read"); s != "" {
		v := s == "true"
		f.IsRead = &v
	}

	p := paging.Parse(r)
	msgs, total, err := h.Messages.ListForUser(r.Context(), userID, f, p.Skip(), int64(p.Limit))
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	unread, err := h.Messages.UnreadCount(r.Context(), userID)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	apiutil.OK(w, "", map[string]any{
		"messages":     msgs,
		"pagination":   paging.NewMeta(p, total),
		"unread_count": unread,
	})
}

// UnreadCount handles GET /api/messages/unread-count.
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, h.Log, apierr.Unauthorized("authentication required"))
		return
	}
	unread, err := h.Messages.UnreadCount(r.Context(), userID)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.OK(w, "", map[string]any{"unread_count": unread})
}

// Get handles GET /api/messages/{id}. Reading as the recipient marks
// the message read.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, h.Log, apierr.Unauthorized("authentication required"))
		return
	}
	id, err := messageIDParam(r)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	m, err := h.Messages.GetByID(r.Context(), id)
	if errors.Is(err, messagestore.ErrNotFound) {
		apiutil.Error(w, h.Log, apierr.NotFound("message not found"))
		return
	}
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	if m.Sender != userID && m.Recipient != userID {
		apiutil.Error(w, h.Log, apierr.Forbidden("not a participant in this message"))
		return
	}

	if m.Recipient == userID && !m.IsRead {
		if err := h.Messages.MarkRead(r.Context(), id); err != nil {
			h.Log.Warn("auto mark read", zap.Error(err))
		} else {
			m, _ = h.Messages.GetByID(r.Context(), id)
		}
	}
	apiutil.OK(w, "", map[string]any{"message": m})
}

// Send handles POST /api/messages.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, h.Log, apierr.Unauthorized("authentication required"))
		return
	}

	var req struct {
		Recipient     string `json:"recipient"`
		Subject       string `json:"subject"`
		Content       string `json:"content"`
		RelatedReport string `json:"related_report"`
		Priority      string `json:"priority"`
		MessageType   string `json:"message_type"`
	}
	if err := apiutil.DecodeBody(r, &req); err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	req.Subject = sanitize.Text(req.Subject)
	req.Content = sanitize.Text(req.Content)
	if err := inputval.Required("subject", req.Subject); err != nil {
		apiutil.Error(w, h.Log, apierr.Validation("subject is required"))
		return
	}
	if err := inputval.Required("content", req.Content); err != nil {
		apiutil.Error(w, h.Log, apierr.Validation("content is required"))
		return
	}
	if req.Priority != "" {
		allowed := []string{models.MessagePriorityLow, models.MessagePriorityNormal, models.MessagePriorityHigh}
		if err := inputval.OneOf("priority", req.Priority, allowed); err != nil {
			apiutil.Error(w, h.Log, apierr.Validation("unknown priority"))
			return
		}
	}

	recipientID, err := primitive.ObjectIDFromHex(req.Recipient)
	if err != nil {
		apiutil.Error(w, h.Log, apierr.Validation("invalid recipient id"))
		return
	}
	if _, err := h.Users.GetByID(r.Context(), recipientID); errors.Is(err, userstore.ErrNotFound) {
		apiutil.Error(w, h.Log, apierr.NotFound("recipient not found"))
		return
	} else if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	var related *primitive.ObjectID
	if req.RelatedReport != "" {
		rid, err := primitive.ObjectIDFromHex(req.RelatedReport)
		if err != nil {
			apiutil.Error(w, h.Log, apierr.Validation("invalid related report id"))
			return
		}
		if _, err := h.Reports.GetByID(r.Context(), rid); errors.Is(err, reportstore.ErrNotFound) {
			apiutil.Error(w, h.Log, apierr.NotFound("related report not found"))
			return
		} else if err != nil {
			apiutil.Error(w, h.Log, err)
			return
		}
		related = &rid
	}

	m, err := h.Messages.Send(r.Context(), messagestore.NewMessage{
		Sender:        userID,
		Recipient:     recipientID,
		Subject:       req.Subject,
		Content:       req.Content,
		RelatedReport: related,
		Priority:      req.Priority,
		MessageType:   req.MessageType,
	})
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.Created(w, "message sent", map[string]any{"message": m})
}

// SendToAdmin handles POST /api/messages/admin: citizens reach the
// first active admin without knowing ids.
func (h *Handler) SendToAdmin(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, h.Log, apierr.Unauthorized("authentication required"))
		return
	}

	var req struct {
		Subject       string `json:"subject"`
		Content       string `json:"content"`
		RelatedReport string `json:"related_report"`
		Priority      string `json:"priority"`
	}
	if err := apiutil.DecodeBody(r, &req); err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	req.Subject = sanitize.Text(req.Subject)
	req.Content = sanitize.Text(req.Content)
	if req.Subject == "" || req.Content == "" {
		apiutil.Error(w, h.Log, apierr.Validation("subject and content are required"))
		return
	}

	active := true
	admins, _, err := h.Users.List(r.Context(), userstore.ListFilter{Role: models.RoleAdmin, IsActive: &active}, 0, 1)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	if len(admins) == 0 {
		apiutil.Error(w, h.Log, apierr.NotFound("no admin available to receive messages"))
		return
	}

	var related *primitive.ObjectID
	if req.RelatedReport != "" {
		rid, err := primitive.ObjectIDFromHex(req.RelatedReport)
		if err != nil {
			apiutil.Error(w, h.Log, apierr.Validation("invalid related report id"))
			return
		}
		related = &rid
	}

	m, err := h.Messages.Send(r.Context(), messagestore.NewMessage{
		Sender:        userID,
		Recipient:     admins[0].ID,
		Subject:       req.Subject,
		Content:       req.Content,
		RelatedReport: related,
		Priority:      req.Priority,
	})
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.Created(w, "message sent to admin", map[string]any{"message": m})
}

// Reply handles POST /api/messages/{id}/reply. Only the recipient of
// the original may reply; the thread links through reply_to.
func (h *Handler) Reply(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, h.Log, apierr.Unauthorized("authentication required"))
		return
	}
	id, err := messageIDParam(r)
	if err != nil {
		apiutil.Error(w, h.Log, err)
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
	if req.Content == "" {
		apiutil.Error(w, h.Log, apierr.Validation("content is required"))
		return
	}

	orig, err := h.Messages.GetByID(r.Context(), id)
	if errors.Is(err, messagestore.ErrNotFound) {
		apiutil.Error(w, h.Log, apierr.NotFound("message not found"))
		return
	}
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	if orig.Recipient != userID {
		apiutil.Error(w, h.Log, apierr.Forbidden("only the recipient can reply"))
		return
	}

	m, err := h.Messages.Send(r.Context(), messagestore.NewMessage{
		Sender:        userID,
		Recipient:     orig.Sender,
		Subject:       "Re: " + orig.Subject,
		Content:       req.Content,
		RelatedReport: orig.RelatedReport,
		ReplyTo:       &orig.ID,
		Priority:      orig.Priority,
		MessageType:   orig.MessageType,
	})
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.Created(w, "reply sent", map[string]any{"message": m})
}

// participantAction loads the message and checks the caller is sender or
// recipient before applying fn.
func (h *Handler) participantAction(w http.ResponseWriter, r *http.Request, done string, fn func(id primitive.ObjectID) error) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, h.Log, apierr.Unauthorized("authentication required"))
		return
	}
	id, err := messageIDParam(r)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	m, err := h.Messages.GetByID(r.Context(), id)
	if errors.Is(err, messagestore.ErrNotFound) {
		apiutil.Error(w, h.Log, apierr.NotFound("message not found"))
		return
	}
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	if m.Sender != userID && m.Recipient != userID {
		apiutil.Error(w, h.Log, apierr.Forbidden("not a participant in this message"))
		return
	}

	if err := fn(id); err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.OK(w, done, nil)
}

// MarkRead handles PUT /api/messages/{id}/read. Recipient only.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, h.Log, apierr.Unauthorized("authentication required"))
		return
	}
	id, err := messageIDParam(r)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	m, err := h.Messages.GetByID(r.Context(), id)
	if errors.Is(err, messagestore.ErrNotFound) {
		apiutil.Error(w, h.Log, apierr.NotFound("message not found"))
		return
	}
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	if m.Recipient != userID {
		apiutil.Error(w, h.Log, apierr.Forbidden("only the recipient can mark a message read"))
		return
	}

	if err := h.Messages.MarkRead(r.Context(), id); err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.OK(w, "message marked read", nil)
}

// Archive handles PUT /api/messages/{id}/archive.
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	h.participantAction(w, r, "message archived", func(id primitive.ObjectID) error {
		return h.Messages.Archive(r.Context(), id)
	})
}

// Delete handles DELETE /api/messages/{id}: soft delete.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	h.participantAction(w, r, "message deleted", func(id primitive.ObjectID) error {
		return h.Messages.SoftDelete(r.Context(), id)
	})
}
