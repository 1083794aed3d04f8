// Package admin is the HTTP surface for municipal staff: dashboard
// stats, account management, message oversight, and analytics.
package admin

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	analyticsstore "github.com/civicworks/civicconnect/internal/app/store/analytics"
	messagestore "github.com/civicworks/civicconnect/internal/app/store/messages"
	reportstore "github.com/civicworks/civicconnect/internal/app/store/reports"
	userstore "github.com/civicworks/civicconnect/internal/app/store/users"
	"github.com/civicworks/civicconnect/internal/app/system/apierr"
	"github.com/civicworks/civicconnect/internal/app/system/apiutil"
	"github.com/civicworks/civicconnect/internal/app/system/authz"
	"github.com/civicworks/civicconnect/internal/app/system/paging"
	"github.com/civicworks/civicconnect/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

// Handler holds the admin feature's dependencies.
type Handler struct {
	Reports   *reportstore.Store
	Users     *userstore.Store
	Messages  *messagestore.Store
	Analytics *analyticsstore.Store
	Log       *zap.Logger
}

func NewHandler(reports *reportstore.Store, users *userstore.Store, messages *messagestore.Store, analytics *analyticsstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Reports:   reports,
		Users:     users,
		Messages:  messages,
		Analytics: analytics,
		Log:       logger,
	}
}

// Dashboard handles GET /api/admin/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := time.Now().UTC()
	dayStart, _ := analyticsstore.DayWindow(now)
	weekStart := dayStart.Add(-7 * 24 * time.Hour)
	monthStart := dayStart.Add(-30 * 24 * time.Hour)

	snap, err := h.Analytics.CalculateDaily(ctx, now)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	reportsToday, err := h.Reports.CountSince(ctx, dayStart)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	reportsWeek, err := h.Reports.CountSince(ctx, weekStart)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	reportsMonth, err := h.Reports.CountSince(ctx, monthStart)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	recent, err := h.Reports.Recent(ctx, 5)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	topVoted, err := h.Reports.TopVoted(ctx, 5)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	apiutil.OK(w, "", map[string]any{
		"reports": map[string]any{
			"total":         snap.Metrics.Reports.Total,
			"today":         reportsToday,
			"this_week":     reportsWeek,
			"this_month":    reportsMonth,
			"by_status":     statusBreakdown(snap.Metrics.Reports),
			"by_category":   snap.Metrics.Reports.ByCategory,
			"by_priority":   snap.Metrics.Reports.ByPriority,
			"by_department": snap.Metrics.Reports.ByDepartment,
		},
		"users":      snap.Metrics.Users,
		"engagement": snap.Metrics.Engagement,
		"resolution": snap.Metrics.Resolution,
		"recent_reports":    recent,
		"top_voted_reports": topVoted,
	})
}

func statusBreakdown(m models.ReportMetrics) map[string]int64 {
	return map[string]int64{
		models.StatusPending:      m.Pending,
		models.StatusAcknowledged: m.Acknowledged,
		models.StatusInProgress:   m.InProgress,
		models.StatusResolved:     m.Resolved,
		models.StatusClosed:       m.Closed,
	}
}

// ListReports handles GET /api/admin/reports: all reports, private
// included, with the public feed's filters.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	f := reportstore.ListFilter{
		Category:   query.Get(r, "category"),
		Status:     query.Get(r, "status"),
		Priority:   query.Get(r, "priority"),
		Department: query.Get(r, "department"),
		Search:     query.Get(r, "search"),
		SortBy:     query.Get(r, "sort"),
	}
	p := paging.Parse(r)
	reps, total, err := h.Reports.List(r.Context(), f, p.Skip(), int64(p.Limit))
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.OK(w, "", map[string]any{
		"reports":    reps,
		"pagination": paging.NewMeta(p, total),
	})
}

// ListUsers handles GET /api/admin/users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	f := userstore.ListFilter{
		Role:   query.Get(r, "role"),
		Search: query.Get(r, "search"),
	}
	if s := query.Get(r, "is_active"); s != "" {
		v := s == "true"
		f.IsActive = &v
	}

	p := paging.Parse(r)
	users, total, err := h.Users.List(r.Context(), f, p.Skip(), int64(p.Limit))
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.OK(w, "", map[string]any{
		"users":      users,
		"pagination": paging.NewMeta(p, total),
	})
}

// SetUserActive handles PUT /api/admin/users/{id}/active. An admin
// cannot deactivate their own account.
func (h *Handler) SetUserActive(w http.ResponseWriter, r *http.Request) {
	_, _, adminID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, h.Log, apierr.Unauthorized("authentication required"))
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apiutil.Error(w, h.Log, apierr.Validation("invalid user id"))
		return
	}

	var req struct {
		IsActive *bool `json:"is_active"`
	}
	if err := apiutil.DecodeBody(r, &req); err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	if req.IsActive == nil {
		apiutil.Error(w, h.Log, apierr.Validation("is_active is required"))
		return
	}
	if id == adminID && !*req.IsActive {
		apiutil.Error(w, h.Log, apierr.Validation("cannot deactivate your own account"))
		return
	}

	if err := h.Users.SetActive(r.Context(), id, *req.IsActive); errors.Is(err, userstore.ErrNotFound) {
		apiutil.Error(w, h.Log, apierr.NotFound("user not found"))
		return
	} else if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.OK(w, "user updated", nil)
}

// ListMessages handles GET /api/admin/messages: every message in the
// system.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	f := messagestore.ListFilter{
		MessageType: query.Get(r, "type"),
		Priority:    query.Get(r, "priority"),
	}
	p := paging.Parse(r)
	msgs, total, err := h.Messages.ListAll(r.Context(), f, p.Skip(), int64(p.Limit))
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.OK(w, "", map[string]any{
		"messages":   msgs,
		"pagination": paging.NewMeta(p, total),
	})
}

// GetAnalytics handles GET /api/admin/analytics. With from/to query
// params it returns that range; otherwise the latest 30 snapshots.
func (h *Handler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	fromS, toS := query.Get(r, "from"), query.Get(r, "to")
	if fromS != "" || toS != "" {
		from, err := time.Parse("2006-01-02", fromS)
		if err != nil {
			apiutil.Error(w, h.Log, apierr.Validation("from must be YYYY-MM-DD"))
			return
		}
		to, err := time.Parse("2006-01-02", toS)
		if err != nil {
			apiutil.Error(w, h.Log, apierr.Validation("to must be YYYY-MM-DD"))
			return
		}
		snaps, err := h.Analytics.GetRange(r.Context(), from, to)
		if err != nil {
			apiutil.Error(w, h.Log, err)
			return
		}
		apiutil.OK(w, "", map[string]any{"analytics": snaps})
		return
	}

	snaps, err := h.Analytics.Latest(r.Context(), 30)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.OK(w, "", map[string]any{"analytics": snaps})
}

// GenerateAnalytics handles POST /api/admin/analytics/generate: an
// on-demand run of the daily aggregation.
func (h *Handler) GenerateAnalytics(w http.ResponseWriter, r *http.Request) {
	date := time.Now().UTC()
	if s := query.Get(r, "date"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			apiutil.Error(w, h.Log, apierr.Validation("date must be YYYY-MM-DD"))
			return
		}
		date = parsed
	}

	snap, err := h.Analytics.CalculateDaily(r.Context(), date)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.OK(w, "analytics generated", map[string]any{"snapshot": snap})
}
