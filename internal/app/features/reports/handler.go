// Package reports is the HTTP surface for the report lifecycle: public
// browsing, citizen submissions, voting, comments, and admin triage.
package reports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	reportstore "github.com/civicworks/civicconnect/internal/app/store/reports"
	userstore "github.com/civicworks/civicconnect/internal/app/store/users"
	"github.com/civicworks/civicconnect/internal/app/policy/reportpolicy"
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

const (
	maxUploadBytes = 10 << 20 // per request
	maxImages      = 5
)

// Handler holds the reports feature's dependencies.
type Handler struct {
	Reports   *reportstore.Store
	Users     *userstore.Store
	Notifier  mailer.Notifier
	Limiter   *ratelimit.Limiter // report-creation throttle, keyed by user
	UploadDir string
	UploadURL string // public prefix, e.g. "/uploads"
	Log       *zap.Logger
}

func NewHandler(reports *reportstore.Store, users *userstore.Store, notifier mailer.Notifier, limiter *ratelimit.Limiter, uploadDir, uploadURL string, logger *zap.Logger) *Handler {
	return &Handler{
		Reports:   reports,
		Users:     users,
		Notifier:  notifier,
		Limiter:   limiter,
		UploadDir: uploadDir,
		UploadURL: uploadURL,
		Log:       logger,
	}
}

func reportIDParam(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return primitive.NilObjectID, apierr.Validation("invalid report id")
	}
	return id, nil
}

// reportPayload shapes a report for the wire, hiding the reporter of
// anonymous reports from non-admins and adding per-viewer vote state.
func (h *Handler) reportPayload(rep *models.Report, viewerID primitive.ObjectID, viewerIsAdmin bool) map[string]any {
	p := map[string]any{
		"id":          rep.ID.Hex(),
		"report_id":   rep.ReportID,
		"title":       rep.Title,
		"description": rep.Description,
		"category":    rep.Category,
		"status":      rep.Status,
		"priority":    rep.Priority,
		"location":    rep.Location,
		"images":      rep.Images,
		"department":  rep.Department,
		"votes":       map[string]any{"count": rep.Votes.Count, "has_voted": rep.HasVoted(viewerID)},
		"comments":    rep.Comments,
		"tags":        rep.Tags,
		"is_public":   rep.IsPublic,
		"is_anonymous": rep.IsAnonymous,
		"estimated_resolution": rep.EstimatedResolution,
		"actual_resolution":    rep.ActualResolution,
		"created_at":           rep.CreatedAt,
		"updated_at":           rep.UpdatedAt,
	}
	if !rep.IsAnonymous || viewerIsAdmin || rep.Reporter == viewerID {
		p["reporter"] = rep.Reporter.Hex()
	}
	if rep.AssignedTo != nil {
		p["assigned_to"] = rep.AssignedTo.Hex()
	}
	return p
}

func (h *Handler) payloadList(reps []models.Report, viewerID primitive.ObjectID, viewerIsAdmin bool) []map[string]any {
	out := make([]map[string]any, 0, len(reps))
	for i := range reps {
		out = append(out, h.reportPayload(&reps[i], viewerID, viewerIsAdmin))
	}
	return out
}

// Create handles POST /api/reports.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, h.Log, apierr.Unauthorized("authentication required"))
		return
	}

	if !h.Limiter.Allow(userID.Hex()) {
		apiutil.Error(w, h.Log, apierr.RateLimited("report limit reached, try again later", h.Limiter.RetryAfter(userID.Hex())))
		return
	}

	var req struct {
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Category    string          `json:"category"`
		Location    models.GeoPoint `json:"location"`
		Department  string          `json:"department"`
		Tags        []string        `json:"tags"`
		IsPublic    *bool           `json:"is_public"`
		IsAnonymous bool            `json:"is_anonymous"`
	}
	if err := apiutil.DecodeBody(r, &req); err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	req.Title = sanitize.Text(req.Title)
	req.Description = sanitize.Text(req.Description)
	if err := inputval.Required("title", req.Title); err != nil {
		apiutil.Error(w, h.Log, apierr.Validation("title is required"))
		return
	}
	if err := inputval.MaxLen("title", req.Title, 200); err != nil {
		apiutil.Error(w, h.Log, apierr.Validation("title is too long"))
		return
	}
	if err := inputval.Required("description", req.Description); err != nil {
		apiutil.Error(w, h.Log, apierr.Validation("description is required"))
		return
	}
	if err := inputval.OneOf("category", req.Category, models.Categories); err != nil {
		apiutil.Error(w, h.Log, apierr.Validation("unknown category"))
		return
	}
	if req.Department != "" {
		if err := inputval.OneOf("department", req.Department, models.Departments); err != nil {
			apiutil.Error(w, h.Log, apierr.Validation("unknown department"))
			return
		}
	}
	if err := inputval.Coordinates(req.Location.Coordinates); err != nil {
		apiutil.Error(w, h.Log, apierr.Validation("location coordinates must be [longitude, latitude]"))
		return
	}

	tags := make([]string, 0, len(req.Tags))
	for _, tag := range req.Tags {
		if t := normalize.Tag(sanitize.Text(tag)); t != "" {
			tags = append(tags, t)
		}
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	rep, err := h.Reports.Create(r.Context(), reportstore.NewReport{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		Reporter:    userID,
		Department:  req.Department,
		Tags:        tags,
		IsPublic:    isPublic,
		IsAnonymous: req.IsAnonymous,
	})
	if errors.Is(err, reportstore.ErrInvalidCoordinates) {
		apiutil.Error(w, h.Log, apierr.Validation("location coordinates must be [longitude, latitude]"))
		return
	}
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	if err := h.Users.IncReportsCount(r.Context(), userID, 1); err != nil {
		h.Log.Warn("inc reports_count", zap.Error(err))
	}

	apiutil.Created(w, "report created", map[string]any{
		"report": h.reportPayload(rep, userID, false),
	})
}

// List handles GET /api/reports: the public feed.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	viewerID, viewerIsAdmin := viewer(r)

	f := reportstore.ListFilter{
		PublicOnly: !viewerIsAdmin,
		Category:   query.Get(r, "category"),
		Status:     query.Get(r, "status"),
		Priority:   query.Get(r, "priority"),
		Department: query.Get(r, "department"),
		Search:     query.Get(r, "search"),
		SortBy:     query.Get(r, "sort"),
	}

	if near := query.Get(r, "near"); near != "" {
		parts := strings.Split(near, ",")
		if len(parts) != 2 {
			apiutil.Error(w, h.Log, apierr.Validation("near must be lng,lat"))
			return
		}
		lng, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lat, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err1 != nil || err2 != nil {
			apiutil.Error(w, h.Log, apierr.Validation("near must be lng,lat"))
			return
		}
		radius := 5.0
		if rs := query.Get(r, "radius"); rs != "" {
			if rv, err := strconv.ParseFloat(rs, 64); err == nil && rv > 0 {
				radius = rv
			}
		}
		f.NearLng, f.NearLat, f.NearRadiusKM = lng, lat, radius
	}

	p := paging.Parse(r)
	reps, total, err := h.Reports.List(r.Context(), f, p.Skip(), int64(p.Limit))
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	apiutil.OK(w, "", map[string]any{
		"reports":    h.payloadList(reps, viewerID, viewerIsAdmin),
		"pagination": paging.NewMeta(p, total),
	})
}

// MyReports handles GET /api/reports/my-reports.
func (h *Handler) MyReports(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, h.Log, apierr.Unauthorized("authentication required"))
		return
	}

	f := reportstore.ListFilter{
		Reporter: userID,
		Category: query.Get(r, "category"),
		Status:   query.Get(r, "status"),
	}
	p := paging.Parse(r)
	reps, total, err := h.Reports.List(r.Context(), f, p.Skip(), int64(p.Limit))
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.OK(w, "", map[string]any{
		"reports":    h.payloadList(reps, userID, false),
		"pagination": paging.NewMeta(p, total),
	})
}

// Get handles GET /api/reports/{id}. Private reports are visible to the
// owner and admins only.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := reportIDParam(r)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	rep, err := h.Reports.GetByID(r.Context(), id)
	if errors.Is(err, reportstore.ErrNotFound) {
		apiutil.Error(w, h.Log, apierr.NotFound("report not found"))
		return
	}
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	viewerID, viewerIsAdmin := viewer(r)
	if !rep.IsPublic && !viewerIsAdmin && rep.Reporter != viewerID {
		apiutil.Error(w, h.Log, apierr.NotFound("report not found"))
		return
	}
	apiutil.OK(w, "", map[string]any{"report": h.reportPayload(rep, viewerID, viewerIsAdmin)})
}

// Update handles PUT /api/reports/{id}. The policy table gates every
// field: owners edit descriptive fields, admins also triage.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	role, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, h.Log, apierr.Unauthorized("authentication required"))
		return
	}
	id, err := reportIDParam(r)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	rep, err := h.Reports.GetByID(r.Context(), id)
	if errors.Is(err, reportstore.ErrNotFound) {
		apiutil.Error(w, h.Log, apierr.NotFound("report not found"))
		return
	}
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	isOwner := rep.Reporter == userID

	var req map[string]any
	if err := apiutil.DecodeBody(r, &req); err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	set := bson.M{}
	for field, raw := range req {
		if !reportpolicy.CanSetField(role, field, isOwner) {
			apiutil.Error(w, h.Log, apierr.Forbidden(fmt.Sprintf("not allowed to set %s", field)))
			return
		}
		val, err := h.prepareField(field, raw)
		if err != nil {
			apiutil.Error(w, h.Log, err)
			return
		}
		set[field] = val
	}
	if len(set) == 0 {
		apiutil.Error(w, h.Log, apierr.Validation("nothing to update"))
		return
	}

	updated, err := h.Reports.Update(r.Context(), id, set)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.OK(w, "report updated", map[string]any{
		"report": h.reportPayload(updated, userID, role == models.RoleAdmin),
	})
}

// prepareField validates and coerces one updatable field.
func (h *Handler) prepareField(field string, raw any) (any, error) {
	switch field {
	case "title":
		s, _ := raw.(string)
		s = sanitize.Text(s)
		if s == "" || len(s) > 200 {
			return nil, apierr.Validation("invalid title")
		}
		return s, nil
	case "description":
		s, _ := raw.(string)
		s = sanitize.Text(s)
		if s == "" {
			return nil, apierr.Validation("invalid description")
		}
		return s, nil
	case "category":
		s, _ := raw.(string)
		if err := inputval.OneOf("category", s, models.Categories); err != nil {
			return nil, apierr.Validation("unknown category")
		}
		return s, nil
	case "status":
		s, _ := raw.(string)
		if err := inputval.OneOf("status", s, models.Statuses); err != nil {
			return nil, apierr.Validation("unknown status")
		}
		return s, nil
	case "priority":
		s, _ := raw.(string)
		if err := inputval.OneOf("priority", s, models.Priorities); err != nil {
			return nil, apierr.Validation("unknown priority")
		}
		return s, nil
	case "department":
		s, _ := raw.(string)
		if err := inputval.OneOf("department", s, models.Departments); err != nil {
			return nil, apierr.Validation("unknown department")
		}
		return s, nil
	case "location":
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, apierr.Validation("invalid location")
		}
		coordsRaw, _ := m["coordinates"].([]any)
		coords := make([]float64, 0, len(coordsRaw))
		for _, c := range coordsRaw {
			f, ok := c.(float64)
			if !ok {
				return nil, apierr.Validation("invalid location")
			}
			coords = append(coords, f)
		}
		if err := inputval.Coordinates(coords); err != nil {
			return nil, apierr.Validation("location coordinates must be [longitude, latitude]")
		}
		addr, _ := m["address"].(string)
		return models.GeoPoint{Type: "Point", Coordinates: coords, Address: sanitize.Text(addr)}, nil
	case "tags":
		items, ok := raw.([]any)
		if !ok {
			return nil, apierr.Validation("invalid tags")
		}
		tags := make([]string, 0, len(items))
		for _, it := range items {
			s, _ := it.(string)
			if t := normalize.Tag(sanitize.Text(s)); t != "" {
				tags = append(tags, t)
			}
		}
		return tags, nil
	case "is_public", "is_anonymous":
		b, ok := raw.(bool)
		if !ok {
			return nil, apierr.Validation("invalid boolean")
		}
		return b, nil
	case "estimated_resolution":
		s, _ := raw.(string)
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, apierr.Validation("estimated_resolution must be RFC 3339")
		}
		return ts.UTC(), nil
	case "assigned_to":
		s, _ := raw.(string)
		oid, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return nil, apierr.Validation("invalid assigned_to id")
		}
		return oid, nil
	default:
		return nil, apierr.Validation(fmt.Sprintf("unknown field %s", field))
	}
}

// Delete handles DELETE /api/reports/{id}: owner or admin.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	role, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, h.Log, apierr.Unauthorized("authentication required"))
		return
	}
	id, err := reportIDParam(r)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	rep, err := h.Reports.GetByID(r.Context(), id)
	if errors.Is(err, reportstore.ErrNotFound) {
		apiutil.Error(w, h.Log, apierr.NotFound("report not found"))
		return
	}
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	if rep.Reporter != userID && role != models.RoleAdmin {
		apiutil.Error(w, h.Log, apierr.Forbidden("not allowed to delete this report"))
		return
	}

	if err := h.Reports.Delete(r.Context(), id); err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	if err := h.Users.IncReportsCount(r.Context(), rep.Reporter, -1); err != nil {
		h.Log.Warn("dec reports_count", zap.Error(err))
	}
	apiutil.OK(w, "report deleted", nil)
}

// Vote handles POST /api/reports/{id}/vote: an idempotent-pair toggle.
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, h.Log, apierr.Unauthorized("authentication required"))
		return
	}
	id, err := reportIDParam(r)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	res, err := h.Reports.ToggleVote(r.Context(), id, userID)
	if errors.Is(err, reportstore.ErrNotFound) {
		apiutil.Error(w, h.Log, apierr.NotFound("report not found"))
		return
	}
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.OK(w, "vote recorded", map[string]any{"votes": res})
}

// Comment handles POST /api/reports/{id}/comments.
func (h *Handler) Comment(w http.ResponseWriter, r *http.Request) {
	role, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, h.Log, apierr.Unauthorized("authentication required"))
		return
	}
	id, err := reportIDParam(r)
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
		apiutil.Error(w, h.Log, apierr.Validation("comment content is required"))
		return
	}
	if err := inputval.MaxLen("content", req.Content, 2000); err != nil {
		apiutil.Error(w, h.Log, apierr.Validation("comment is too long"))
		return
	}

	c, err := h.Reports.AddComment(r.Context(), id, userID, req.Content, role == models.RoleAdmin)
	if errors.Is(err, reportstore.ErrNotFound) {
		apiutil.Error(w, h.Log, apierr.NotFound("report not found"))
		return
	}
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.Created(w, "comment added", map[string]any{"comment": c})
}

// UpdateStatus handles PUT /api/reports/{id}/status (admin only via
// routes). The reporter is notified best-effort.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	_, _, adminID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, h.Log, apierr.Unauthorized("authentication required"))
		return
	}
	id, err := reportIDParam(r)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := apiutil.DecodeBody(r, &req); err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	if err := inputval.OneOf("status", req.Status, models.Statuses); err != nil {
		apiutil.Error(w, h.Log, apierr.Validation("unknown status"))
		return
	}

	rep, err := h.Reports.UpdateStatus(r.Context(), id, req.Status, adminID)
	if errors.Is(err, reportstore.ErrNotFound) {
		apiutil.Error(w, h.Log, apierr.NotFound("report not found"))
		return
	}
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	go h.notifyStatus(rep)

	apiutil.OK(w, "status updated", map[string]any{
		"report": h.reportPayload(rep, adminID, true),
	})
}

func (h *Handler) notifyStatus(rep *models.Report) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	reporter, err := h.Users.GetByID(ctx, rep.Reporter)
	if err != nil {
		h.Log.Warn("status notify: load reporter", zap.Error(err))
		return
	}
	mail := mailer.BuildStatusEmail(mailer.StatusEmailData{
		SiteName: "CivicConnect",
		Name:     reporter.Name,
		ReportID: rep.ReportID,
		Title:    rep.Title,
		Status:   rep.Status,
	})
	mail.To = reporter.Email
	if err := h.Notifier.Send(mail); err != nil {
		h.Log.Warn("status notify: send", zap.String("email", reporter.Email), zap.Error(err))
	}
}

// Assign handles PUT /api/reports/{id}/assign (admin only via routes).
// The target must hold the admin role.
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	_, _, adminID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, h.Log, apierr.Unauthorized("authentication required"))
		return
	}
	id, err := reportIDParam(r)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	var req struct {
		AssignedTo string `json:"assigned_to"`
	}
	if err := apiutil.DecodeBody(r, &req); err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	var target *primitive.ObjectID
	if req.AssignedTo != "" {
		oid, err := primitive.ObjectIDFromHex(req.AssignedTo)
		if err != nil {
			apiutil.Error(w, h.Log, apierr.Validation("invalid assignee id"))
			return
		}
		u, err := h.Users.GetByID(r.Context(), oid)
		if errors.Is(err, userstore.ErrNotFound) {
			apiutil.Error(w, h.Log, apierr.Validation("assignee not found"))
			return
		}
		if err != nil {
			apiutil.Error(w, h.Log, err)
			return
		}
		if u.Role != models.RoleAdmin {
			apiutil.Error(w, h.Log, apierr.Validation("assignee must be an admin"))
			return
		}
		target = &oid
	}

	rep, err := h.Reports.Assign(r.Context(), id, target)
	if errors.Is(err, reportstore.ErrNotFound) {
		apiutil.Error(w, h.Log, apierr.NotFound("report not found"))
		return
	}
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.OK(w, "report assigned", map[string]any{
		"report": h.reportPayload(rep, adminID, true),
	})
}

// UploadImages handles POST /api/reports/{id}/images: multipart photos,
// stored under random names so uploads can never collide or traverse.
func (h *Handler) UploadImages(w http.ResponseWriter, r *http.Request) {
	role, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, h.Log, apierr.Unauthorized("authentication required"))
		return
	}
	id, err := reportIDParam(r)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}

	rep, err := h.Reports.GetByID(r.Context(), id)
	if errors.Is(err, reportstore.ErrNotFound) {
		apiutil.Error(w, h.Log, apierr.NotFound("report not found"))
		return
	}
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	if rep.Reporter != userID && role != models.RoleAdmin {
		apiutil.Error(w, h.Log, apierr.Forbidden("not allowed to modify this report"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		apiutil.Error(w, h.Log, apierr.Validation("invalid multipart form"))
		return
	}
	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		apiutil.Error(w, h.Log, apierr.Validation("no images provided"))
		return
	}
	if len(rep.Images)+len(files) > maxImages {
		apiutil.Error(w, h.Log, apierr.Validation("too many images"))
		return
	}

	images := make([]models.Image, 0, len(files))
	for _, fh := range files {
		img, err := h.saveUpload(fh)
		if err != nil {
			apiutil.Error(w, h.Log, err)
			return
		}
		images = append(images, img)
	}

	updated, err := h.Reports.AddImages(r.Context(), id, images)
	if err != nil {
		apiutil.Error(w, h.Log, err)
		return
	}
	apiutil.OK(w, "images uploaded", map[string]any{
		"report": h.reportPayload(updated, userID, role == models.RoleAdmin),
	})
}

var allowedImageExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

func (h *Handler) saveUpload(fh *multipart.FileHeader) (models.Image, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedImageExt[ext] {
		return models.Image{}, apierr.Validation("unsupported image type")
	}

	src, err := fh.Open()
	if err != nil {
		return models.Image{}, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := uuid.NewString() + ext
	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		return models.Image{}, fmt.Errorf("upload dir: %w", err)
	}
	dst, err := os.Create(filepath.Join(h.UploadDir, name))
	if err != nil {
		return models.Image{}, fmt.Errorf("create upload: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return models.Image{}, fmt.Errorf("write upload: %w", err)
	}
	return models.Image{
		URL:        h.UploadURL + "/" + name,
		Filename:   name,
		UploadedAt: time.Now().UTC(),
	}, nil
}

func viewer(r *http.Request) (primitive.ObjectID, bool) {
	role, _, userID, ok := authz.UserCtx(r)
	if !ok {
		return primitive.NilObjectID, false
	}
	return userID, role == models.RoleAdmin
}
