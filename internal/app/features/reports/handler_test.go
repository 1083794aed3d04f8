package reports

import (
	"net/http/httptest"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	counterstore "github.com/civicworks/civicconnect/internal/app/store/counters"
	reportstore "github.com/civicworks/civicconnect/internal/app/store/reports"
	userstore "github.com/civicworks/civicconnect/internal/app/store/users"
	"github.com/civicworks/civicconnect/internal/app/system/mailer"
	"github.com/civicworks/civicconnect/internal/app/system/ratelimit"
	"github.com/civicworks/civicconnect/internal/domain/models"
	"github.com/civicworks/civicconnect/internal/testutil"
)

func newHandler(t *testing.T) (*Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := NewHandler(
		reportstore.New(db, counterstore.New(db)),
		userstore.New(db),
		&mailer.LogNotifier{Log: zap.NewNop()},
		ratelimit.New(100, time.Hour),
		t.TempDir(),
		"/uploads",
		zap.NewNop(),
	)
	return h, testutil.NewFixtures(t, db)
}

func validCreateBody() map[string]any {
	return map[string]any{
		"title":       "Pothole on Main St",
		"description": "Deep pothole near the crosswalk",
		"category":    models.CategoryPothole,
		"location": map[string]any{
			"coordinates": []float64{-122.4194, 37.7749},
			"address":     "Main St & 1st Ave",
		},
	}
}

func TestCreate(t *testing.T) {
	h, fx := newHandler(t)
	ctx := testutil.TestContext(t)
	citizen := fx.CreateCitizen(ctx, "Ada", "ada@example.com")

	rec := httptest.NewRecorder()
	req := testutil.NewAuthenticatedRequest(t, "POST", "/api/reports", validCreateBody(), testutil.UserFor(&citizen))
	h.Create(rec, req)
	testutil.RequireStatus(t, rec, 201)

	rep, err := h.Reports.GetByReportID(ctx, "RC-0001")
	if err != nil {
		t.Fatalf("report not stored: %v", err)
	}
	if rep.Status != models.StatusPending || rep.Reporter != citizen.ID {
		t.Errorf("stored report: %+v", rep)
	}

	u, err := h.Users.GetByID(ctx, citizen.ID)
	if err != nil {
		t.Fatal(err)
	}
	if u.ReportsCount != 1 {
		t.Errorf("reports_count = %d, want 1", u.ReportsCount)
	}
}

func TestCreate_BadCoordinates(t *testing.T) {
	h, fx := newHandler(t)
	ctx := testutil.TestContext(t)
	citizen := fx.CreateCitizen(ctx, "Ada", "ada@example.com")

	body := validCreateBody()
	body["location"] = map[string]any{"coordinates": []float64{200, 95}}

	rec := httptest.NewRecorder()
	h.Create(rec, testutil.NewAuthenticatedRequest(t, "POST", "/api/reports", body, testutil.UserFor(&citizen)))
	testutil.RequireStatus(t, rec, 400)
}

func TestVoteToggleScenario(t *testing.T) {
	h, fx := newHandler(t)
	ctx := testutil.TestContext(t)
	citizen := fx.CreateCitizen(ctx, "Ada", "ada@example.com")
	voter := fx.CreateCitizen(ctx, "Bob", "bob@example.com")
	rep := fx.CreateReport(ctx, "RC-0009", "Pothole", citizen.ID)

	vote := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := testutil.NewAuthenticatedRequest(t, "POST", "/api/reports/x/vote", nil, testutil.UserFor(&voter))
		req = testutil.WithChiURLParam(req, "id", rep.ID.Hex())
		h.Vote(rec, req)
		return rec
	}

	rec := vote()
	testutil.RequireStatus(t, rec, 200)
	rec = vote()
	testutil.RequireStatus(t, rec, 200)

	got, err := h.Reports.GetByID(ctx, rep.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Votes.Count != 0 || len(got.Votes.Voters) != 0 {
		t.Errorf("after toggle pair: %+v", got.Votes)
	}
}

func TestUpdate_PolicyGates(t *testing.T) {
	h, fx := newHandler(t)
	ctx := testutil.TestContext(t)
	citizen := fx.CreateCitizen(ctx, "Ada", "ada@example.com")
	other := fx.CreateCitizen(ctx, "Eve", "eve@example.com")
	admin := fx.CreateAdmin(ctx, "Grace", "grace@example.com")
	rep := fx.CreateReport(ctx, "RC-0010", "Pothole", citizen.ID)

	send := func(u models.User, body map[string]any) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := testutil.NewAuthenticatedRequest(t, "PUT", "/api/reports/x", body, testutil.UserFor(&u))
		req = testutil.WithChiURLParam(req, "id", rep.ID.Hex())
		h.Update(rec, req)
		return rec
	}

	// Owner edits a descriptive field.
	testutil.RequireStatus(t, send(citizen, map[string]any{"title": "Bigger pothole"}), 200)

	// Owner cannot touch triage fields, tags included.
	testutil.RequireStatus(t, send(citizen, map[string]any{"priority": models.PriorityHigh}), 403)
	testutil.RequireStatus(t, send(citizen, map[string]any{"tags": []string{"mine"}}), 403)

	// Non-owner citizen cannot edit at all.
	testutil.RequireStatus(t, send(other, map[string]any{"title": "hijack"}), 403)

	// Admin can triage.
	testutil.RequireStatus(t, send(admin, map[string]any{"priority": models.PriorityHigh}), 200)
	testutil.RequireStatus(t, send(admin, map[string]any{"tags": []string{"roadworks"}}), 200)

	got, err := h.Reports.GetByID(ctx, rep.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Bigger pothole" || got.Priority != models.PriorityHigh {
		t.Errorf("final state: title=%q priority=%q", got.Title, got.Priority)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "roadworks" {
		t.Errorf("tags = %v, want the admin's rewrite only", got.Tags)
	}
}

func TestUpdateStatus_AppendsSystemComment(t *testing.T) {
	h, fx := newHandler(t)
	ctx := testutil.TestContext(t)
	citizen := fx.CreateCitizen(ctx, "Ada", "ada@example.com")
	admin := fx.CreateAdmin(ctx, "Grace", "grace@example.com")
	rep := fx.CreateReport(ctx, "RC-0011", "Pothole", citizen.ID)

	rec := httptest.NewRecorder()
	req := testutil.NewAuthenticatedRequest(t, "PUT", "/api/reports/x/status",
		map[string]string{"status": models.StatusResolved}, testutil.UserFor(&admin))
	req = testutil.WithChiURLParam(req, "id", rep.ID.Hex())
	h.UpdateStatus(rec, req)
	testutil.RequireStatus(t, rec, 200)

	got, err := h.Reports.GetByID(ctx, rep.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusResolved || got.ActualResolution == nil {
		t.Errorf("status state: %+v", got)
	}
	if len(got.Comments) != 1 || !got.Comments[0].IsAdmin {
		t.Fatalf("system comment: %+v", got.Comments)
	}
	if got.Comments[0].Content != "Status updated to: resolved" {
		t.Errorf("comment content: %q", got.Comments[0].Content)
	}
}

func TestAssign_RequiresAdminTarget(t *testing.T) {
	h, fx := newHandler(t)
	ctx := testutil.TestContext(t)
	citizen := fx.CreateCitizen(ctx, "Ada", "ada@example.com")
	admin := fx.CreateAdmin(ctx, "Grace", "grace@example.com")
	rep := fx.CreateReport(ctx, "RC-0012", "Pothole", citizen.ID)

	assign := func(target primitive.ObjectID) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := testutil.NewAuthenticatedRequest(t, "PUT", "/api/reports/x/assign",
			map[string]string{"assigned_to": target.Hex()}, testutil.UserFor(&admin))
		req = testutil.WithChiURLParam(req, "id", rep.ID.Hex())
		h.Assign(rec, req)
		return rec
	}

	// Citizen target is rejected as a validation error.
	testutil.RequireStatus(t, assign(citizen.ID), 400)

	// Admin target works.
	testutil.RequireStatus(t, assign(admin.ID), 200)
}

func TestGet_PrivateVisibility(t *testing.T) {
	h, fx := newHandler(t)
	ctx := testutil.TestContext(t)
	citizen := fx.CreateCitizen(ctx, "Ada", "ada@example.com")
	other := fx.CreateCitizen(ctx, "Eve", "eve@example.com")
	admin := fx.CreateAdmin(ctx, "Grace", "grace@example.com")

	rep := fx.CreateReport(ctx, "RC-0013", "Private issue", citizen.ID)
	if _, err := h.Reports.Update(ctx, rep.ID, map[string]any{"is_public": false}); err != nil {
		t.Fatal(err)
	}

	get := func(u models.User) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := testutil.NewAuthenticatedRequest(t, "GET", "/api/reports/x", nil, testutil.UserFor(&u))
		req = testutil.WithChiURLParam(req, "id", rep.ID.Hex())
		h.Get(rec, req)
		return rec
	}

	testutil.RequireStatus(t, get(citizen), 200)
	testutil.RequireStatus(t, get(admin), 200)
	testutil.RequireStatus(t, get(other), 404)
}

func TestDelete_OwnerDecrementsCounter(t *testing.T) {
	h, fx := newHandler(t)
	ctx := testutil.TestContext(t)
	citizen := fx.CreateCitizen(ctx, "Ada", "ada@example.com")

	rec := httptest.NewRecorder()
	h.Create(rec, testutil.NewAuthenticatedRequest(t, "POST", "/api/reports", validCreateBody(), testutil.UserFor(&citizen)))
	testutil.RequireStatus(t, rec, 201)

	rep, err := h.Reports.GetByReportID(ctx, "RC-0001")
	if err != nil {
		t.Fatal(err)
	}

	rec = httptest.NewRecorder()
	req := testutil.NewAuthenticatedRequest(t, "DELETE", "/api/reports/x", nil, testutil.UserFor(&citizen))
	req = testutil.WithChiURLParam(req, "id", rep.ID.Hex())
	h.Delete(rec, req)
	testutil.RequireStatus(t, rec, 200)

	u, err := h.Users.GetByID(ctx, citizen.ID)
	if err != nil {
		t.Fatal(err)
	}
	if u.ReportsCount != 0 {
		t.Errorf("reports_count = %d, want 0", u.ReportsCount)
	}
}
