package analyticsstore

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	counterstore "github.com/civicworks/civicconnect/internal/app/store/counters"
	reportstore "github.com/civicworks/civicconnect/internal/app/store/reports"
	userstore "github.com/civicworks/civicconnect/internal/app/store/users"
	"github.com/civicworks/civicconnect/internal/domain/models"
	"github.com/civicworks/civicconnect/internal/testutil"
)

func TestDayWindow(t *testing.T) {
	// 20:42 at UTC-5 is 01:42 UTC the next day; the window follows UTC.
	in := time.Date(2025, 3, 15, 20, 42, 3, 0, time.FixedZone("x", -5*3600))
	start, end := DayWindow(in)
	if want := time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("start = %v, want %v", start, want)
	}
	if end.Sub(start) != 24*time.Hour {
		t.Errorf("window length = %v", end.Sub(start))
	}
}

func TestCalculateDaily_UpsertsSingleSnapshot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	s := New(db)
	if err := s.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}

	day := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if _, err := s.CalculateDaily(ctx, day); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := s.CalculateDaily(ctx, day); err != nil {
		t.Fatalf("second run: %v", err)
	}

	n, err := db.Collection("analytics").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("snapshots = %d, want 1", n)
	}
}

func TestCalculateDaily_Metrics(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	s := New(db)

	users := userstore.New(db)
	reports := reportstore.New(db, counterstore.New(db))

	citizen, err := users.Create(ctx, "Ada", "ada@example.com", "password1", models.RoleCitizen)
	if err != nil {
		t.Fatal(err)
	}
	admin, err := users.Create(ctx, "Grace", "grace@example.com", "password2", models.RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}

	loc := models.GeoPoint{Coordinates: []float64{-122.4, 37.7}}
	r1, err := reports.Create(ctx, reportstore.NewReport{
		Title: "one", Category: models.CategoryPothole, Location: loc,
		Reporter: citizen.ID, IsPublic: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reports.Create(ctx, reportstore.NewReport{
		Title: "two", Category: models.CategoryTrash, Location: loc,
		Reporter: citizen.ID, IsPublic: true,
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := reports.ToggleVote(ctx, r1.ID, primitive.NewObjectID()); err != nil {
		t.Fatal(err)
	}
	if _, err := reports.AddComment(ctx, r1.ID, citizen.ID, "me too", false); err != nil {
		t.Fatal(err)
	}
	if _, err := reports.UpdateStatus(ctx, r1.ID, models.StatusResolved, admin.ID); err != nil {
		t.Fatal(err)
	}

	snap, err := s.CalculateDaily(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("CalculateDaily: %v", err)
	}

	rm := snap.Metrics.Reports
	if rm.Total != 2 || rm.Resolved != 1 || rm.Pending != 1 {
		t.Errorf("report metrics: %+v", rm)
	}
	if rm.ByCategory[models.CategoryPothole] != 1 || rm.ByCategory[models.CategoryTrash] != 1 {
		t.Errorf("by_category: %+v", rm.ByCategory)
	}

	um := snap.Metrics.Users
	if um.Total != 2 || um.NewToday != 2 {
		t.Errorf("user metrics: %+v", um)
	}
	if um.ByRole[models.RoleCitizen] != 1 || um.ByRole[models.RoleAdmin] != 1 {
		t.Errorf("by_role: %+v", um.ByRole)
	}

	em := snap.Metrics.Engagement
	// Status update appends a system comment alongside the citizen one.
	if em.TotalVotes != 1 || em.TotalComments != 2 {
		t.Errorf("engagement: %+v", em)
	}

	res := snap.Metrics.Resolution
	if res.ResolutionRate != 50 {
		t.Errorf("resolution rate = %v, want 50", res.ResolutionRate)
	}
	if res.AverageHours < 0 || res.P95Hours != res.AverageHours*1.5 {
		t.Errorf("resolution hours: %+v", res)
	}
}

func TestGetRangeAndLatest(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	s := New(db)

	d1 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	if _, err := s.CalculateDaily(ctx, d1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CalculateDaily(ctx, d2); err != nil {
		t.Fatal(err)
	}

	rng, err := s.GetRange(ctx, d1, d2)
	if err != nil {
		t.Fatalf("GetRange: %v", err)
	}
	if len(rng) != 2 || !rng[0].Date.Before(rng[1].Date) {
		t.Errorf("range: %d snapshots", len(rng))
	}

	latest, err := s.Latest(ctx, 1)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(latest) != 1 || !latest[0].Date.Equal(d2) {
		t.Errorf("latest: %+v", latest)
	}
}
