package reportstore

import (
	"errors"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	counterstore "github.com/civicworks/civicconnect/internal/app/store/counters"
	"github.com/civicworks/civicconnect/internal/domain/models"
	"github.com/civicworks/civicconnect/internal/testutil"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return New(db, counterstore.New(db))
}

func makeReport(t *testing.T, s *Store, reporter primitive.ObjectID) *models.Report {
	t.Helper()
	ctx := testutil.TestContext(t)
	r, err := s.Create(ctx, NewReport{
		Title:       "Pothole on Main St",
		Description: "Deep pothole near the crosswalk",
		Category:    models.CategoryPothole,
		Location: models.GeoPoint{
			Coordinates: []float64{-122.4194, 37.7749},
			Address:     "Main St & 1st Ave",
		},
		Reporter: reporter,
		IsPublic: true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return r
}

func TestCreate_SequentialIDs(t *testing.T) {
	s := newStore(t)
	ctx := testutil.TestContext(t)
	reporter := primitive.NewObjectID()

	first := makeReport(t, s, reporter)
	second := makeReport(t, s, reporter)

	if first.ReportID != "RC-0001" {
		t.Errorf("first id = %q, want RC-0001", first.ReportID)
	}
	if second.ReportID != "RC-0002" {
		t.Errorf("second id = %q, want RC-0002", second.ReportID)
	}
	if first.Status != models.StatusPending {
		t.Errorf("initial status = %q", first.Status)
	}

	got, err := s.GetByReportID(ctx, "RC-0001")
	if err != nil || got.ID != first.ID {
		t.Errorf("GetByReportID: %v", err)
	}
}

func TestCreate_RejectsBadCoordinates(t *testing.T) {
	s := newStore(t)
	ctx := testutil.TestContext(t)

	cases := [][]float64{
		nil,
		{1.0},
		{1.0, 2.0, 3.0},
		{-181, 0},
		{181, 0},
		{0, -91},
		{0, 91},
	}
	for _, coords := range cases {
		_, err := s.Create(ctx, NewReport{
			Title:    "bad",
			Category: models.CategoryOther,
			Location: models.GeoPoint{Coordinates: coords},
			Reporter: primitive.NewObjectID(),
		})
		if !errors.Is(err, ErrInvalidCoordinates) {
			t.Errorf("coords %v: err = %v, want ErrInvalidCoordinates", coords, err)
		}
	}
}

func TestToggleVote(t *testing.T) {
	s := newStore(t)
	ctx := testutil.TestContext(t)
	voter := primitive.NewObjectID()
	r := makeReport(t, s, primitive.NewObjectID())

	res, err := s.ToggleVote(ctx, r.ID, voter)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if res.Count != 1 || !res.HasVoted {
		t.Errorf("after vote: %+v", res)
	}

	res, err = s.ToggleVote(ctx, r.ID, voter)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if res.Count != 0 || res.HasVoted {
		t.Errorf("after unvote: %+v", res)
	}

	got, err := s.GetByID(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Votes.Count != len(got.Votes.Voters) {
		t.Errorf("count %d != voters %d", got.Votes.Count, len(got.Votes.Voters))
	}
}

func TestUpdateStatus_StampsResolutionOnce(t *testing.T) {
	s := newStore(t)
	ctx := testutil.TestContext(t)
	admin := primitive.NewObjectID()
	r := makeReport(t, s, primitive.NewObjectID())

	resolved, err := s.UpdateStatus(ctx, r.ID, models.StatusResolved, admin)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if resolved.ActualResolution == nil {
		t.Fatal("actual_resolution not stamped")
	}
	stamp := *resolved.ActualResolution

	// System comment recorded the transition and carries the admin flag.
	last := resolved.Comments[len(resolved.Comments)-1]
	if !last.IsAdmin || !strings.Contains(last.Content, "resolved") {
		t.Errorf("system comment: %+v", last)
	}

	// Reopen then resolve again: the original stamp survives.
	if _, err := s.UpdateStatus(ctx, r.ID, models.StatusInProgress, admin); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	again, err := s.UpdateStatus(ctx, r.ID, models.StatusResolved, admin)
	if err != nil {
		t.Fatalf("re-resolve: %v", err)
	}
	if again.ActualResolution == nil || !again.ActualResolution.Equal(stamp) {
		t.Errorf("stamp moved: %v -> %v", stamp, again.ActualResolution)
	}
	if len(again.Comments) != 3 {
		t.Errorf("comments = %d, want 3 status entries", len(again.Comments))
	}
}

func TestAddComment(t *testing.T) {
	s := newStore(t)
	ctx := testutil.TestContext(t)
	author := primitive.NewObjectID()
	r := makeReport(t, s, primitive.NewObjectID())

	c, err := s.AddComment(ctx, r.ID, author, "Still broken as of today", false)
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if c.IsAdmin {
		t.Error("citizen comment flagged admin")
	}

	got, err := s.GetByID(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Comments) != 1 || got.Comments[0].Content != "Still broken as of today" {
		t.Errorf("comments: %+v", got.Comments)
	}
}

func TestList_Filters(t *testing.T) {
	s := newStore(t)
	ctx := testutil.TestContext(t)
	reporter := primitive.NewObjectID()

	r1 := makeReport(t, s, reporter)
	if _, err := s.Update(ctx, r1.ID, bson.M{"category": models.CategoryTrash}); err != nil {
		t.Fatal(err)
	}
	makeReport(t, s, primitive.NewObjectID())

	byCat, total, err := s.List(ctx, ListFilter{Category: models.CategoryTrash, PublicOnly: true}, 0, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(byCat) != 1 || byCat[0].ID != r1.ID {
		t.Errorf("category filter: total=%d", total)
	}

	mine, total, err := s.List(ctx, ListFilter{Reporter: reporter}, 0, 10)
	if err != nil {
		t.Fatalf("List mine: %v", err)
	}
	if total != 1 || len(mine) != 1 {
		t.Errorf("reporter filter: total=%d", total)
	}

	found, _, err := s.List(ctx, ListFilter{Search: "crosswalk"}, 0, 10)
	if err != nil {
		t.Fatalf("List search: %v", err)
	}
	if len(found) != 2 {
		t.Errorf("search matched %d, want 2", len(found))
	}
}

func TestAssign(t *testing.T) {
	s := newStore(t)
	ctx := testutil.TestContext(t)
	r := makeReport(t, s, primitive.NewObjectID())
	admin := primitive.NewObjectID()

	got, err := s.Assign(ctx, r.ID, &admin)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if got.AssignedTo == nil || *got.AssignedTo != admin {
		t.Errorf("assigned_to = %v", got.AssignedTo)
	}

	got, err = s.Assign(ctx, r.ID, nil)
	if err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if got.AssignedTo != nil {
		t.Errorf("assigned_to not cleared: %v", got.AssignedTo)
	}
}

func TestDelete(t *testing.T) {
	s := newStore(t)
	ctx := testutil.TestContext(t)
	r := makeReport(t, s, primitive.NewObjectID())

	if err := s.Delete(ctx, r.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.GetByID(ctx, r.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID after delete = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, r.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}
