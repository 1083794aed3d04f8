// Package reportstore owns the report aggregate: creation with sequential
// public ids, filtered listing, the status machine, the embedded comment
// log, and the atomic vote toggle.
package reportstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	counterstore "github.com/civicworks/civicconnect/internal/app/store/counters"
	"github.com/civicworks/civicconnect/internal/domain/models"
)

var (
	// ErrNotFound is returned when no report matches.
	ErrNotFound = errors.New("report not found")
	// ErrInvalidCoordinates is returned when a location fails validation.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	// ErrVoteConflict is returned when a vote toggle loses every retry.
	ErrVoteConflict = errors.New("vote conflicted, retry")
)

type Store struct {
	c        *mongo.Collection
	counters *counterstore.Store
}

func New(db *mongo.Database, counters *counterstore.Store) *Store {
	return &Store{c: db.Collection("reports"), counters: counters}
}

// ValidateCoordinates checks a GeoJSON [longitude, latitude] pair.
func ValidateCoordinates(coords []float64) error {
	if len(coords) != 2 {
		return ErrInvalidCoordinates
	}
	lng, lat := coords[0], coords[1]
	if math.IsNaN(lng) || math.IsInf(lng, 0) || math.IsNaN(lat) || math.IsInf(lat, 0) {
		return ErrInvalidCoordinates
	}
	if lng < -180 || lng > 180 || lat < -90 || lat > 90 {
		return ErrInvalidCoordinates
	}
	return nil
}

// NewReport carries the caller-supplied fields for Create.
type NewReport struct {
	Title       string
	Description string
	Category    string
	Location    models.GeoPoint
	Reporter    primitive.ObjectID
	Department  string
	Tags        []string
	IsPublic    bool
	IsAnonymous bool
}

// Create validates the location, allocates the next public id, and
// inserts the report in the pending state.
func (s *Store) Create(ctx context.Context, nr NewReport) (*models.Report, error) {
	if err := ValidateCoordinates(nr.Location.Coordinates); err != nil {
		return nil, err
	}

	seq, err := s.counters.Next(ctx, counterstore.ReportSequence)
	if err != nil {
		return nil, fmt.Errorf("allocate report id: %w", err)
	}

	now := time.Now().UTC()
	r := models.Report{
		ReportID:    counterstore.FormatReportID(seq),
		Title:       nr.Title,
		Description: nr.Description,
		Category:    nr.Category,
		Status:      models.StatusPending,
		Priority:    models.PriorityMedium,
		Location: models.GeoPoint{
			Type:        "Point",
			Coordinates: nr.Location.Coordinates,
			Address:     nr.Location.Address,
		},
		Reporter:    nr.Reporter,
		Department:  nr.Department,
		Votes:       models.Votes{Count: 0, Voters: []primitive.ObjectID{}},
		Comments:    []models.Comment{},
		Tags:        nr.Tags,
		IsPublic:    nr.IsPublic,
		IsAnonymous: nr.IsAnonymous,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if r.Department == "" {
		r.Department = models.DeptOther
	}

	res, err := s.c.InsertOne(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}
	r.ID = res.InsertedID.(primitive.ObjectID)
	return &r, nil
}

// GetByID loads a report by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	var r models.Report
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetByReportID loads a report by its public "RC-0001" id.
func (s *Store) GetByReportID(ctx context.Context, reportID string) (*models.Report, error) {
	var r models.Report
	err := s.c.FindOne(ctx, bson.M{"report_id": reportID}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListFilter narrows List results. Zero values mean "no constraint".
type ListFilter struct {
	Category   string
	Status     string
	Priority   string
	Department string
	Reporter   primitive.ObjectID // non-zero restricts to one author
	PublicOnly bool
	Search     string // matches title, description, tags

	// Geo query: when NearRadiusKM > 0, results are limited to reports
	// within that distance of [NearLng, NearLat].
	NearLng      float64
	NearLat      float64
	NearRadiusKM float64

	SortBy string // created_at | votes | priority; default created_at desc
}

func (f ListFilter) query() bson.M {
	q := bson.M{}
	if f.PublicOnly {
		q["is_public"] = true
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Priority != "" {
		q["priority"] = f.Priority
	}
	if f.Department != "" {
		q["department"] = f.Department
	}
	if !f.Reporter.IsZero() {
		q["reporter"] = f.Reporter
	}
	if f.Search != "" {
		pat := regexp.QuoteMeta(f.Search)
		q["$or"] = []bson.M{
			{"title": bson.M{"$regex": pat, "$options": "i"}},
			{"description": bson.M{"$regex": pat, "$options": "i"}},
			{"tags": bson.M{"$regex": pat, "$options": "i"}},
		}
	}
	if f.NearRadiusKM > 0 {
		q["location"] = bson.M{
			"$nearSphere": bson.M{
				"$geometry": bson.M{
					"type":        "Point",
					"coordinates": []float64{f.NearLng, f.NearLat},
				},
				"$maxDistance": f.NearRadiusKM * 1000,
			},
		}
	}
	return q
}

func (f ListFilter) sort() bson.D {
	switch f.SortBy {
	case "votes":
		return bson.D{{Key: "votes.count", Value: -1}, {Key: "created_at", Value: -1}}
	case "priority":
		return bson.D{{Key: "priority", Value: -1}, {Key: "created_at", Value: -1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}}
	}
}

// List returns reports matching the filter plus the total match count.
// $nearSphere cannot be combined with countDocuments, so geo queries
// report the page length as the total.
func (s *Store) List(ctx context.Context, f ListFilter, skip, limit int64) ([]models.Report, int64, error) {
	q := f.query()

	var total int64
	var err error
	geo := f.NearRadiusKM > 0
	if !geo {
		total, err = s.c.CountDocuments(ctx, q)
		if err != nil {
			return nil, 0, err
		}
	}

	opts := options.Find().SetSkip(skip).SetLimit(limit)
	if !geo {
		// $nearSphere already orders by distance.
		opts.SetSort(f.sort())
	}
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var out []models.Report
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	if geo {
		total = int64(len(out))
	}
	return out, total, nil
}

// Update applies a prepared $set document. Callers gate which fields land
// here through the report policy.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Report, error) {
	if len(set) == 0 {
		return s.GetByID(ctx, id)
	}
	set["updated_at"] = time.Now().UTC()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var r models.Report
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Delete removes a report.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// VoteResult is the outcome of a toggle.
type VoteResult struct {
	Count    int  `json:"count"`
	HasVoted bool `json:"has_voted"`
}

// ToggleVote adds the user's vote if absent, removes it if present. Each
// direction is a single conditional update pairing the voter-set change
// with the matching counter increment, so count always equals the voter
// set size. Under a race the losing direction matches nothing and the
// toggle retries.
func (s *Store) ToggleVote(ctx context.Context, id, userID primitive.ObjectID) (*VoteResult, error) {
	for attempt := 0; attempt < 3; attempt++ {
		// Try to remove an existing vote.
		res, err := s.c.UpdateOne(ctx,
			bson.M{"_id": id, "votes.voters": userID},
			bson.M{
				"$pull": bson.M{"votes.voters": userID},
				"$inc":  bson.M{"votes.count": -1},
				"$set":  bson.M{"updated_at": time.Now().UTC()},
			},
		)
		if err != nil {
			return nil, err
		}
		if res.ModifiedCount == 1 {
			return s.voteState(ctx, id, userID)
		}

		// No vote present: try to add one.
		res, err = s.c.UpdateOne(ctx,
			bson.M{"_id": id, "votes.voters": bson.M{"$ne": userID}},
			bson.M{
				"$addToSet": bson.M{"votes.voters": userID},
				"$inc":      bson.M{"votes.count": 1},
				"$set":      bson.M{"updated_at": time.Now().UTC()},
			},
		)
		if err != nil {
			return nil, err
		}
		if res.ModifiedCount == 1 {
			return s.voteState(ctx, id, userID)
		}
		if res.MatchedCount == 0 {
			// Neither arm matched: either the report is gone or a
			// concurrent toggle moved the voter set between our updates.
			if _, err := s.GetByID(ctx, id); err != nil {
				return nil, err
			}
		}
	}
	return nil, ErrVoteConflict
}

func (s *Store) voteState(ctx context.Context, id, userID primitive.ObjectID) (*VoteResult, error) {
	r, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &VoteResult{Count: r.Votes.Count, HasVoted: r.HasVoted(userID)}, nil
}

// AddComment appends to the comment log. IsAdmin records the author's
// role at write time.
func (s *Store) AddComment(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID, content string, isAdmin bool) (*models.Comment, error) {
	c := models.Comment{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Content:   content,
		IsAdmin:   isAdmin,
		CreatedAt: time.Now().UTC(),
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"comments": c},
		"$set":  bson.M{"updated_at": c.CreatedAt},
	})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return &c, nil
}

// UpdateStatus sets the status, appends the system comment recording the
// change, and stamps actual_resolution on the first transition into
// resolved or closed. The stamp is conditional on the field being unset,
// so re-entering a terminal status never moves it.
func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string, adminID primitive.ObjectID) (*models.Report, error) {
	now := time.Now().UTC()
	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		UserID:    adminID,
		Content:   fmt.Sprintf("Status updated to: %s", status),
		IsAdmin:   true,
		CreatedAt: now,
	}

	update := bson.M{
		"$set":  bson.M{"status": status, "updated_at": now},
		"$push": bson.M{"comments": comment},
	}
	if status == models.StatusResolved || status == models.StatusClosed {
		// Stamp only if unset; a second update would clobber the filter
		// match, so resolve-again goes through the plain path below.
		res, err := s.c.UpdateOne(ctx,
			bson.M{"_id": id, "actual_resolution": bson.M{"$exists": false}},
			bson.M{
				"$set": bson.M{
					"status":            status,
					"actual_resolution": now,
					"updated_at":        now,
				},
				"$push": bson.M{"comments": comment},
			},
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 1 {
			return s.GetByID(ctx, id)
		}
		// Already stamped once, or report missing: fall through.
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var r models.Report
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Assign sets or clears the assignee. Role checking happens in the
// handler, which has the user store.
func (s *Store) Assign(ctx context.Context, id primitive.ObjectID, assignee *primitive.ObjectID) (*models.Report, error) {
	update := bson.M{"$set": bson.M{"updated_at": time.Now().UTC()}}
	if assignee == nil {
		update["$unset"] = bson.M{"assigned_to": ""}
	} else {
		update["$set"].(bson.M)["assigned_to"] = *assignee
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var r models.Report
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// AddImages appends uploaded images to the report.
func (s *Store) AddImages(ctx context.Context, id primitive.ObjectID, images []models.Image) (*models.Report, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var r models.Report
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"images": bson.M{"$each": images}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
		opts,
	).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Recent returns the newest reports, for the admin dashboard.
func (s *Store) Recent(ctx context.Context, limit int64) ([]models.Report, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1}).SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Report
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TopVoted returns the most-voted reports.
func (s *Store) TopVoted(ctx context.Context, limit int64) ([]models.Report, error) {
	opts := options.Find().SetSort(bson.M{"votes.count": -1}).SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Report
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountSince counts reports created at or after the cutoff.
func (s *Store) CountSince(ctx context.Context, since time.Time) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"created_at": bson.M{"$gte": since}})
}

// Count counts all reports.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

// EnsureIndexes creates the geo index, the unique public id index, and
// the common filter indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "report_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "reporter", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "votes.count", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("ensure reports indexes: %w", err)
	}
	return nil
}
