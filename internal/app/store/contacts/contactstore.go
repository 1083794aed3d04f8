// Package contactstore persists public contact-form submissions and the
// admin triage state around them.
package contactstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/civicworks/civicconnect/internal/app/system/normalize"
	"github.com/civicworks/civicconnect/internal/domain/models"
)

// ErrNotFound is returned when no submission matches.
var ErrNotFound = errors.New("contact submission not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("contacts")}
}

// NewContact carries the submitter's fields for Create.
type NewContact struct {
	Name     string
	Email    string
	Subject  string
	Message  string
	Category string
}

// Create inserts a submission with status new.
func (s *Store) Create(ctx context.Context, nc NewContact) (*models.Contact, error) {
	if nc.Category == "" {
		nc.Category = models.ContactCategoryGeneral
	}

	now := time.Now().UTC()
	c := models.Contact{
		Name:      nc.Name,
		Email:     normalize.Email(nc.Email),
		Subject:   nc.Subject,
		Message:   nc.Message,
		Category:  nc.Category,
		Status:    models.ContactStatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res, err := s.c.InsertOne(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("insert contact: %w", err)
	}
	c.ID = res.InsertedID.(primitive.ObjectID)
	return &c, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Contact, error) {
	var c models.Contact
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListFilter narrows List. Nil IsRead means both.
type ListFilter struct {
	Status   string
	Category string
	IsRead   *bool
}

// List returns submissions newest first plus the filtered total.
func (s *Store) List(ctx context.Context, f ListFilter, skip, limit int64) ([]models.Contact, int64, error) {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.IsRead != nil {
		q["is_read"] = *f.IsRead
	}

	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var out []models.Contact
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// MarkRead stamps read_at once; marking an already-read submission is a
// no-op.
func (s *Store) MarkRead(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "read_at": now, "updated_at": now}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		n, err := s.c.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
	}
	return nil
}

// UpdateStatus moves a submission through the triage states.
func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Contact, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var c models.Contact
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}},
		opts).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Respond embeds the admin's answer and moves the submission to
// responded.
func (s *Store) Respond(ctx context.Context, id, adminID primitive.ObjectID, content string) (*models.Contact, error) {
	now := time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var c models.Contact
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"response": models.ContactResponse{
				Content:     content,
				RespondedBy: adminID,
				RespondedAt: now,
			},
			"status":     models.ContactStatusResponded,
			"updated_at": now,
		}},
		opts).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Delete removes a submission permanently.
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

// Stats summarizes the collection for the admin dashboard.
type Stats struct {
	Total      int64 `bson:"total" json:"total"`
	New        int64 `bson:"new" json:"new"`
	InProgress int64 `bson:"in_progress" json:"in_progress"`
	Responded  int64 `bson:"responded" json:"responded"`
	Closed     int64 `bson:"closed" json:"closed"`
	Unread     int64 `bson:"unread" json:"unread"`
}

func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	statusCount := func(status string) bson.M {
		return bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$status", status}}, 1, 0}}}
	}
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":         nil,
			"total":       bson.M{"$sum": 1},
			"new":         statusCount(models.ContactStatusNew),
			"in_progress": statusCount(models.ContactStatusInProgress),
			"responded":   statusCount(models.ContactStatusResponded),
			"closed":      statusCount(models.ContactStatusClosed),
			"unread":      bson.M{"$sum": bson.M{"$cond": bson.A{"$is_read", 0, 1}}},
		}}},
	})
	if err != nil {
		return nil, fmt.Errorf("contact stats: %w", err)
	}
	defer cur.Close(ctx)

	var rows []Stats
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &Stats{}, nil
	}
	return &rows[0], nil
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "is_read", Value: 1}}},
	})
	return err
}
