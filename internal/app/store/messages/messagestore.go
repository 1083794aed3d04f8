package messagestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/civicworks/civicconnect/internal/domain/models"
)

// ErrNotFound is returned when no message matches.
var ErrNotFound = errors.New("message not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("messages")}
}

// NewMessage carries the caller-supplied fields for Send.
type NewMessage struct {
	Sender        primitive.ObjectID
	Recipient     primitive.ObjectID
	Subject       string
	Content       string
	RelatedReport *primitive.ObjectID
	ReplyTo       *primitive.ObjectID
	Priority      string
	MessageType   string
}

// Send inserts a message. Existence of the recipient and related report
// is the handler's responsibility.
func (s *Store) Send(ctx context.Context, nm NewMessage) (*models.Message, error) {
	if nm.Priority == "" {
		nm.Priority = models.MessagePriorityNormal
	}
	if nm.MessageType == "" {
		nm.MessageType = models.MessageTypeGeneral
	}

	now := time.Now().UTC()
	m := models.Message{
		Sender:        nm.Sender,
		Recipient:     nm.Recipient,
		Subject:       nm.Subject,
		Content:       nm.Content,
		RelatedReport: nm.RelatedReport,
		ReplyTo:       nm.ReplyTo,
		Priority:      nm.Priority,
		MessageType:   nm.MessageType,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	res, err := s.c.InsertOne(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	m.ID = res.InsertedID.(primitive.ObjectID)
	return &m, nil
}

// GetByID loads a message regardless of flags; visibility checks belong
// to the caller.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	var m models.Message
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListFilter narrows ListForUser and ListAll.
type ListFilter struct {
	IsRead      *bool
	MessageType string
	Priority    string
}

func (f ListFilter) apply(q bson.M) bson.M {
	if f.IsRead != nil {
		q["is_read"] = *f.IsRead
	}
	if f.MessageType != "" {
		q["message_type"] = f.MessageType
	}
	if f.Priority != "" {
		q["priority"] = f.Priority
	}
	return q
}

// ListForUser returns non-deleted messages the user sent or received,
// newest first, with the total count.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID, f ListFilter, skip, limit int64) ([]models.Message, int64, error) {
	q := f.apply(bson.M{
		"$or":        []bson.M{{"sender": userID}, {"recipient": userID}},
		"is_deleted": false,
	})
	return s.list(ctx, q, skip, limit)
}

// ListAll returns every non-deleted message, for the admin surface.
func (s *Store) ListAll(ctx context.Context, f ListFilter, skip, limit int64) ([]models.Message, int64, error) {
	q := f.apply(bson.M{"is_deleted": false})
	return s.list(ctx, q, skip, limit)
}

func (s *Store) list(ctx context.Context, q bson.M, skip, limit int64) ([]models.Message, int64, error) {
	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(skip).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var out []models.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// UnreadCount counts unread, non-deleted messages addressed to the user.
func (s *Store) UnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"recipient":  userID,
		"is_read":    false,
		"is_deleted": false,
	})
}

// MarkRead flags the message read and stamps read_at once.
func (s *Store) MarkRead(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "read_at": now, "updated_at": now}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Already read, or missing. Distinguish for the caller.
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

// Archive flags the message archived.
func (s *Store) Archive(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"is_archived": true, "archived_at": now, "updated_at": now},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete hides the message from all listings.
func (s *Store) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"is_deleted": true, "deleted_at": now, "updated_at": now},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountSince counts messages created at or after the cutoff, deleted
// included; analytics wants raw volume.
func (s *Store) CountSince(ctx context.Context, since, until time.Time) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"created_at": bson.M{"$gte": since, "$lt": until},
	})
}

// EnsureIndexes creates the participant listing indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "is_read", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "sender", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("ensure messages indexes: %w", err)
	}
	return nil
}
