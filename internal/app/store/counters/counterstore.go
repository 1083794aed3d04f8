package counterstore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReportSequence is the counter document used for report ids.
const ReportSequence = "report_id"

// Store hands out monotonically increasing sequence numbers. Each named
// sequence is a single document incremented atomically, so concurrent
// callers can never receive the same value.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("counters")}
}

type counter struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

// Next returns the next value of the named sequence, creating it at 1 on
// first use.
func (s *Store) Next(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc counter
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("next %s: %w", name, err)
	}
	return doc.Seq, nil
}

// FormatReportID renders a sequence value as a public report id, e.g.
// "RC-0001". Values past 9999 widen naturally.
func FormatReportID(n int64) string {
	return fmt.Sprintf("RC-%04d", n)
}
