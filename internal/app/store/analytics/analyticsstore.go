// Package analyticsstore computes and persists daily analytics snapshots.
// A snapshot is keyed (date, period); recomputing a day replaces the
// existing document instead of adding another.
package analyticsstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/civicworks/civicconnect/internal/domain/models"
)

// ErrNotFound is returned when no snapshot matches.
var ErrNotFound = errors.New("analytics snapshot not found")

type Store struct {
	snapshots *mongo.Collection
	reports   *mongo.Collection
	users     *mongo.Collection
	messages  *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		snapshots: db.Collection("analytics"),
		reports:   db.Collection("reports"),
		users:     db.Collection("users"),
		messages:  db.Collection("messages"),
	}
}

// DayWindow returns the UTC calendar day containing t as [start, end).
func DayWindow(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}

// CalculateDaily computes the snapshot for the UTC day containing date
// and upserts it. Safe to run repeatedly for the same day.
func (s *Store) CalculateDaily(ctx context.Context, date time.Time) (*models.AnalyticsSnapshot, error) {
	dayStart, dayEnd := DayWindow(date)

	reports, err := s.reportMetrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("report metrics: %w", err)
	}
	users, err := s.userMetrics(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("user metrics: %w", err)
	}
	engagement, err := s.engagementMetrics(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("engagement metrics: %w", err)
	}
	resolution, err := s.resolutionMetrics(ctx, reports.Total, reports.Resolved+reports.Closed)
	if err != nil {
		return nil, fmt.Errorf("resolution metrics: %w", err)
	}

	snap := models.AnalyticsSnapshot{
		Date:   dayStart,
		Period: models.PeriodDaily,
		Metrics: models.Metrics{
			Reports:    *reports,
			Users:      *users,
			Engagement: *engagement,
			Resolution: *resolution,
		},
		GeneratedAt: time.Now().UTC(),
	}

	_, err = s.snapshots.ReplaceOne(ctx,
		bson.M{"date": dayStart, "period": models.PeriodDaily},
		snap,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert snapshot: %w", err)
	}

	var stored models.AnalyticsSnapshot
	if err := s.snapshots.FindOne(ctx, bson.M{"date": dayStart, "period": models.PeriodDaily}).Decode(&stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

type groupCount struct {
	ID    string `bson:"_id"`
	Count int64  `bson:"count"`
}

func (s *Store) groupBy(ctx context.Context, c *mongo.Collection, field string) (map[string]int64, error) {
	cur, err := c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []groupCount
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.ID] = r.Count
	}
	return out, nil
}

func (s *Store) reportMetrics(ctx context.Context) (*models.ReportMetrics, error) {
	byStatus, err := s.groupBy(ctx, s.reports, "status")
	if err != nil {
		return nil, err
	}
	byCategory, err := s.groupBy(ctx, s.reports, "category")
	if err != nil {
		return nil, err
	}
	byPriority, err := s.groupBy(ctx, s.reports, "priority")
	if err != nil {
		return nil, err
	}
	byDepartment, err := s.groupBy(ctx, s.reports, "department")
	if err != nil {
		return nil, err
	}

	var total int64
	for _, n := range byStatus {
		total += n
	}
	return &models.ReportMetrics{
		Total:        total,
		Pending:      byStatus[models.StatusPending],
		Acknowledged: byStatus[models.StatusAcknowledged],
		InProgress:   byStatus[models.StatusInProgress],
		Resolved:     byStatus[models.StatusResolved],
		Closed:       byStatus[models.StatusClosed],
		ByCategory:   byCategory,
		ByPriority:   byPriority,
		ByDepartment: byDepartment,
	}, nil
}

func (s *Store) userMetrics(ctx context.Context, dayStart, dayEnd time.Time) (*models.UserMetrics, error) {
	total, err := s.users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	active, err := s.users.CountDocuments(ctx, bson.M{
		"last_login": bson.M{"$gte": dayEnd.Add(-30 * 24 * time.Hour)},
	})
	if err != nil {
		return nil, err
	}
	newToday, err := s.users.CountDocuments(ctx, bson.M{
		"created_at": bson.M{"$gte": dayStart, "$lt": dayEnd},
	})
	if err != nil {
		return nil, err
	}
	byRole, err := s.groupBy(ctx, s.users, "role")
	if err != nil {
		return nil, err
	}
	return &models.UserMetrics{
		Total:    total,
		Active:   active,
		NewToday: newToday,
		ByRole:   byRole,
	}, nil
}

func (s *Store) engagementMetrics(ctx context.Context, dayStart, dayEnd time.Time) (*models.EngagementMetrics, error) {
	cur, err := s.reports.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":      nil,
			"votes":    bson.M{"$sum": "$votes.count"},
			"comments": bson.M{"$sum": bson.M{"$size": bson.M{"$ifNull": []interface{}{"$comments", []interface{}{}}}}},
		}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Votes    int64 `bson:"votes"`
		Comments int64 `bson:"comments"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	var votes, comments int64
	if len(rows) > 0 {
		votes, comments = rows[0].Votes, rows[0].Comments
	}

	messages, err := s.messages.CountDocuments(ctx, bson.M{
		"created_at": bson.M{"$gte": dayStart, "$lt": dayEnd},
	})
	if err != nil {
		return nil, err
	}
	return &models.EngagementMetrics{
		TotalVotes:    votes,
		TotalComments: comments,
		TotalMessages: messages,
	}, nil
}

func (s *Store) resolutionMetrics(ctx context.Context, totalReports, resolvedOrClosed int64) (*models.ResolutionMetrics, error) {
	// Mean resolution time over reports that carry a resolution stamp.
	cur, err := s.reports.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"actual_resolution": bson.M{"$exists": true}}}},
		{{Key: "$project", Value: bson.M{
			"hours": bson.M{"$divide": []interface{}{
				bson.M{"$subtract": []interface{}{"$actual_resolution", "$created_at"}},
				1000 * 60 * 60,
			}},
		}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "avg": bson.M{"$avg": "$hours"}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Avg float64 `bson:"avg"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	m := &models.ResolutionMetrics{}
	if len(rows) > 0 {
		m.AverageHours = rows[0].Avg
		m.P95Hours = rows[0].Avg * 1.5
	}
	if totalReports > 0 {
		m.ResolutionRate = float64(resolvedOrClosed) / float64(totalReports) * 100
	}
	return m, nil
}

// GetRange returns daily snapshots with dates in [from, to], oldest
// first.
func (s *Store) GetRange(ctx context.Context, from, to time.Time) ([]models.AnalyticsSnapshot, error) {
	fromDay, _ := DayWindow(from)
	toDay, _ := DayWindow(to)

	opts := options.Find().SetSort(bson.M{"date": 1})
	cur, err := s.snapshots.Find(ctx, bson.M{
		"period": models.PeriodDaily,
		"date":   bson.M{"$gte": fromDay, "$lte": toDay},
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.AnalyticsSnapshot
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Latest returns up to limit most recent daily snapshots, newest first.
func (s *Store) Latest(ctx context.Context, limit int64) ([]models.AnalyticsSnapshot, error) {
	opts := options.Find().SetSort(bson.M{"date": -1}).SetLimit(limit)
	cur, err := s.snapshots.Find(ctx, bson.M{"period": models.PeriodDaily}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.AnalyticsSnapshot
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EnsureIndexes creates the unique (date, period) key.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.snapshots.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "date", Value: 1},
			{Key: "period", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("ensure analytics indexes: %w", err)
	}
	return nil
}
