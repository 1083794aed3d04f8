// internal/domain/models/analytics.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

// ReportMetrics summarizes the report collection at snapshot time.
type ReportMetrics struct {
	Total        int64            `bson:"total" json:"total"`
	Pending      int64            `bson:"pending" json:"pending"`
	Acknowledged int64            `bson:"acknowledged" json:"acknowledged"`
	InProgress   int64            `bson:"in_progress" json:"in_progress"`
	Resolved     int64            `bson:"resolved" json:"resolved"`
	Closed       int64            `bson:"closed" json:"closed"`
	ByCategory   map[string]int64 `bson:"by_category" json:"by_category"`
	ByPriority   map[string]int64 `bson:"by_priority" json:"by_priority"`
	ByDepartment map[string]int64 `bson:"by_department" json:"by_department"`
}

// UserMetrics summarizes accounts: totals, activity in the trailing 30
// days, and signups within the snapshot day.
type UserMetrics struct {
	Total    int64            `bson:"total" json:"total"`
	Active   int64            `bson:"active" json:"active"`
	NewToday int64            `bson:"new_today" json:"new_today"`
	ByRole   map[string]int64 `bson:"by_role" json:"by_role"`
}

// EngagementMetrics totals votes and comments across all reports and
// messages created within the snapshot day.
type EngagementMetrics struct {
	TotalVotes    int64 `bson:"total_votes" json:"total_votes"`
	TotalComments int64 `bson:"total_comments" json:"total_comments"`
	TotalMessages int64 `bson:"total_messages" json:"total_messages"`
}

// ResolutionMetrics holds resolution-time statistics in hours. P95 is a
// crude 1.5×mean placeholder, not a true percentile.
type ResolutionMetrics struct {
	AverageHours   float64 `bson:"average_hours" json:"average_hours"`
	P95Hours       float64 `bson:"p95_hours" json:"p95_hours"`
	ResolutionRate float64 `bson:"resolution_rate" json:"resolution_rate"` // percent
}

// Metrics is the nested metrics document of a snapshot.
type Metrics struct {
	Reports    ReportMetrics     `bson:"reports" json:"reports"`
	Users      UserMetrics       `bson:"users" json:"users"`
	Engagement EngagementMetrics `bson:"engagement" json:"engagement"`
	Resolution ResolutionMetrics `bson:"resolution" json:"resolution"`
}

// AnalyticsSnapshot is a persisted point-in-time summary for a (date,
// period) pair. Recomputation upserts: one snapshot per key, ever.
type AnalyticsSnapshot struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Date        time.Time          `bson:"date" json:"date"` // UTC midnight of the covered day
	Period      string             `bson:"period" json:"period"`
	Metrics     Metrics            `bson:"metrics" json:"metrics"`
	GeneratedAt time.Time          `bson:"generated_at" json:"generated_at"`
}
