// internal/domain/models/report.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Report status lifecycle. Pending is the sole initial state. Any status is
// admin-settable at any time; closed is conventionally terminal but not
// enforced as such.
const (
	StatusPending      = "pending"
	StatusAcknowledged = "acknowledged"
	StatusInProgress   = "in_progress"
	StatusResolved     = "resolved"
	StatusClosed       = "closed"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

const (
	CategoryPothole     = "pothole"
	CategoryStreetlight = "streetlight"
	CategoryTrash       = "trash"
	CategoryGraffiti    = "graffiti"
	CategoryOther       = "other"
)

const (
	DeptPublicWorks    = "Public Works"
	DeptSanitation     = "Sanitation"
	DeptTransportation = "Transportation"
	DeptParks          = "Parks & Recreation"
	DeptOther          = "Other"
)

// Statuses, Categories, Priorities, and Departments enumerate the closed
// sets for validation and aggregation.
var (
	Statuses    = []string{StatusPending, StatusAcknowledged, StatusInProgress, StatusResolved, StatusClosed}
	Categories  = []string{CategoryPothole, CategoryStreetlight, CategoryTrash, CategoryGraffiti, CategoryOther}
	Priorities  = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
	Departments = []string{DeptPublicWorks, DeptSanitation, DeptTransportation, DeptParks, DeptOther}
)

// GeoPoint is a GeoJSON point: coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"` // always "Point"
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
	Address     string    `bson:"address,omitempty" json:"address,omitempty"`
}

// Votes embeds the vote ledger in the report aggregate.
// Invariant: Count == len(Voters), maintained by pairing $inc with the
// matching $addToSet/$pull in a single update.
type Votes struct {
	Count  int                  `bson:"count" json:"count"`
	Voters []primitive.ObjectID `bson:"voters" json:"-"`
}

// Comment is an entry in a report's ordered comment log. IsAdmin reflects
// the author's role at write time and is never re-evaluated.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Content   string             `bson:"content" json:"content"`
	IsAdmin   bool               `bson:"is_admin" json:"is_admin"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Image is an uploaded photo attached to a report.
type Image struct {
	URL        string    `bson:"url" json:"url"`
	Filename   string    `bson:"filename" json:"filename"`
	UploadedAt time.Time `bson:"uploaded_at" json:"uploaded_at"`
}

// Report is the aggregate root for a citizen-submitted civic issue.
// Comments and votes are embedded; all mutations go through the report
// store so the embedded invariants hold.
type Report struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReportID    string             `bson:"report_id" json:"report_id"` // human-readable, "RC-0001"
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category" json:"category"`
	Status      string             `bson:"status" json:"status"`
	Priority    string             `bson:"priority" json:"priority"`
	Location    GeoPoint           `bson:"location" json:"location"`
	Images      []Image            `bson:"images,omitempty" json:"images,omitempty"`

	Reporter   primitive.ObjectID  `bson:"reporter" json:"reporter"`
	AssignedTo *primitive.ObjectID `bson:"assigned_to,omitempty" json:"assigned_to,omitempty"`
	Department string              `bson:"department" json:"department"`

	Votes    Votes     `bson:"votes" json:"votes"`
	Comments []Comment `bson:"comments" json:"comments"`

	// ActualResolution is stamped on the first transition into
	// resolved/closed and preserved across re-entry.
	EstimatedResolution *time.Time `bson:"estimated_resolution,omitempty" json:"estimated_resolution,omitempty"`
	ActualResolution    *time.Time `bson:"actual_resolution,omitempty" json:"actual_resolution,omitempty"`

	Tags        []string `bson:"tags,omitempty" json:"tags,omitempty"`
	IsPublic    bool     `bson:"is_public" json:"is_public"`
	IsAnonymous bool     `bson:"is_anonymous" json:"is_anonymous"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasVoted reports whether the given user is in the voter set.
func (r *Report) HasVoted(userID primitive.ObjectID) bool {
	for _, v := range r.Votes.Voters {
		if v == userID {
			return true
		}
	}
	return false
}
