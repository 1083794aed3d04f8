// internal/domain/models/contact.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ContactStatusNew        = "new"
	ContactStatusInProgress = "in_progress"
	ContactStatusResponded  = "responded"
	ContactStatusClosed     = "closed"

	ContactCategoryGeneral        = "general"
	ContactCategorySupport        = "support"
	ContactCategoryFeedback       = "feedback"
	ContactCategoryBugReport      = "bug_report"
	ContactCategoryFeatureRequest = "feature_request"
	ContactCategoryPartnership    = "partnership"
)

var (
	ContactStatuses = []string{ContactStatusNew, ContactStatusInProgress, ContactStatusResponded, ContactStatusClosed}

	ContactCategories = []string{
		ContactCategoryGeneral, ContactCategorySupport, ContactCategoryFeedback,
		ContactCategoryBugReport, ContactCategoryFeatureRequest, ContactCategoryPartnership,
	}
)

// ContactResponse is the admin's answer embedded in a submission.
type ContactResponse struct {
	Content     string             `bson:"content" json:"content"`
	RespondedBy primitive.ObjectID `bson:"responded_by" json:"responded_by"`
	RespondedAt time.Time          `bson:"responded_at" json:"responded_at"`
}

// Contact is a public contact-form submission. Submitters need no
// account; admins triage through status and an embedded response.
type Contact struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email" json:"email"`
	Subject  string             `bson:"subject" json:"subject"`
	Message  string             `bson:"message" json:"message"`
	Category string             `bson:"category" json:"category"`
	Status   string             `bson:"status" json:"status"`

	Response *ContactResponse `bson:"response,omitempty" json:"response,omitempty"`

	IsRead bool       `bson:"is_read" json:"is_read"`
	ReadAt *time.Time `bson:"read_at,omitempty" json:"read_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
