// internal/domain/models/message.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MessagePriorityLow    = "low"
	MessagePriorityNormal = "normal"
	MessagePriorityHigh   = "high"
)

const (
	MessageTypeGeneral      = "general"
	MessageTypeReportUpdate = "report_update"
	MessageTypeStatusChange = "status_change"
	MessageTypeAdminNotice  = "admin_notification"
)

// Message is a citizen↔admin message. Deletion is soft: the document is
// flagged and filtered out of listings, never removed through the API.
type Message struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Sender        primitive.ObjectID  `bson:"sender" json:"sender"`
	Recipient     primitive.ObjectID  `bson:"recipient" json:"recipient"`
	Subject       string              `bson:"subject" json:"subject"`
	Content       string              `bson:"content" json:"content"`
	RelatedReport *primitive.ObjectID `bson:"related_report,omitempty" json:"related_report,omitempty"`
	ReplyTo       *primitive.ObjectID `bson:"reply_to,omitempty" json:"reply_to,omitempty"`

	IsRead     bool       `bson:"is_read" json:"is_read"`
	ReadAt     *time.Time `bson:"read_at,omitempty" json:"read_at,omitempty"`
	IsArchived bool       `bson:"is_archived" json:"is_archived"`
	ArchivedAt *time.Time `bson:"archived_at,omitempty" json:"archived_at,omitempty"`
	IsDeleted  bool       `bson:"is_deleted" json:"-"`
	DeletedAt  *time.Time `bson:"deleted_at,omitempty" json:"-"`

	Priority    string `bson:"priority" json:"priority"`
	MessageType string `bson:"message_type" json:"message_type"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
