// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles an account can hold. Citizens submit and vote on reports;
// admins triage them and see the admin surface.
const (
	RoleCitizen = "citizen"
	RoleAdmin   = "admin"
)

// User represents a CivicConnect account, citizen or admin.
//
// ReportsCount is a derived counter maintained by the report store: it is
// incremented once when the user authors a report and decremented when one
// of their reports is deleted.
type User struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	NameCI          string             `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	Email           string             `bson:"email" json:"email"`
	PasswordHash    string             `bson:"password_hash" json:"-"`
	Role            string             `bson:"role" json:"role"` // citizen | admin
	IsActive        bool               `bson:"is_active" json:"is_active"`
	IsEmailVerified bool               `bson:"is_email_verified" json:"is_email_verified"`
	ReportsCount    int                `bson:"reports_count" json:"reports_count"`
	LastLogin       *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`

	// PasswordChangedAt gates password-reset tokens: a token issued before
	// this instant is no longer accepted, which makes reset links single use.
	PasswordChangedAt time.Time `bson:"password_changed_at" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
