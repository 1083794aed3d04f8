// internal/domain/models/otp.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Purposes a one-time code can be issued for.
const (
	OTPPurposeRegistration      = "registration"
	OTPPurposePasswordReset     = "password_reset"
	OTPPurposeEmailVerification = "email_verification"
)

// OneTimeCode is a short-lived email-bound verification code.
//
// At most one active (unused, unexpired) code should exist per
// (email, purpose); issuing a new code invalidates prior ones. A consumed
// code is marked used and kept until the TTL index reaps it, so a replayed
// verification can be distinguished from a code that never existed.
type OneTimeCode struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Email     string             `bson:"email"`
	CodeHash  string             `bson:"code_hash"` // bcrypt hash of the 6-digit code
	Purpose   string             `bson:"purpose"`
	Used      bool               `bson:"used"`
	ExpiresAt time.Time          `bson:"expires_at"` // TTL index field
	Attempts  int                `bson:"attempts"`   // failed comparisons; 3 locks the code
	CreatedAt time.Time          `bson:"created_at"`
}
