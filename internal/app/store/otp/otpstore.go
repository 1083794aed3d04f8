// Package otpstore manages the one-time codes that gate registration and
// password recovery. Codes are stored bcrypt-hashed; the plaintext exists
// only in the email that carries it.
package otpstore

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/civicworks/civicconnect/internal/app/system/normalize"
	"github.com/civicworks/civicconnect/internal/domain/models"
)

const (
	// CodeLength is the number of digits in a code.
	CodeLength = 6
	// DefaultExpiry is how long a code stays valid.
	DefaultExpiry = 10 * time.Minute
	// MaxAttempts bounds failed verification attempts per code.
	MaxAttempts = 3
	// BcryptCost for hashing codes.
	BcryptCost = 10
)

var (
	// ErrNotFound is returned when no code exists for the email and purpose.
	ErrNotFound = errors.New("verification code not found")
	// ErrAlreadyUsed is returned when the code was already consumed.
	ErrAlreadyUsed = errors.New("verification code already used")
	// ErrExpired is returned when the code has passed its expiry.
	ErrExpired = errors.New("verification code expired")
	// ErrTooManyAttempts is returned once the attempt budget is spent.
	ErrTooManyAttempts = errors.New("too many verification attempts")
	// ErrInvalidCode is returned when the code does not match.
	ErrInvalidCode = errors.New("invalid verification code")
)

// Store manages one-time code records.
type Store struct {
	c      *mongo.Collection
	expiry time.Duration
}

// New creates a Store. A non-positive expiry falls back to DefaultExpiry.
func New(db *mongo.Database, expiry time.Duration) *Store {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Store{c: db.Collection("one_time_codes"), expiry: expiry}
}

// generateCode produces a random numeric code of CodeLength digits,
// zero-padded.
func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < CodeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", CodeLength, n), nil
}

// Issue creates a fresh code for (email, purpose), invalidating any prior
// unused codes so only the newest one can succeed. It returns the
// plaintext code for delivery.
func (s *Store) Issue(ctx context.Context, email, purpose string) (string, error) {
	email = normalize.Email(email)

	code, err := generateCode()
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash code: %w", err)
	}

	// Older pending codes die when a new one is issued.
	if _, err := s.c.DeleteMany(ctx, bson.M{
		"email":   email,
		"purpose": purpose,
		"used":    false,
	}); err != nil {
		return "", fmt.Errorf("invalidate prior codes: %w", err)
	}

	now := time.Now().UTC()
	rec := models.OneTimeCode{
		Email:     email,
		CodeHash:  string(hash),
		Purpose:   purpose,
		Used:      false,
		ExpiresAt: now.Add(s.expiry),
		Attempts:  0,
		CreatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, rec); err != nil {
		return "", fmt.Errorf("insert code: %w", err)
	}
	return code, nil
}

// Verify checks a submitted code against the most recent record for
// (email, purpose) and consumes it on success. Gates are checked in a
// fixed order: missing, already used, expired, attempt budget, then the
// code itself. A mismatch burns an attempt; the consume update is
// conditional so concurrent winners are impossible.
func (s *Store) Verify(ctx context.Context, email, purpose, code string) error {
	email = normalize.Email(email)

	opts := options.FindOne().SetSort(bson.M{"created_at": -1})
	var rec models.OneTimeCode
	err := s.c.FindOne(ctx, bson.M{"email": email, "purpose": purpose}, opts).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load code: %w", err)
	}

	if rec.Used {
		return ErrAlreadyUsed
	}
	if time.Now().After(rec.ExpiresAt) {
		return ErrExpired
	}
	if rec.Attempts >= MaxAttempts {
		return ErrTooManyAttempts
	}

	if bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(code)) != nil {
		if _, err := s.c.UpdateOne(ctx,
			bson.M{"_id": rec.ID, "used": false},
			bson.M{"$inc": bson.M{"attempts": 1}},
		); err != nil {
			return fmt.Errorf("record failed attempt: %w", err)
		}
		return ErrInvalidCode
	}

	// Consume: only one caller can flip used. The attempts filter holds
	// the budget even if failures raced in after our read.
	res := s.c.FindOneAndUpdate(ctx,
		bson.M{
			"_id":      rec.ID,
			"used":     false,
			"attempts": bson.M{"$lt": MaxAttempts},
		},
		bson.M{"$set": bson.M{"used": true}},
	)
	if errors.Is(res.Err(), mongo.ErrNoDocuments) {
		return ErrAlreadyUsed
	}
	if res.Err() != nil {
		return fmt.Errorf("consume code: %w", res.Err())
	}
	return nil
}

// Peek reports whether an unused, unexpired code exists for the pair.
// Used by tests and by the resend path.
func (s *Store) Peek(ctx context.Context, email, purpose string) (*models.OneTimeCode, error) {
	var rec models.OneTimeCode
	err := s.c.FindOne(ctx, bson.M{
		"email":   normalize.Email(email),
		"purpose": purpose,
		"used":    false,
	}, options.FindOne().SetSort(bson.M{"created_at": -1})).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// EnsureIndexes creates the lookup index and the TTL index that reaps
// expired records.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "email", Value: 1},
				{Key: "purpose", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
	if err != nil {
		return fmt.Errorf("ensure one_time_codes indexes: %w", err)
	}
	return nil
}

// expireNow is a test hook: force-expires the newest code for the pair.
func (s *Store) expireNow(ctx context.Context, email, purpose string) error {
	_, err := s.c.UpdateMany(ctx,
		bson.M{"email": normalize.Email(email), "purpose": purpose},
		bson.M{"$set": bson.M{"expires_at": time.Now().Add(-time.Minute)}},
	)
	return err
}
