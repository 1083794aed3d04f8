package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/civicworks/civicconnect/internal/domain/models"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insertUser(ctx context.Context, name, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:                primitive.NewObjectID(),
		Name:              name,
		NameCI:            text.Fold(name),
		Email:             email,
		PasswordHash:      "$2a$10$fixturefixturefixturefixturefixturefixturefixturefixt",
		Role:              role,
		IsActive:          true,
		IsEmailVerified:   true,
		PasswordChangedAt: now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("insert fixture user: %v", err)
	}
	return u
}

// CreateCitizen inserts an active citizen account.
func (f *Fixtures) CreateCitizen(ctx context.Context, name, email string) models.User {
	return f.insertUser(ctx, name, email, models.RoleCitizen)
}

// CreateAdmin inserts an active admin account.
func (f *Fixtures) CreateAdmin(ctx context.Context, name, email string) models.User {
	return f.insertUser(ctx, name, email, models.RoleAdmin)
}

// CreateReport inserts a public pending report for the reporter.
func (f *Fixtures) CreateReport(ctx context.Context, reportID, title string, reporter primitive.ObjectID) models.Report {
	f.t.Helper()

	now := time.Now().UTC()
	r := models.Report{
		ID:          primitive.NewObjectID(),
		ReportID:    reportID,
		Title:       title,
		Description: "fixture report",
		Category:    models.CategoryOther,
		Status:      models.StatusPending,
		Priority:    models.PriorityMedium,
		Location: models.GeoPoint{
			Type:        "Point",
			Coordinates: []float64{-122.4194, 37.7749},
		},
		Reporter:   reporter,
		Department: models.DeptOther,
		Votes:      models.Votes{Voters: []primitive.ObjectID{}},
		Comments:   []models.Comment{},
		IsPublic:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("reports").InsertOne(ctx, r); err != nil {
		f.t.Fatalf("insert fixture report: %v", err)
	}
	return r
}

// CreateMessage inserts a message between the two users.
func (f *Fixtures) CreateMessage(ctx context.Context, sender, recipient primitive.ObjectID, subject string) models.Message {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.Message{
		ID:          primitive.NewObjectID(),
		Sender:      sender,
		Recipient:   recipient,
		Subject:     subject,
		Content:     "fixture message",
		Priority:    models.MessagePriorityNormal,
		MessageType: models.MessageTypeGeneral,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("messages").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("insert fixture message: %v", err)
	}
	return m
}
