package bootstrap

import (
	"testing"

	"go.uber.org/zap"

	userstore "github.com/civicworks/civicconnect/internal/app/store/users"
	"github.com/civicworks/civicconnect/internal/domain/models"
	"github.com/civicworks/civicconnect/internal/testutil"
)

func TestEnsureAdmin_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	fx := testutil.NewFixtures(t, db)
	u := fx.CreateCitizen(ctx, "Grace", "grace@example.com")

	deps := DBDeps{MongoDatabase: db}
	if err := ensureAdmin(ctx, deps, "grace@example.com", zap.NewNop()); err != nil {
		t.Fatalf("ensureAdmin: %v", err)
	}

	got, err := userstore.New(db).GetByID(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Role != models.RoleAdmin {
		t.Errorf("role = %q, want admin", got.Role)
	}
}

func TestEnsureAdmin_MissingAccountIsNotFatal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	deps := DBDeps{MongoDatabase: db}
	if err := ensureAdmin(ctx, deps, "nobody@example.com", zap.NewNop()); err != nil {
		t.Fatalf("ensureAdmin: %v", err)
	}
}

func TestEnsureAdmin_AlreadyAdminIsNoop(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	fx := testutil.NewFixtures(t, db)
	u := fx.CreateAdmin(ctx, "Grace", "grace@example.com")

	deps := DBDeps{MongoDatabase: db}
	if err := ensureAdmin(ctx, deps, "grace@example.com", zap.NewNop()); err != nil {
		t.Fatalf("ensureAdmin: %v", err)
	}

	got, err := userstore.New(db).GetByID(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Role != models.RoleAdmin {
		t.Errorf("role = %q", got.Role)
	}
}
