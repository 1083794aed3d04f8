// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	analyticsstore "github.com/civicworks/civicconnect/internal/app/store/analytics"
	contactstore "github.com/civicworks/civicconnect/internal/app/store/contacts"
	counterstore "github.com/civicworks/civicconnect/internal/app/store/counters"
	messagestore "github.com/civicworks/civicconnect/internal/app/store/messages"
	otpstore "github.com/civicworks/civicconnect/internal/app/store/otp"
	reportstore "github.com/civicworks/civicconnect/internal/app/store/reports"
	userstore "github.com/civicworks/civicconnect/internal/app/store/users"
)

// ConnectDB opens the MongoDB connection used by every store.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase))

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates the indexes every store relies on: the unique
// email and report_id keys, the 2dsphere location index, and the OTP
// TTL index among them.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	ensure := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"users", userstore.New(db).EnsureIndexes},
		{"otp", otpstore.New(db, appCfg.OTPExpiry).EnsureIndexes},
		{"reports", reportstore.New(db, counterstore.New(db)).EnsureIndexes},
		{"messages", messagestore.New(db).EnsureIndexes},
		{"contacts", contactstore.New(db).EnsureIndexes},
		{"analytics", analyticsstore.New(db).EnsureIndexes},
	}
	for _, e := range ensure {
		if err := e.fn(ctx); err != nil {
			return fmt.Errorf("ensure %s indexes: %w", e.name, err)
		}
	}

	logger.Info("database indexes ensured")
	return nil
}
