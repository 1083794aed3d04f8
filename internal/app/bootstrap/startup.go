// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	analyticsstore "github.com/civicworks/civicconnect/internal/app/store/analytics"
	userstore "github.com/civicworks/civicconnect/internal/app/store/users"
	"github.com/civicworks/civicconnect/internal/app/system/tasks"
	"github.com/civicworks/civicconnect/internal/domain/models"
)

// taskRunner lives for the whole process; Shutdown stops it.
var taskRunner *tasks.Runner

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
// It promotes the configured admin account, if any, and starts the
// background job runner with the daily analytics aggregation.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.AdminEmail != "" {
		if err := ensureAdmin(ctx, deps, appCfg.AdminEmail, logger); err != nil {
			return err
		}
	}

	taskRunner = tasks.NewRunner(logger)
	taskRunner.Register(tasks.DailyAnalyticsJob(analyticsstore.New(deps.MongoDatabase), logger))
	taskRunner.Start()

	return nil
}

// ensureAdmin promotes an existing account to the admin role. Accounts
// register themselves through the OTP flow, so a missing account is
// logged rather than created without a password.
func ensureAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	users := userstore.New(deps.MongoDatabase)

	u, err := users.GetByEmail(ctx, email)
	if errors.Is(err, userstore.ErrNotFound) {
		logger.Warn("admin_email account does not exist yet; register it first",
			zap.String("email", email))
		return nil
	}
	if err != nil {
		return err
	}
	if u.Role == models.RoleAdmin {
		return nil
	}

	if err := users.SetRole(ctx, u.ID, models.RoleAdmin); err != nil {
		return err
	}
	logger.Info("promoted account to admin", zap.String("email", email))
	return nil
}
