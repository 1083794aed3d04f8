// internal/app/bootstrap/routes.go
package bootstrap

import (
	"fmt"
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	adminfeature "github.com/civicworks/civicconnect/internal/app/features/admin"
	authfeature "github.com/civicworks/civicconnect/internal/app/features/auth"
	contactfeature "github.com/civicworks/civicconnect/internal/app/features/contact"
	healthfeature "github.com/civicworks/civicconnect/internal/app/features/health"
	messagesfeature "github.com/civicworks/civicconnect/internal/app/features/messages"
	reportsfeature "github.com/civicworks/civicconnect/internal/app/features/reports"
	analyticsstore "github.com/civicworks/civicconnect/internal/app/store/analytics"
	contactstore "github.com/civicworks/civicconnect/internal/app/store/contacts"
	counterstore "github.com/civicworks/civicconnect/internal/app/store/counters"
	messagestore "github.com/civicworks/civicconnect/internal/app/store/messages"
	otpstore "github.com/civicworks/civicconnect/internal/app/store/otp"
	reportstore "github.com/civicworks/civicconnect/internal/app/store/reports"
	userstore "github.com/civicworks/civicconnect/internal/app/store/users"
	sysauth "github.com/civicworks/civicconnect/internal/app/system/auth"
	"github.com/civicworks/civicconnect/internal/app/system/mailer"
	"github.com/civicworks/civicconnect/internal/app/system/ratelimit"
)

// notifier lives for the whole process so Shutdown can close the SMTP
// pool.
var notifier mailer.Notifier

// BuildHandler constructs the root HTTP handler (router) for this
// WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and any Startup hooks have completed. CivicConnect is a JSON API:
// bearer-token middleware loads the caller into context, feature
// routers are mounted under /api, and uploaded report images are served
// as static files.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	users := userstore.New(db)
	codes := otpstore.New(db, appCfg.OTPExpiry)
	counters := counterstore.New(db)
	reports := reportstore.New(db, counters)
	messages := messagestore.New(db)
	analytics := analyticsstore.New(db)
	contacts := contactstore.New(db)

	tokens := sysauth.NewTokens(appCfg.JWTSecret, appCfg.SessionTTL, appCfg.ResetTTL)

	notifier = buildNotifier(appCfg, logger)

	authLimiter := ratelimit.NewAuthLimiterWithConfig(
		appCfg.AuthIPLimit, appCfg.AuthIPWindow,
		appCfg.OTPEmailLimit, appCfg.OTPEmailWindow)
	reportLimiter := ratelimit.New(appCfg.ReportUserLimit, appCfg.ReportUserWindow)
	contactLimiter := ratelimit.New(appCfg.ContactIPLimit, appCfg.ContactIPWindow)

	r := chi.NewRouter()

	// Global auth middleware: verifies a bearer token, if present, and
	// makes the caller available via auth.CurrentUser(r).
	r.Use(tokens.LoadBearerUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Uploaded report images with pre-compressed file support
	r.Handle(appCfg.UploadURL+"/*", fileserver.Handler(appCfg.UploadURL, appCfg.UploadDir))

	authHandler := authfeature.NewHandler(users, codes, tokens, notifier, authLimiter, appCfg.BaseURL, logger)
	r.Mount("/api/auth", authfeature.Routes(authHandler))

	reportsHandler := reportsfeature.NewHandler(reports, users, notifier, reportLimiter, appCfg.UploadDir, appCfg.UploadURL, logger)
	r.Mount("/api/reports", reportsfeature.Routes(reportsHandler))

	messagesHandler := messagesfeature.NewHandler(messages, users, reports, logger)
	r.Mount("/api/messages", messagesfeature.Routes(messagesHandler))

	contactHandler := contactfeature.NewHandler(contacts, notifier, contactLimiter, logger)
	r.Mount("/api/contact", contactfeature.Routes(contactHandler))

	adminHandler := adminfeature.NewHandler(reports, users, messages, analytics, logger)
	r.Mount("/api/admin", adminfeature.Routes(adminHandler))

	return r, nil
}

// buildNotifier picks SMTP when a host is configured and falls back to
// log-only delivery otherwise.
func buildNotifier(appCfg AppConfig, logger *zap.Logger) mailer.Notifier {
	if appCfg.MailSMTPHost == "" {
		return &mailer.LogNotifier{Log: logger}
	}
	n, err := mailer.NewSMTPNotifier(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     fmt.Sprintf("%s <%s>", appCfg.MailFromName, appCfg.MailFrom),
	})
	if err != nil {
		logger.Error("smtp pool init failed; falling back to log-only mail", zap.Error(err))
		return &mailer.LogNotifier{Log: logger}
	}
	return n
}
