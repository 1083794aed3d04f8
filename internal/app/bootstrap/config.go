// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for CivicConnect.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: CIVICCONNECT_MONGO_URI, CIVICCONNECT_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "civicconnect", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	// Tokens
	{Name: "jwt_secret", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "JWT signing secret (must be strong in production)"},
	{Name: "session_ttl", Default: "168h", Desc: "Login token lifetime (e.g., 168h, 24h)"},
	{Name: "reset_ttl", Default: "1h", Desc: "Password-reset token lifetime"},

	// Registration one-time codes
	{Name: "otp_expiry", Default: "10m", Desc: "Registration code expiry (e.g., 10m, 1h)"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@civicconnect.example", Desc: "From email address"},
	{Name: "mail_from_name", Default: "CivicConnect", Desc: "From display name"},

	// Base URL for email links (password reset)
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for email links"},

	// Report image uploads
	{Name: "upload_dir", Default: "./uploads/reports", Desc: "Local directory for report images"},
	{Name: "upload_url", Default: "/uploads/reports", Desc: "URL prefix for serving report images"},

	// Rate limiting
	{Name: "auth_ip_limit", Default: 5, Desc: "Auth attempts per IP per window"},
	{Name: "auth_ip_window", Default: "15m", Desc: "Auth IP rate-limit window"},
	{Name: "otp_email_limit", Default: 3, Desc: "OTP sends per email per window"},
	{Name: "otp_email_window", Default: "10m", Desc: "OTP email rate-limit window"},
	{Name: "report_user_limit", Default: 10, Desc: "Report creations per user per window"},
	{Name: "report_user_window", Default: "1h", Desc: "Report creation rate-limit window"},
	{Name: "contact_ip_limit", Default: 3, Desc: "Contact-form submissions per IP per window"},
	{Name: "contact_ip_window", Default: "1h", Desc: "Contact-form rate-limit window"},

	// Admin bootstrap
	{Name: "admin_email", Default: "", Desc: "Email of an account to promote to admin on startup"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, CIVICCONNECT_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CIVICCONNECT", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret:  appValues.String("jwt_secret"),
		SessionTTL: appValues.Duration("session_ttl", 7*24*time.Hour),
		ResetTTL:   appValues.Duration("reset_ttl", time.Hour),

		OTPExpiry: appValues.Duration("otp_expiry", 10*time.Minute),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		BaseURL: appValues.String("base_url"),

		UploadDir: appValues.String("upload_dir"),
		UploadURL: appValues.String("upload_url"),

		AuthIPLimit:      appValues.Int("auth_ip_limit"),
		AuthIPWindow:     appValues.Duration("auth_ip_window", 15*time.Minute),
		OTPEmailLimit:    appValues.Int("otp_email_limit"),
		OTPEmailWindow:   appValues.Duration("otp_email_window", 10*time.Minute),
		ReportUserLimit:  appValues.Int("report_user_limit"),
		ReportUserWindow: appValues.Duration("report_user_window", time.Hour),
		ContactIPLimit:   appValues.Int("contact_ip_limit"),
		ContactIPWindow:  appValues.Duration("contact_ip_window", time.Hour),

		AdminEmail: appValues.String("admin_email"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// CivicConnect validates the MongoDB URI format to catch configuration
// errors early, and refuses to run in prod with the dev JWT secret.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if coreCfg.Env == "prod" && appCfg.JWTSecret == "dev-only-change-me-please-0123456789ABCDEF" {
		return fmt.Errorf("jwt_secret must be changed from the development default in prod")
	}

	return nil
}
