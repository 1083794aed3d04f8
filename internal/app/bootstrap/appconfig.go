// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// framework-level settings (ports, TLS, logging, CORS); AppConfig is
// everything specific to CivicConnect.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Token configuration
	JWTSecret  string        // HMAC signing secret (must be strong in production)
	SessionTTL time.Duration // Login token lifetime (default 7 days)
	ResetTTL   time.Duration // Password-reset token lifetime (default 1 hour)

	// Registration one-time codes
	OTPExpiry time.Duration // Code lifetime (default 10 minutes)

	// Email/SMTP configuration
	MailSMTPHost string // SMTP server host (e.g., localhost for Mailpit)
	MailSMTPPort int    // SMTP server port (e.g., 1025 for Mailpit, 587 for SES)
	MailSMTPUser string // SMTP username (empty for unauthenticated relays)
	MailSMTPPass string // SMTP password
	MailFrom     string // From email address (e.g., noreply@civicconnect.example)
	MailFromName string // From display name (e.g., CivicConnect)

	// Base URL for email links (password reset)
	BaseURL string // e.g., "https://civicconnect.example" or "http://localhost:3000"

	// Report image uploads
	UploadDir string // Local directory for stored images
	UploadURL string // URL prefix the images are served under

	// Rate limiting
	AuthIPLimit      int           // Auth attempts per IP per window
	AuthIPWindow     time.Duration //
	OTPEmailLimit    int           // OTP sends per email per window
	OTPEmailWindow   time.Duration //
	ReportUserLimit  int           // Report creations per user per window
	ReportUserWindow time.Duration //
	ContactIPLimit   int           // Contact-form submissions per IP per window
	ContactIPWindow  time.Duration //

	// AdminEmail, when set, promotes that existing account to admin at
	// startup.
	AdminEmail string
}
