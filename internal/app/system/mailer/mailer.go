// internal/app/system/mailer/mailer.go
package mailer

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"time"

	"github.com/knadh/smtppool"
	"go.uber.org/zap"
)

// Email is an outgoing message with both bodies.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Notifier delivers outgoing email. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Send(e Email) error
}

// Config holds SMTP connection settings.
type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string // e.g. "CivicConnect <no-reply@civicconnect.example>"
	MaxConns    int
	SendTimeout time.Duration
}

// SMTPNotifier sends mail through a pooled SMTP connection.
type SMTPNotifier struct {
	pool    *smtppool.Pool
	from    string
	timeout time.Duration
}

// NewSMTPNotifier opens the connection pool. Credentials may be empty
// for unauthenticated relays.
func NewSMTPNotifier(cfg Config) (*SMTPNotifier, error) {
	var auth smtp.Auth
	if cfg.Username != "" || cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 2
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 15 * time.Second
	}

	pool, err := smtppool.New(smtppool.Opt{
		Host:            cfg.Host,
		Port:            cfg.Port,
		MaxConns:        cfg.MaxConns,
		IdleTimeout:     cfg.SendTimeout,
		PoolWaitTimeout: cfg.SendTimeout,
		Auth:            auth,
		TLSConfig:       &tls.Config{ServerName: cfg.Host},
	})
	if err != nil {
		return nil, fmt.Errorf("smtp pool: %w", err)
	}
	return &SMTPNotifier{pool: pool, from: cfg.From, timeout: cfg.SendTimeout}, nil
}

// Send delivers one message.
func (n *SMTPNotifier) Send(e Email) error {
	if err := n.pool.Send(poolEmail(n.from, e)); err != nil {
		return fmt.Errorf("send mail to %s: %w", e.To, err)
	}
	return nil
}

// poolEmail converts an outgoing message into the pool's wire type.
func poolEmail(from string, e Email) smtppool.Email {
	return smtppool.Email{
		From:    from,
		To:      []string{e.To},
		Subject: e.Subject,
		Text:    []byte(e.TextBody),
		HTML:    []byte(e.HTMLBody),
	}
}

// Close tears down the pool.
func (n *SMTPNotifier) Close() {
	n.pool.Close()
}

// LogNotifier logs mail instead of sending it. Used in dev and test
// environments with no SMTP server configured.
type LogNotifier struct {
	Log *zap.Logger
}

func (n *LogNotifier) Send(e Email) error {
	n.Log.Info("mail (not sent, no smtp configured)",
		zap.String("to", e.To),
		zap.String("subject", e.Subject))
	return nil
}
