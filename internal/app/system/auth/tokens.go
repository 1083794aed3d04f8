// internal/app/system/auth/tokens.go
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/civicworks/civicconnect/internal/domain/models"
)

const (
	// PurposeSession marks an ordinary login token.
	PurposeSession = "session"
	// PurposePasswordReset marks a one-hour reset token. Reset tokens are
	// never accepted as session credentials.
	PurposePasswordReset = "password_reset"

	// DefaultSessionTTL is how long a login token stays valid.
	DefaultSessionTTL = 7 * 24 * time.Hour
	// DefaultResetTTL is how long a password-reset token stays valid.
	DefaultResetTTL = time.Hour
)

var (
	// ErrInvalidToken is returned for malformed, forged, or expired tokens,
	// and for tokens presented with the wrong purpose.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Claims is the signed payload carried by every CivicConnect token.
type Claims struct {
	Email   string `json:"email"`
	Role    string `json:"role"`
	Name    string `json:"name"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies signed credentials. Verification is
// stateless; there is no revocation list, and logout is client-side.
type Tokens struct {
	secret     []byte
	sessionTTL time.Duration
	resetTTL   time.Duration
}

// NewTokens creates a token issuer/verifier. Zero TTLs fall back to the
// defaults (7 days / 1 hour).
func NewTokens(secret string, sessionTTL, resetTTL time.Duration) *Tokens {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	if resetTTL <= 0 {
		resetTTL = DefaultResetTTL
	}
	return &Tokens{secret: []byte(secret), sessionTTL: sessionTTL, resetTTL: resetTTL}
}

// IssueSession signs a session token for the given account.
func (t *Tokens) IssueSession(u *models.User) (string, error) {
	return t.issue(u, PurposeSession, t.sessionTTL)
}

// IssueReset signs a purpose-tagged password-reset token.
func (t *Tokens) IssueReset(u *models.User) (string, error) {
	return t.issue(u, PurposePasswordReset, t.resetTTL)
}

func (t *Tokens) issue(u *models.User, purpose string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:   u.Email,
		Role:    u.Role,
		Name:    u.Name,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// VerifySession parses and validates a session token.
func (t *Tokens) VerifySession(token string) (*Claims, error) {
	return t.verify(token, PurposeSession)
}

// VerifyReset parses and validates a password-reset token.
func (t *Tokens) VerifyReset(token string) (*Claims, error) {
	return t.verify(token, PurposePasswordReset)
}

func (t *Tokens) verify(token, purpose string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purpose {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
