// Package apierr defines the error taxonomy surfaced by the HTTP API.
//
// Stores return sentinel errors; handlers translate them into these kinds,
// and apiutil maps kinds onto HTTP status codes. Nothing here is fatal to
// the process: every error is per-request.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an API-visible failure.
type Kind int

const (
	KindValidation Kind = iota // malformed input, caller can correct
	KindUnauthorized           // missing/invalid authentication
	KindForbidden              // authenticated but not allowed
	KindNotFound               // referenced entity absent
	KindConflict               // duplicate email, double-registration race
	KindRateLimited            // caller-visible, carries retry-after
	KindCredential             // expired/invalid OTP, session, or reset token
	KindDependency             // notifier or store unavailable
)

// Error is a classified, user-presentable API error.
type Error struct {
	Kind       Kind
	Message    string
	RetryAfter int // seconds; only meaningful for KindRateLimited
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports malformed input.
func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

// Unauthorized reports a missing or invalid credential.
func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }

// Forbidden reports an authorization failure.
func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }

// NotFound reports an absent entity.
func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

// Conflict reports a uniqueness violation.
func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

// RateLimited reports throttling with a retry-after hint in seconds.
func RateLimited(msg string, retryAfter int) *Error {
	return &Error{Kind: KindRateLimited, Message: msg, RetryAfter: retryAfter}
}

// Credential reports an expired or invalid OTP/session/reset token.
func Credential(msg string) *Error { return &Error{Kind: KindCredential, Message: msg} }

// Dependency wraps a failure of an external collaborator (SMTP, Mongo).
func Dependency(msg string, err error) *Error {
	return &Error{Kind: KindDependency, Message: msg, Err: err}
}

// Status maps an error onto an HTTP status code. Unclassified errors are
// treated as internal.
func Status(err error) int {
	var ae *Error
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError
	}
	switch ae.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindCredential:
		return http.StatusBadRequest
	case KindDependency:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
