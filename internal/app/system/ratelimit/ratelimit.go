// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter provides fixed-window rate limiting keyed by caller identity.
// It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int           // max requests per window
	duration time.Duration // window duration
	cleanup  time.Duration // how often to drop stale entries
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter allowing limit requests per duration per key.
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		cleanup:  duration * 2,
	}
	go l.cleanupLoop()
	return l
}

// Allow checks whether a request from the given key should proceed.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, exists := l.windows[key]

	if !exists || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// RetryAfter returns how many seconds remain in the key's current
// window, rounded up. Zero means the key is not limited right now.
func (l *Limiter) RetryAfter(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, exists := l.windows[key]
	if !exists {
		return 0
	}
	remaining := time.Until(w.expiresAt)
	if remaining <= 0 || w.count < l.limit {
		return 0
	}
	return int((remaining + time.Second - 1) / time.Second)
}

// Reset clears the window for a key, e.g. after a successful login.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanup)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for key, w := range l.windows {
			if now.After(w.expiresAt) {
				delete(l.windows, key)
			}
		}
		l.mu.Unlock()
	}
}

// ClientIP extracts the client IP, preferring proxy headers.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// AuthLimiter throttles authentication endpoints by IP and by target
// email, so neither a single source nor a single account can be hammered.
type AuthLimiter struct {
	ip    *Limiter
	email *Limiter
}

// NewAuthLimiter builds the auth throttle: 5 attempts per IP per 15
// minutes and 3 OTP/login attempts per email per 10 minutes by default.
func NewAuthLimiter() *AuthLimiter {
	return NewAuthLimiterWithConfig(5, 15*time.Minute, 3, 10*time.Minute)
}

// NewAuthLimiterWithConfig builds an auth throttle with custom limits.
func NewAuthLimiterWithConfig(ipLimit int, ipWindow time.Duration, emailLimit int, emailWindow time.Duration) *AuthLimiter {
	return &AuthLimiter{
		ip:    New(ipLimit, ipWindow),
		email: New(emailLimit, emailWindow),
	}
}

// Check reports whether the attempt may proceed and, when throttled, how
// many seconds the caller should wait.
func (a *AuthLimiter) Check(r *http.Request, email string) (bool, int) {
	ip := ClientIP(r)
	if !a.ip.Allow(ip) {
		return false, a.ip.RetryAfter(ip)
	}
	if email != "" {
		key := strings.ToLower(strings.TrimSpace(email))
		if !a.email.Allow(key) {
			return false, a.email.RetryAfter(key)
		}
	}
	return true, 0
}

// ResetEmail clears the per-email window after a successful login.
func (a *AuthLimiter) ResetEmail(email string) {
	if email != "" {
		a.email.Reset(strings.ToLower(strings.TrimSpace(email)))
	}
}
