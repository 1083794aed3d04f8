package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllowWithinLimit(t *testing.T) {
	l := New(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !l.Allow("k") {
			t.Fatalf("attempt %d blocked", i+1)
		}
	}
	if l.Allow("k") {
		t.Error("fourth attempt allowed")
	}
	if l.RetryAfter("k") <= 0 {
		t.Error("RetryAfter = 0 for a limited key")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New(1, time.Minute)
	if !l.Allow("a") {
		t.Fatal("first key blocked")
	}
	if !l.Allow("b") {
		t.Error("second key blocked by first key's window")
	}
}

func TestWindowExpires(t *testing.T) {
	l := New(1, 30*time.Millisecond)
	if !l.Allow("k") {
		t.Fatal("first attempt blocked")
	}
	if l.Allow("k") {
		t.Fatal("second attempt allowed inside window")
	}
	time.Sleep(40 * time.Millisecond)
	if !l.Allow("k") {
		t.Error("attempt blocked after window expired")
	}
}

func TestReset(t *testing.T) {
	l := New(1, time.Minute)
	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("limit not enforced")
	}
	l.Reset("k")
	if !l.Allow("k") {
		t.Error("attempt blocked after Reset")
	}
}

func TestRetryAfterUnlimitedKey(t *testing.T) {
	l := New(5, time.Minute)
	l.Allow("k")
	if got := l.RetryAfter("k"); got != 0 {
		t.Errorf("RetryAfter = %d for a key under the limit", got)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		xri    string
		remote string
		want   string
	}{
		{"forwarded-for wins", "203.0.113.9, 10.0.0.1", "198.51.100.7", "192.0.2.1:1234", "203.0.113.9"},
		{"real-ip next", "", "198.51.100.7", "192.0.2.1:1234", "198.51.100.7"},
		{"remote addr last", "", "", "192.0.2.1:1234", "192.0.2.1"},
		{"remote addr without port", "", "", "192.0.2.1", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAuthLimiterChecksBothAxes(t *testing.T) {
	al := NewAuthLimiterWithConfig(100, time.Minute, 2, time.Minute)

	r := httptest.NewRequest("POST", "/api/auth/send-otp", nil)
	r.RemoteAddr = "192.0.2.1:1234"

	for i := 0; i < 2; i++ {
		if ok, _ := al.Check(r, "ada@example.com"); !ok {
			t.Fatalf("attempt %d blocked", i+1)
		}
	}
	if ok, retry := al.Check(r, "ada@example.com"); ok || retry <= 0 {
		t.Errorf("email limit not enforced: ok=%v retry=%d", ok, retry)
	}

	// A different email from the same IP still passes.
	if ok, _ := al.Check(r, "bob@example.com"); !ok {
		t.Error("unrelated email blocked")
	}

	al.ResetEmail("ada@example.com")
	if ok, _ := al.Check(r, "ada@example.com"); !ok {
		t.Error("email still blocked after ResetEmail")
	}
}
