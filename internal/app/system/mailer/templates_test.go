package mailer

import (
	"strings"
	"testing"
)

func TestBuildOTPEmail(t *testing.T) {
	e := BuildOTPEmail(OTPEmailData{SiteName: "CivicConnect", Code: "483920", ExpiresIn: "10 minutes"})
	if !strings.Contains(e.Subject, "CivicConnect") {
		t.Errorf("subject: %q", e.Subject)
	}
	if !strings.Contains(e.TextBody, "483920") || !strings.Contains(e.HTMLBody, "483920") {
		t.Error("code missing from body")
	}
	if !strings.Contains(e.TextBody, "10 minutes") {
		t.Error("expiry missing from text body")
	}
}

func TestBuildStatusEmail(t *testing.T) {
	e := BuildStatusEmail(StatusEmailData{
		SiteName: "CivicConnect", Name: "Ada",
		ReportID: "RC-0042", Title: "Pothole", Status: "resolved",
	})
	if !strings.Contains(e.Subject, "RC-0042") {
		t.Errorf("subject: %q", e.Subject)
	}
	if !strings.Contains(e.HTMLBody, "resolved") {
		t.Error("status missing from html body")
	}
}

func TestBuildResetEmail_EscapesLink(t *testing.T) {
	e := BuildResetEmail(ResetEmailData{
		SiteName: "CivicConnect", Name: "Ada",
		ResetLink: "https://civic.example/reset?token=abc", ExpiresIn: "1 hour",
	})
	if !strings.Contains(e.HTMLBody, "https://civic.example/reset?token=abc") {
		t.Error("link missing from html body")
	}
	if !strings.Contains(e.TextBody, "1 hour") {
		t.Error("expiry missing from text body")
	}
}
