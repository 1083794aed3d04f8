// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// OTPEmailData holds data for the verification-code email.
type OTPEmailData struct {
	SiteName  string
	Code      string
	ExpiresIn string // e.g., "10 minutes"
}

// BuildOTPEmail creates the registration/verification code email.
func BuildOTPEmail(data OTPEmailData) Email {
	return Email{
		Subject:  fmt.Sprintf("Your %s verification code", data.SiteName),
		TextBody: buildOTPText(data),
		HTMLBody: renderHTML("otp", otpHTMLTemplate, data),
	}
}

func buildOTPText(data OTPEmailData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Your %s verification code is: %s\n\n", data.SiteName, data.Code))
	buf.WriteString(fmt.Sprintf("This code expires in %s.\n\n", data.ExpiresIn))
	buf.WriteString("If you did not request this code, you can safely ignore this email.\n")
	return buf.String()
}

// WelcomeEmailData holds data for the post-registration email.
type WelcomeEmailData struct {
	SiteName string
	Name     string
}

// BuildWelcomeEmail creates the welcome email sent after registration.
func BuildWelcomeEmail(data WelcomeEmailData) Email {
	return Email{
		Subject:  fmt.Sprintf("Welcome to %s", data.SiteName),
		TextBody: fmt.Sprintf("Hi %s,\n\nYour %s account is ready. You can now report issues in your neighborhood and follow their progress.\n", data.Name, data.SiteName),
		HTMLBody: renderHTML("welcome", welcomeHTMLTemplate, data),
	}
}

// StatusEmailData holds data for the report status-change email.
type StatusEmailData struct {
	SiteName string
	Name     string
	ReportID string
	Title    string
	Status   string
}

// BuildStatusEmail creates the notification sent to a reporter when an
// admin changes their report's status.
func BuildStatusEmail(data StatusEmailData) Email {
	return Email{
		Subject:  fmt.Sprintf("Update on report %s", data.ReportID),
		TextBody: fmt.Sprintf("Hi %s,\n\nYour report %s (%q) is now: %s.\n", data.Name, data.ReportID, data.Title, data.Status),
		HTMLBody: renderHTML("status", statusHTMLTemplate, data),
	}
}

// ResetEmailData holds data for the password-reset email.
type ResetEmailData struct {
	SiteName  string
	Name      string
	ResetLink string
	ExpiresIn string // e.g., "1 hour"
}

// BuildResetEmail creates the password-reset email.
func BuildResetEmail(data ResetEmailData) Email {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", data.Name))
	buf.WriteString("We received a request to reset your password. Use this link:\n")
	buf.WriteString(data.ResetLink + "\n\n")
	buf.WriteString(fmt.Sprintf("The link expires in %s. If you did not request a reset, ignore this email.\n", data.ExpiresIn))
	return Email{
		Subject:  fmt.Sprintf("Reset your %s password", data.SiteName),
		TextBody: buf.String(),
		HTMLBody: renderHTML("reset", resetHTMLTemplate, data),
	}
}

// ContactEmailData holds data for the contact-form confirmation email.
type ContactEmailData struct {
	SiteName string
	Name     string
	Subject  string
}

// BuildContactEmail creates the confirmation sent after a contact-form
// submission.
func BuildContactEmail(data ContactEmailData) Email {
	return Email{
		Subject:  fmt.Sprintf("%s received your message", data.SiteName),
		TextBody: fmt.Sprintf("Hi %s,\n\nThanks for contacting %s about %q. We will get back to you soon.\n", data.Name, data.SiteName, data.Subject),
		HTMLBody: renderHTML("contact", contactHTMLTemplate, data),
	}
}

func renderHTML(name, tmpl string, data any) string {
	t := template.Must(template.New(name).Parse(tmpl))
	var buf bytes.Buffer
	_ = t.Execute(&buf, data)
	return buf.String()
}

const htmlHead = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #2563eb;">{{.SiteName}}</h1>
            </td>
          </tr>
`

const htmlFoot = `
          <tr>
            <td style="padding: 24px 32px; text-align: center; border-top: 1px solid #e5e7eb;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af;">This is an automated message. Please do not reply.</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`

const otpHTMLTemplate = htmlHead + `
          <tr>
            <td style="padding: 32px; text-align: center;">
              <p style="margin: 0 0 16px; font-size: 15px; color: #374151;">Your verification code is:</p>
              <p style="margin: 0 0 16px; font-size: 32px; font-weight: 700; letter-spacing: 8px; color: #111827;">{{.Code}}</p>
              <p style="margin: 0; font-size: 13px; color: #6b7280;">This code expires in {{.ExpiresIn}}. If you did not request it, you can safely ignore this email.</p>
            </td>
          </tr>
` + htmlFoot

const welcomeHTMLTemplate = htmlHead + `
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 16px; font-size: 15px; color: #374151;">Hi {{.Name}},</p>
              <p style="margin: 0; font-size: 15px; color: #374151;">Your {{.SiteName}} account is ready. You can now report issues in your neighborhood and follow their progress.</p>
            </td>
          </tr>
` + htmlFoot

const statusHTMLTemplate = htmlHead + `
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 16px; font-size: 15px; color: #374151;">Hi {{.Name}},</p>
              <p style="margin: 0 0 16px; font-size: 15px; color: #374151;">Your report <strong>{{.ReportID}}</strong> ("{{.Title}}") has a new status:</p>
              <p style="margin: 0; font-size: 18px; font-weight: 600; color: #2563eb;">{{.Status}}</p>
            </td>
          </tr>
` + htmlFoot

const contactHTMLTemplate = htmlHead + `
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 16px; font-size: 15px; color: #374151;">Hi {{.Name}},</p>
              <p style="margin: 0; font-size: 15px; color: #374151;">Thanks for contacting {{.SiteName}} about "{{.Subject}}". We will get back to you soon.</p>
            </td>
          </tr>
` + htmlFoot

const resetHTMLTemplate = htmlHead + `
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 16px; font-size: 15px; color: #374151;">Hi {{.Name}},</p>
              <p style="margin: 0 0 16px; font-size: 15px; color: #374151;">We received a request to reset your password.</p>
              <p style="margin: 0 0 16px; text-align: center;">
                <a href="{{.ResetLink}}" style="display: inline-block; padding: 12px 24px; background-color: #2563eb; color: #ffffff; text-decoration: none; border-radius: 6px; font-weight: 600;">Reset password</a>
              </p>
              <p style="margin: 0; font-size: 13px; color: #6b7280;">The link expires in {{.ExpiresIn}}. If you did not request a reset, ignore this email.</p>
            </td>
          </tr>
` + htmlFoot
