// Package reportpolicy is the single authorization table for report
// field updates.
//
// Authorization rules:
//   - The report owner may edit descriptive fields of their own report.
//   - Admins may edit descriptive fields anywhere and are the only role
//     allowed to touch triage fields.
//   - Everyone else gets nothing.
package reportpolicy

import "github.com/civicworks/civicconnect/internal/domain/models"

// ownerFields are the descriptive fields a reporter controls.
var ownerFields = map[string]bool{
	"title":        true,
	"description":  true,
	"category":     true,
	"location":     true,
	"is_public":    true,
	"is_anonymous": true,
}

// triageFields are administrative: status, priority, routing, tags,
// and the resolution estimate. Reporters may supply tags when filing a
// report, but only admins may rewrite them afterwards.
var triageFields = map[string]bool{
	"status":               true,
	"priority":             true,
	"tags":                 true,
	"department":           true,
	"assigned_to":          true,
	"estimated_resolution": true,
}

// CanSetField reports whether a user with the given role may set the
// named field on a report they do (or do not) own. Unknown fields are
// denied for everyone.
func CanSetField(role, field string, isOwner bool) bool {
	if role == models.RoleAdmin {
		return ownerFields[field] || triageFields[field]
	}
	if isOwner {
		return ownerFields[field]
	}
	return false
}

// IsTriageField reports whether the field is admin-only.
func IsTriageField(field string) bool {
	return triageFields[field]
}
