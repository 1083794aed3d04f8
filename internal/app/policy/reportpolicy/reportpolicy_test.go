package reportpolicy

import (
	"testing"

	"github.com/civicworks/civicconnect/internal/domain/models"
)

func TestCanSetField(t *testing.T) {
	cases := []struct {
		role    string
		field   string
		isOwner bool
		want    bool
	}{
		{models.RoleCitizen, "title", true, true},
		{models.RoleCitizen, "description", true, true},
		{models.RoleCitizen, "is_public", true, true},
		{models.RoleCitizen, "title", false, false},
		{models.RoleCitizen, "status", true, false},
		{models.RoleCitizen, "tags", true, false},
		{models.RoleAdmin, "tags", false, true},
		{models.RoleCitizen, "priority", true, false},
		{models.RoleCitizen, "assigned_to", true, false},
		{models.RoleAdmin, "status", false, true},
		{models.RoleAdmin, "priority", false, true},
		{models.RoleAdmin, "department", false, true},
		{models.RoleAdmin, "title", false, true},
		{models.RoleAdmin, "estimated_resolution", false, true},
		{models.RoleAdmin, "report_id", false, false},
		{models.RoleCitizen, "votes", true, false},
	}
	for _, c := range cases {
		if got := CanSetField(c.role, c.field, c.isOwner); got != c.want {
			t.Errorf("CanSetField(%q, %q, owner=%v) = %v, want %v",
				c.role, c.field, c.isOwner, got, c.want)
		}
	}
}

func TestIsTriageField(t *testing.T) {
	if !IsTriageField("status") || !IsTriageField("tags") || IsTriageField("title") {
		t.Error("triage classification wrong")
	}
}
