package directory

import (
	"fmt"
	"strings"
	"time"
)

// Employee is a profile record. EmpID is human-assigned, immutable once
// created, and used as the foreign key everywhere. UserID links the profile
// to a login identity; empty means not yet provisioned with login access.
type Employee struct {
	EmpID            string     `json:"empId"`
	UserID           string     `json:"userId,omitempty"`
	Name             string     `json:"name"`
	PersonalEmail    string     `json:"personalEmail"`
	OfficialEmail    string     `json:"officialEmail"`
	Designation      string     `json:"designation"`
	DateOfJoining    *time.Time `json:"dateOfJoining,omitempty"`
	Phone            string     `json:"phone"`
	EmergencyContact string     `json:"emergencyContact"`
	DateOfBirth      *time.Time `json:"dateOfBirth,omitempty"`
	Address          string     `json:"address"`
	ProfilePicURL    string     `json:"profilePicUrl,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

type FieldIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError reports one issue per offending field. It is returned
// before any remote write happens.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	fields := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		fields[i] = issue.Field
	}
	return fmt.Sprintf("invalid employee: %s", strings.Join(fields, ", "))
}

// validateRequired checks the fields that are mandatory on create.
func validateRequired(emp Employee) *ValidationError {
	var issues []FieldIssue
	required := []struct {
		field, value string
	}{
		{"empId", emp.EmpID},
		{"name", emp.Name},
		{"designation", emp.Designation},
		{"phone", emp.Phone},
		{"officialEmail", emp.OfficialEmail},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			issues = append(issues, FieldIssue{Field: r.field, Reason: "is required"})
		}
	}
	if emp.DateOfJoining == nil || emp.DateOfJoining.IsZero() {
		issues = append(issues, FieldIssue{Field: "dateOfJoining", Reason: "is required"})
	}
	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}
