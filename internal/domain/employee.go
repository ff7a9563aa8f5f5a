package domain

import "strings"

// Role enumerates employee roles known to the rule set. Directories may
// return roles outside this list; rules match them by exact name.
type Role string

const (
	RoleStaff      Role = "STAFF"
	RoleManager    Role = "MANAGER"
	RoleAdmin      Role = "ADMIN"
	RoleContractor Role = "CONTRACTOR"
)

// NormalizeRole upper-cases and trims a role name.
func NormalizeRole(role string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(role)))
}

// EmployeeRecord is the canonical directory entry for a requester.
type EmployeeRecord struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name,omitempty" yaml:"name"`
	Role        Role     `json:"role" yaml:"role"`
	Department  string   `json:"department" yaml:"department"`
	Seniority   string   `json:"seniority,omitempty" yaml:"seniority"`
	Permissions []string `json:"permissions,omitempty" yaml:"permissions"`
}

// HasPermission reports whether the employee was granted permission.
func (e EmployeeRecord) HasPermission(permission string) bool {
	for _, p := range e.Permissions {
		if strings.EqualFold(p, permission) {
			return true
		}
	}
	return false
}
