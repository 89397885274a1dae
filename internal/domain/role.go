package domain

import "strings"

// Role enumerates account roles carried in tokens.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleFaculty Role = "FACULTY"
	RoleAdmin   Role = "ADMIN"
	RoleOffice  Role = "OFFICE"
)

// Roles lists every supported role.
var Roles = []Role{RoleStudent, RoleFaculty, RoleAdmin, RoleOffice}

// NormalizeRole uppercases a raw role string.
func NormalizeRole(raw string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(raw)))
}

// Valid reports whether r is one of the supported roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}
