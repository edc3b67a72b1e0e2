package models

import "strings"

// Role is the single capability class a user holds in the identity store.
type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleTechnician Role = "Technician"
	RoleClient     Role = "Client"
)

// ParseRole maps a stored role name onto a Role. Unknown or empty names fall back
// to RoleClient, the least privileged role.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin
	case "technician":
		return RoleTechnician
	default:
		return RoleClient
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleTechnician || r == RoleClient
}

func (r Role) IsAdmin() bool { return r == RoleAdmin }

// CanMessage reports whether a user with role sender may address a user with role receiver.
// At least one side of every conversation must be an admin.
func CanMessage(sender, receiver Role) bool {
	return sender.IsAdmin() || receiver.IsAdmin()
}
