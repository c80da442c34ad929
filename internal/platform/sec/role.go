// Copyright (c) 2026 Wearmint. All rights reserved.

package sec

// # User Roles

// UserRole represents the authorization level granted to a CMS account.
type UserRole string

const (
	// Unrestricted system access
	RoleAdmin UserRole = "admin"

	// Can create, publish, and sell catalog entities
	RoleManager UserRole = "manager"

	// Read-only access to the catalog
	RoleViewer UserRole = "viewer"
)

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {

	// Linear scale (10-30) allows for future intermediate roles
	switch r {
	case RoleAdmin:
		return 30
	case RoleManager:
		return 20
	case RoleViewer:
		return 10
	default:
		return 0
	}
}
