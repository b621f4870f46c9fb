package enums

import "fmt"

// Permission names one of the per-user administrative capability flags.
type Permission string

const (
	PermissionCreateUsers        Permission = "create_users"
	PermissionViewUsers          Permission = "view_users"
	PermissionUpdateUsers        Permission = "update_users"
	PermissionEditQualifications Permission = "edit_qualifications"
	PermissionCreateItems        Permission = "create_items"
	PermissionManageCheckouts    Permission = "manage_checkouts"
)

var validPermissions = []Permission{
	PermissionCreateUsers,
	PermissionViewUsers,
	PermissionUpdateUsers,
	PermissionEditQualifications,
	PermissionCreateItems,
	PermissionManageCheckouts,
}

// AllPermissions returns every known permission flag.
func AllPermissions() []Permission {
	out := make([]Permission, len(validPermissions))
	copy(out, validPermissions)
	return out
}

// String implements fmt.Stringer.
func (p Permission) String() string {
	return string(p)
}

// IsValid reports whether the value is a known Permission.
func (p Permission) IsValid() bool {
	for _, candidate := range validPermissions {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePermission converts raw input into a Permission.
func ParsePermission(value string) (Permission, error) {
	for _, candidate := range validPermissions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid permission %q", value)
}
