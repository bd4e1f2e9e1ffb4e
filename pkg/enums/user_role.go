package enums

import "fmt"

// UserRole identifies what kind of actor a user account represents.
type UserRole string

const (
	UserRoleBuyer         UserRole = "buyer"
	UserRoleSupplier      UserRole = "supplier"
	UserRoleAdmin         UserRole = "admin"
	UserRoleAdminReviewer UserRole = "admin_reviewer"
	UserRoleAdminFinance  UserRole = "admin_finance"
)

var validUserRoles = []UserRole{
	UserRoleBuyer,
	UserRoleSupplier,
	UserRoleAdmin,
	UserRoleAdminReviewer,
	UserRoleAdminFinance,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value matches a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the role belongs to the admin family. Admin roles
// bypass the onboarding access gates entirely.
func (r UserRole) IsAdmin() bool {
	switch r {
	case UserRoleAdmin, UserRoleAdminReviewer, UserRoleAdminFinance:
		return true
	}
	return false
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
