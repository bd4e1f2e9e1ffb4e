package enums

import "fmt"

// CompanyType distinguishes buyer and supplier companies. The pair
// (registration_number, company_type) is unique among claimed companies.
type CompanyType string

const (
	CompanyTypeBuyer    CompanyType = "buyer"
	CompanyTypeSupplier CompanyType = "supplier"
)

var validCompanyTypes = []CompanyType{
	CompanyTypeBuyer,
	CompanyTypeSupplier,
}

// String implements fmt.Stringer.
func (c CompanyType) String() string {
	return string(c)
}

// IsValid reports whether the value matches a known CompanyType.
func (c CompanyType) IsValid() bool {
	for _, candidate := range validCompanyTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCompanyType converts raw input into a CompanyType.
func ParseCompanyType(value string) (CompanyType, error) {
	for _, candidate := range validCompanyTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid company type %q", value)
}

// CompanyTypeForRole infers the company type from an authenticated user's role.
func CompanyTypeForRole(role UserRole) (CompanyType, bool) {
	switch role {
	case UserRoleBuyer:
		return CompanyTypeBuyer, true
	case UserRoleSupplier:
		return CompanyTypeSupplier, true
	}
	return "", false
}
