package enums

import "fmt"

// AgreementType identifies the legal document a user is asked to sign.
type AgreementType string

const (
	AgreementTypeFacility      AgreementType = "facility_agreement"
	AgreementTypeSupplierTerms AgreementType = "supplier_terms"
	AgreementTypeBuyerTerms    AgreementType = "buyer_terms"
)

var validAgreementTypes = []AgreementType{
	AgreementTypeFacility,
	AgreementTypeSupplierTerms,
	AgreementTypeBuyerTerms,
}

// String implements fmt.Stringer.
func (a AgreementType) String() string {
	return string(a)
}

// IsValid reports whether the value matches a known AgreementType.
func (a AgreementType) IsValid() bool {
	for _, candidate := range validAgreementTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAgreementType converts raw input into an AgreementType.
func ParseAgreementType(value string) (AgreementType, error) {
	for _, candidate := range validAgreementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid agreement type %q", value)
}

// AgreementStatus captures where an agreement sits in its lifecycle.
// presented and signed count as "active"; an agreement is never deleted.
type AgreementStatus string

const (
	AgreementStatusPending   AgreementStatus = "pending"
	AgreementStatusPresented AgreementStatus = "presented"
	AgreementStatusSigned    AgreementStatus = "signed"
)

var validAgreementStatuses = []AgreementStatus{
	AgreementStatusPending,
	AgreementStatusPresented,
	AgreementStatusSigned,
}

// String implements fmt.Stringer.
func (a AgreementStatus) String() string {
	return string(a)
}

// IsValid reports whether the value matches a known AgreementStatus.
func (a AgreementStatus) IsValid() bool {
	for _, candidate := range validAgreementStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// IsActive reports whether the agreement blocks creation of another of the
// same type for the same counterparty.
func (a AgreementStatus) IsActive() bool {
	return a == AgreementStatusPresented || a == AgreementStatusSigned
}

// ParseAgreementStatus converts raw input into an AgreementStatus.
func ParseAgreementStatus(value string) (AgreementStatus, error) {
	for _, candidate := range validAgreementStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid agreement status %q", value)
}
