package enums

import "fmt"

// KYCStatus captures the lifecycle of a KYC application.
type KYCStatus string

const (
	KYCStatusPending          KYCStatus = "pending"
	KYCStatusUnderReview      KYCStatus = "under_review"
	KYCStatusReadyForDecision KYCStatus = "ready_for_decision"
	KYCStatusApproved         KYCStatus = "approved"
	KYCStatusRejected         KYCStatus = "rejected"
)

var validKYCStatuses = []KYCStatus{
	KYCStatusPending,
	KYCStatusUnderReview,
	KYCStatusReadyForDecision,
	KYCStatusApproved,
	KYCStatusRejected,
}

// String implements fmt.Stringer.
func (k KYCStatus) String() string {
	return string(k)
}

// IsValid reports whether the value matches a known KYCStatus.
func (k KYCStatus) IsValid() bool {
	for _, candidate := range validKYCStatuses {
		if candidate == k {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status ends the review workflow.
func (k KYCStatus) IsTerminal() bool {
	return k == KYCStatusApproved || k == KYCStatusRejected
}

// ParseKYCStatus converts raw input into a KYCStatus.
func ParseKYCStatus(value string) (KYCStatus, error) {
	for _, candidate := range validKYCStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid kyc status %q", value)
}
