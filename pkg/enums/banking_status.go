package enums

import "fmt"

// BankingStatus captures the verification state of submitted banking details.
type BankingStatus string

const (
	BankingStatusPending  BankingStatus = "pending"
	BankingStatusVerified BankingStatus = "verified"
	BankingStatusRejected BankingStatus = "rejected"
)

var validBankingStatuses = []BankingStatus{
	BankingStatusPending,
	BankingStatusVerified,
	BankingStatusRejected,
}

// String implements fmt.Stringer.
func (b BankingStatus) String() string {
	return string(b)
}

// IsValid reports whether the value matches a known BankingStatus.
func (b BankingStatus) IsValid() bool {
	for _, candidate := range validBankingStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBankingStatus converts raw input into a BankingStatus.
func ParseBankingStatus(value string) (BankingStatus, error) {
	for _, candidate := range validBankingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid banking status %q", value)
}
