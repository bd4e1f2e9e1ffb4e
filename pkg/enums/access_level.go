package enums

import "fmt"

// AccessLevel is the coarse onboarding stage that gates dashboard features.
// Levels are strictly ordered; a user's level never regresses under normal flow.
type AccessLevel string

const (
	AccessLevelPreKYC           AccessLevel = "pre_kyc"
	AccessLevelKYCApproved      AccessLevel = "kyc_approved"
	AccessLevelBankingSubmitted AccessLevel = "banking_submitted"
	AccessLevelAgreementSigned  AccessLevel = "agreement_signed"
	AccessLevelBankingVerified  AccessLevel = "banking_verified"
)

var validAccessLevels = []AccessLevel{
	AccessLevelPreKYC,
	AccessLevelKYCApproved,
	AccessLevelBankingSubmitted,
	AccessLevelAgreementSigned,
	AccessLevelBankingVerified,
}

var accessLevelRanks = map[AccessLevel]int{
	AccessLevelPreKYC:           0,
	AccessLevelKYCApproved:      1,
	AccessLevelBankingSubmitted: 2,
	AccessLevelAgreementSigned:  3,
	AccessLevelBankingVerified:  4,
}

// String implements fmt.Stringer.
func (a AccessLevel) String() string {
	return string(a)
}

// IsValid reports whether the value matches a known AccessLevel.
func (a AccessLevel) IsValid() bool {
	_, ok := accessLevelRanks[a]
	return ok
}

// Rank returns the position of the level in the onboarding progression.
// Unknown levels rank below pre_kyc.
func (a AccessLevel) Rank() int {
	if rank, ok := accessLevelRanks[a]; ok {
		return rank
	}
	return -1
}

// AtLeast reports whether the level is equal to or past the given level.
func (a AccessLevel) AtLeast(other AccessLevel) bool {
	return a.Rank() >= other.Rank()
}

// ParseAccessLevel converts raw input into an AccessLevel.
func ParseAccessLevel(value string) (AccessLevel, error) {
	for _, candidate := range validAccessLevels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid access level %q", value)
}
