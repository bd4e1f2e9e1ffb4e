package enums

import "fmt"

// NotificationKind classifies in-app notifications emitted at onboarding milestones.
type NotificationKind string

const (
	NotificationKindKYCApproved        NotificationKind = "kyc_approved"
	NotificationKindKYCRejected        NotificationKind = "kyc_rejected"
	NotificationKindAgreementPresented NotificationKind = "agreement_presented"
	NotificationKindAgreementSigned    NotificationKind = "agreement_signed"
	NotificationKindBankingVerified    NotificationKind = "banking_verified"
	NotificationKindInvitationReceived NotificationKind = "invitation_received"
)

var validNotificationKinds = []NotificationKind{
	NotificationKindKYCApproved,
	NotificationKindKYCRejected,
	NotificationKindAgreementPresented,
	NotificationKindAgreementSigned,
	NotificationKindBankingVerified,
	NotificationKindInvitationReceived,
}

// String implements fmt.Stringer.
func (n NotificationKind) String() string {
	return string(n)
}

// IsValid reports whether the value matches a known NotificationKind.
func (n NotificationKind) IsValid() bool {
	for _, candidate := range validNotificationKinds {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationKind converts raw input into a NotificationKind.
func ParseNotificationKind(value string) (NotificationKind, error) {
	for _, candidate := range validNotificationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification kind %q", value)
}
