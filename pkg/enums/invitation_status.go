package enums

import "fmt"

// InvitationStatus captures the supplier invitation lifecycle.
// expired is derived at read time from expires_at and is never persisted.
type InvitationStatus string

const (
	InvitationStatusSent       InvitationStatus = "sent"
	InvitationStatusOpened     InvitationStatus = "opened"
	InvitationStatusRegistered InvitationStatus = "registered"
	InvitationStatusCompleted  InvitationStatus = "completed"
	InvitationStatusCancelled  InvitationStatus = "cancelled"
	InvitationStatusExpired    InvitationStatus = "expired"
)

var validInvitationStatuses = []InvitationStatus{
	InvitationStatusSent,
	InvitationStatusOpened,
	InvitationStatusRegistered,
	InvitationStatusCompleted,
	InvitationStatusCancelled,
	InvitationStatusExpired,
}

// String implements fmt.Stringer.
func (i InvitationStatus) String() string {
	return string(i)
}

// IsValid reports whether the value matches a known InvitationStatus.
func (i InvitationStatus) IsValid() bool {
	for _, candidate := range validInvitationStatuses {
		if candidate == i {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the invitation can no longer move forward.
func (i InvitationStatus) IsTerminal() bool {
	return i == InvitationStatusCompleted || i == InvitationStatusCancelled
}

// ParseInvitationStatus converts raw input into an InvitationStatus.
func ParseInvitationStatus(value string) (InvitationStatus, error) {
	for _, candidate := range validInvitationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invitation status %q", value)
}
