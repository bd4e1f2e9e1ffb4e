package enums

import "fmt"

// LinkStatus captures the state of a buyer-supplier trading link.
type LinkStatus string

const (
	LinkStatusPending LinkStatus = "pending"
	LinkStatusActive  LinkStatus = "active"
)

var validLinkStatuses = []LinkStatus{
	LinkStatusPending,
	LinkStatusActive,
}

// String implements fmt.Stringer.
func (l LinkStatus) String() string {
	return string(l)
}

// IsValid reports whether the value matches a known LinkStatus.
func (l LinkStatus) IsValid() bool {
	for _, candidate := range validLinkStatuses {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLinkStatus converts raw input into a LinkStatus.
func ParseLinkStatus(value string) (LinkStatus, error) {
	for _, candidate := range validLinkStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid link status %q", value)
}
