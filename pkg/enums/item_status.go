package enums

import "fmt"

// ItemStatus tracks the listing lifecycle.
type ItemStatus string

const (
	ItemStatusAvailable ItemStatus = "available"
	ItemStatusPending   ItemStatus = "pending"
	ItemStatusSold      ItemStatus = "sold"
	ItemStatusRemoved   ItemStatus = "removed"
)

var validItemStatuses = []ItemStatus{
	ItemStatusAvailable,
	ItemStatusPending,
	ItemStatusSold,
	ItemStatusRemoved,
}

// IsValid reports whether the status is part of the listing lifecycle.
func (s ItemStatus) IsValid() bool {
	for _, candidate := range validItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the status can move to next.
// available <-> pending, either -> sold|removed. Sold and removed are terminal.
func (s ItemStatus) CanTransitionTo(next ItemStatus) bool {
	switch s {
	case ItemStatusAvailable:
		return next == ItemStatusPending || next == ItemStatusSold || next == ItemStatusRemoved
	case ItemStatusPending:
		return next == ItemStatusAvailable || next == ItemStatusSold || next == ItemStatusRemoved
	default:
		return false
	}
}

// ParseItemStatus converts raw input into an ItemStatus.
func ParseItemStatus(value string) (ItemStatus, error) {
	for _, candidate := range validItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item status %q", value)
}
