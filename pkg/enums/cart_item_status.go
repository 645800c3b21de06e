package enums

import "fmt"

// CartItemStatus records whether a cart line still points at a
// purchasable listing. It is recomputed on every cart read.
type CartItemStatus string

const (
	// CartItemStatusOK means the listing exists and is available.
	CartItemStatusOK CartItemStatus = "ok"
	// CartItemStatusNotAvailable means the listing exists but can no
	// longer be bought (pending, sold or removed).
	CartItemStatusNotAvailable CartItemStatus = "not_available"
	// CartItemStatusInvalid means the listing row is gone entirely.
	CartItemStatusInvalid CartItemStatus = "invalid"
)

// Purchasable reports whether a line in this state may proceed to
// checkout.
func (c CartItemStatus) Purchasable() bool {
	return c == CartItemStatusOK
}

// IsValid reports whether the value is one of the recognized states.
func (c CartItemStatus) IsValid() bool {
	switch c {
	case CartItemStatusOK, CartItemStatusNotAvailable, CartItemStatusInvalid:
		return true
	}
	return false
}

// ParseCartItemStatus maps raw input onto a CartItemStatus.
func ParseCartItemStatus(value string) (CartItemStatus, error) {
	status := CartItemStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid cart item status %q", value)
	}
	return status, nil
}
