package enums

import "fmt"

// PaymentMethod identifies how a buyer settles an order.
type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodDebitCard  PaymentMethod = "debit_card"
	PaymentMethodInstantEFT PaymentMethod = "instant_eft"
	PaymentMethodSnapScan   PaymentMethod = "snapscan"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCreditCard,
	PaymentMethodDebitCard,
	PaymentMethodInstantEFT,
	PaymentMethodSnapScan,
}

// IsValid reports whether the method is known.
func (m PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// IsCard reports whether the method settles through the card gateway.
func (m PaymentMethod) IsCard() bool {
	return m == PaymentMethodCreditCard || m == PaymentMethodDebitCard
}

// ParsePaymentMethod maps raw client input onto a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
