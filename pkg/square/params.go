package square

import (
	"strings"

	sq "github.com/square/square-go-sdk"
)

const defaultCurrency = "ZAR"

// PaymentCreateParams carries everything needed to charge a saved card
// or one-off source through Square.
type PaymentCreateParams struct {
	AmountCents    int64
	Currency       string
	LocationID     string
	CustomerID     string
	SourceID       string
	IdempotencyKey string
	Note           string
	ReferenceID    string
}

func (p PaymentCreateParams) toSquareRequest(idempotencyKey string) *sq.CreatePaymentRequest {
	return &sq.CreatePaymentRequest{
		IdempotencyKey: idempotencyKey,
		SourceID:       p.SourceID,
		LocationID:     optString(p.LocationID),
		CustomerID:     optString(p.CustomerID),
		AmountMoney:    moneyOf(p.AmountCents, p.Currency),
		Note:           optString(p.Note),
		ReferenceID:    optString(p.ReferenceID),
	}
}

// optString maps blank or whitespace-only input to nil so the SDK omits
// the field from the request body.
func optString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func moneyOf(amountCents int64, currency string) *sq.Money {
	if amountCents <= 0 {
		return nil
	}
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		code = defaultCurrency
	}
	c := sq.Currency(code)
	return &sq.Money{
		Amount:   &amountCents,
		Currency: &c,
	}
}
