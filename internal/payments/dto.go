package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sibusisodev/campusmart-backend/pkg/db/models"
	"github.com/sibusisodev/campusmart-backend/pkg/enums"
)

// PaymentDTO is the client-facing payment record.
type PaymentDTO struct {
	ID                   uuid.UUID           `json:"id"`
	OrderID              uuid.UUID           `json:"order_id"`
	Method               enums.PaymentMethod `json:"method"`
	Status               enums.PaymentStatus `json:"status"`
	Amount               decimal.Decimal     `json:"amount"`
	TransactionReference string              `json:"transaction_reference"`
	CreatedAt            time.Time           `json:"created_at"`
}

// FromModel converts a payment row into its DTO. The raw gateway
// response stays server-side.
func FromModel(payment *models.Payment) *PaymentDTO {
	return &PaymentDTO{
		ID:                   payment.ID,
		OrderID:              payment.OrderID,
		Method:               payment.Method,
		Status:               payment.Status,
		Amount:               payment.Amount,
		TransactionReference: payment.TransactionReference,
		CreatedAt:            payment.CreatedAt,
	}
}
