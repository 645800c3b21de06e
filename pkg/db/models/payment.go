package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sibusisodev/campusmart-backend/pkg/enums"
)

// Payment records one settlement attempt against an order.
type Payment struct {
	ID                   uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID              uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	Method               enums.PaymentMethod `gorm:"column:method;not null"`
	Status               enums.PaymentStatus `gorm:"column:status;not null;default:'pending'"`
	Amount               decimal.Decimal     `gorm:"column:amount;type:numeric(10,2);not null"`
	TransactionReference string              `gorm:"column:transaction_reference;not null"`
	GatewayResponse      *string             `gorm:"column:gateway_response;type:jsonb"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
