package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem freezes the price of one listing at purchase time.
type OrderItem struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ItemID          uuid.UUID       `gorm:"column:item_id;type:uuid;not null"`
	Quantity        int             `gorm:"column:quantity;not null;default:1"`
	PriceAtPurchase decimal.Decimal `gorm:"column:price_at_purchase;type:numeric(10,2);not null"`
	LineTotal       decimal.Decimal `gorm:"column:line_total;type:numeric(10,2);not null"`
}
