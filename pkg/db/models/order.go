package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sibusisodev/campusmart-backend/pkg/enums"
)

// Order is a buyer/seller agreement snapshot taken at checkout.
type Order struct {
	ID                     uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID                uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null;index"`
	SellerID               uuid.UUID         `gorm:"column:seller_id;type:uuid;not null;index"`
	Status                 enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	Total                  decimal.Decimal   `gorm:"column:total;type:numeric(10,2);not null"`
	DeliveryCost           decimal.Decimal   `gorm:"column:delivery_cost;type:numeric(10,2);not null;default:0"`
	CollectionAddress      string            `gorm:"column:collection_address;not null"`
	CollectionInstructions *string           `gorm:"column:collection_instructions"`
	Notes                  *string           `gorm:"column:notes"`
	Items                  []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PlacedAt               time.Time         `gorm:"column:placed_at;autoCreateTime"`
	CompletedAt            *time.Time        `gorm:"column:completed_at"`
	UpdatedAt              time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
