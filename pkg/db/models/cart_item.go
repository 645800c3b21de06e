package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one listing inside a cart.
type CartItem struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID   uuid.UUID `gorm:"column:cart_id;type:uuid;not null;index:idx_cart_items_cart_item,unique"`
	ItemID   uuid.UUID `gorm:"column:item_id;type:uuid;not null;index:idx_cart_items_cart_item,unique"`
	Quantity int       `gorm:"column:quantity;not null;default:1"`
	AddedAt  time.Time `gorm:"column:added_at;autoCreateTime"`
}
