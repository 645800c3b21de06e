package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sibusisodev/campusmart-backend/pkg/enums"
)

// Item represents a seller's listing.
type Item struct {
	ID                     uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID               uuid.UUID           `gorm:"column:seller_id;type:uuid;not null;index"`
	CategoryID             uuid.UUID           `gorm:"column:category_id;type:uuid;not null;index"`
	Title                  string              `gorm:"column:title;not null"`
	Description            string              `gorm:"column:description;not null"`
	Price                  decimal.Decimal     `gorm:"column:price;type:numeric(10,2);not null"`
	Condition              enums.ItemCondition `gorm:"column:condition;not null"`
	Status                 enums.ItemStatus    `gorm:"column:status;not null;default:'available'"`
	CollectionAddress      string              `gorm:"column:collection_address;not null"`
	CollectionInstructions *string             `gorm:"column:collection_instructions"`
	ViewsCount             int                 `gorm:"column:views_count;not null;default:0"`
	Photos                 []ItemPhoto         `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
	PostedAt               time.Time           `gorm:"column:posted_at;autoCreateTime"`
	UpdatedAt              time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
