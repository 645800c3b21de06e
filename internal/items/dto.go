package items

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sibusisodev/campusmart-backend/pkg/db/models"
	"github.com/sibusisodev/campusmart-backend/pkg/enums"
)

// ItemDTO is the listing shape returned to clients.
type ItemDTO struct {
	ID                     uuid.UUID           `json:"id"`
	SellerID               uuid.UUID           `json:"seller_id"`
	CategoryID             uuid.UUID           `json:"category_id"`
	Title                  string              `json:"title"`
	Description            string              `json:"description"`
	Price                  decimal.Decimal     `json:"price"`
	Condition              enums.ItemCondition `json:"condition"`
	Status                 enums.ItemStatus    `json:"status"`
	CollectionAddress      string              `json:"collection_address"`
	CollectionInstructions *string             `json:"collection_instructions,omitempty"`
	ViewsCount             int                 `json:"views_count"`
	Photos                 []PhotoDTO          `json:"photos"`
	PostedAt               time.Time           `json:"posted_at"`
	UpdatedAt              time.Time           `json:"updated_at"`
}

// PhotoDTO is the listing-facing view of one photo record.
type PhotoDTO struct {
	ID       uuid.UUID `json:"id"`
	URL      string    `json:"url"`
	Position int       `json:"position"`
}

// CategoryDTO exposes a browse category.
type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

// FromModel converts a listing row with its preloaded photos into a DTO.
func FromModel(item *models.Item) *ItemDTO {
	photos := make([]PhotoDTO, 0, len(item.Photos))
	for _, photo := range item.Photos {
		photos = append(photos, PhotoDTO{
			ID:       photo.ID,
			URL:      photo.URL,
			Position: photo.Position,
		})
	}
	return &ItemDTO{
		ID:                     item.ID,
		SellerID:               item.SellerID,
		CategoryID:             item.CategoryID,
		Title:                  item.Title,
		Description:            item.Description,
		Price:                  item.Price,
		Condition:              item.Condition,
		Status:                 item.Status,
		CollectionAddress:      item.CollectionAddress,
		CollectionInstructions: item.CollectionInstructions,
		ViewsCount:             item.ViewsCount,
		Photos:                 photos,
		PostedAt:               item.PostedAt,
		UpdatedAt:              item.UpdatedAt,
	}
}

// CategoryFromModel converts a category row into its DTO.
func CategoryFromModel(category *models.Category) *CategoryDTO {
	return &CategoryDTO{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
	}
}
