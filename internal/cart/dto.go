package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sibusisodev/campusmart-backend/pkg/db/models"
	"github.com/sibusisodev/campusmart-backend/pkg/enums"
)

// CartDTO is the buyer-facing cart view with joined listing data.
type CartDTO struct {
	ID        uuid.UUID       `json:"id"`
	BuyerID   uuid.UUID       `json:"buyer_id"`
	Items     []CartLineDTO   `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CartLineDTO is one listing inside the cart, annotated with its
// current availability.
type CartLineDTO struct {
	ID        uuid.UUID            `json:"id"`
	ItemID    uuid.UUID            `json:"item_id"`
	Title     string               `json:"title"`
	Price     decimal.Decimal      `json:"price"`
	Quantity  int                  `json:"quantity"`
	LineTotal decimal.Decimal      `json:"line_total"`
	SellerID  uuid.UUID            `json:"seller_id"`
	Status    enums.CartItemStatus `json:"status"`
	AddedAt   time.Time            `json:"added_at"`
}

func buildCartDTO(cart *models.Cart, listings map[uuid.UUID]*models.Item) *CartDTO {
	dto := &CartDTO{
		ID:        cart.ID,
		BuyerID:   cart.BuyerID,
		Items:     make([]CartLineDTO, 0, len(cart.Items)),
		Subtotal:  decimal.Zero,
		UpdatedAt: cart.UpdatedAt,
	}
	for _, line := range cart.Items {
		entry := CartLineDTO{
			ID:       line.ID,
			ItemID:   line.ItemID,
			Quantity: line.Quantity,
			Status:   enums.CartItemStatusInvalid,
			AddedAt:  line.AddedAt,
		}
		if listing, ok := listings[line.ItemID]; ok {
			entry.Title = listing.Title
			entry.Price = listing.Price
			entry.SellerID = listing.SellerID
			entry.LineTotal = listing.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			if listing.Status == enums.ItemStatusAvailable {
				entry.Status = enums.CartItemStatusOK
				dto.Subtotal = dto.Subtotal.Add(entry.LineTotal)
			} else {
				entry.Status = enums.CartItemStatusNotAvailable
			}
		}
		dto.Items = append(dto.Items, entry)
	}
	return dto
}
