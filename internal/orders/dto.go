package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sibusisodev/campusmart-backend/pkg/db/models"
	"github.com/sibusisodev/campusmart-backend/pkg/enums"
)

// OrderDTO is the client-facing order shape.
type OrderDTO struct {
	ID                     uuid.UUID         `json:"id"`
	BuyerID                uuid.UUID         `json:"buyer_id"`
	SellerID               uuid.UUID         `json:"seller_id"`
	Status                 enums.OrderStatus `json:"status"`
	Total                  decimal.Decimal   `json:"total"`
	DeliveryCost           decimal.Decimal   `json:"delivery_cost"`
	CollectionAddress      string            `json:"collection_address"`
	CollectionInstructions *string           `json:"collection_instructions,omitempty"`
	Notes                  *string           `json:"notes,omitempty"`
	Items                  []OrderLineDTO    `json:"items"`
	PlacedAt               time.Time         `json:"placed_at"`
	CompletedAt            *time.Time        `json:"completed_at,omitempty"`
}

// OrderLineDTO is one priced line inside an order.
type OrderLineDTO struct {
	ID              uuid.UUID       `json:"id"`
	ItemID          uuid.UUID       `json:"item_id"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

// FromModel converts an order row with its lines into a DTO.
func FromModel(order *models.Order) *OrderDTO {
	lines := make([]OrderLineDTO, 0, len(order.Items))
	for _, line := range order.Items {
		lines = append(lines, OrderLineDTO{
			ID:              line.ID,
			ItemID:          line.ItemID,
			Quantity:        line.Quantity,
			PriceAtPurchase: line.PriceAtPurchase,
			LineTotal:       line.LineTotal,
		})
	}
	return &OrderDTO{
		ID:                     order.ID,
		BuyerID:                order.BuyerID,
		SellerID:               order.SellerID,
		Status:                 order.Status,
		Total:                  order.Total,
		DeliveryCost:           order.DeliveryCost,
		CollectionAddress:      order.CollectionAddress,
		CollectionInstructions: order.CollectionInstructions,
		Notes:                  order.Notes,
		Items:                  lines,
		PlacedAt:               order.PlacedAt,
		CompletedAt:            order.CompletedAt,
	}
}
