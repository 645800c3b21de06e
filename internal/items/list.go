package items

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sibusisodev/campusmart-backend/pkg/enums"
	"github.com/sibusisodev/campusmart-backend/pkg/pagination"
)

// ListFilters describe the supported filter knobs for the browse endpoint.
type ListFilters struct {
	CategoryID *uuid.UUID           `json:"category_id,omitempty"`
	Condition  *enums.ItemCondition `json:"condition,omitempty"`
	Status     *enums.ItemStatus    `json:"status,omitempty"`
	PriceMin   *decimal.Decimal     `json:"price_min,omitempty"`
	PriceMax   *decimal.Decimal     `json:"price_max,omitempty"`
	Query      string               `json:"q,omitempty"`
}

// ListInput captures the inputs needed to paginate and filter listings.
type ListInput struct {
	SellerID   *uuid.UUID
	Filters    ListFilters
	Pagination pagination.Params
}

// ListResult is one page of listings plus the cursor for the next page.
type ListResult struct {
	Items      []ItemDTO `json:"items"`
	NextCursor string    `json:"next_cursor,omitempty"`
}
