package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"myshop-backend/pkg/pagination"
)

// ListFilters describe the filter knobs for the browse endpoint.
type ListFilters struct {
	Query        string           `json:"q,omitempty"`
	CategorySlug string           `json:"category,omitempty"`
	PriceMin     *decimal.Decimal `json:"price_min,omitempty"`
	PriceMax     *decimal.Decimal `json:"price_max,omitempty"`
	BestDeal     *bool            `json:"best_deal,omitempty"`
}

// ListInput captures the inputs needed to paginate and filter products.
type ListInput struct {
	Filters    ListFilters
	Pagination pagination.Params
}

// Summary is one row of the browse listing, with the live deal overlaid.
type Summary struct {
	ID             uuid.UUID        `json:"id"`
	Title          string           `json:"title"`
	Slug           string           `json:"slug"`
	CategoryID     uuid.UUID        `json:"category_id"`
	Price          decimal.Decimal  `json:"price"`
	MarketPrice    *decimal.Decimal `json:"market_price,omitempty"`
	EffectivePrice decimal.Decimal  `json:"effective_price"`
	DealEndsAt     *time.Time       `json:"deal_ends_at,omitempty"`
	InStock        bool             `json:"in_stock"`
	IsBestDeal     bool             `json:"is_best_deal"`
	CreatedAt      time.Time        `json:"created_at"`
}

// ListResult pairs a page of summaries with the cursor for the next page.
type ListResult struct {
	Products   []Summary `json:"products"`
	NextCursor string    `json:"next_cursor,omitempty"`
}
