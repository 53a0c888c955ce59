package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product represents the canonical catalog listing.
type Product struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID  uuid.UUID        `gorm:"column:category_id;type:uuid;not null;index:products_category_id_idx"`
	Title       string           `gorm:"column:title;not null"`
	Slug        string           `gorm:"column:slug;not null;uniqueIndex"`
	Description *string          `gorm:"column:description"`
	Price       decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null"`
	MarketPrice *decimal.Decimal `gorm:"column:market_price;type:numeric(10,2)"`
	Stock       int              `gorm:"column:stock;not null;default:0"`
	Highlights  pq.StringArray   `gorm:"column:highlights;type:text[];not null;default:ARRAY[]::text[]"`
	IsBestDeal  bool             `gorm:"column:is_best_deal;not null;default:false"`
	IsActive    bool             `gorm:"column:is_active;not null;default:true"`
	Category    *Category        `gorm:"foreignKey:CategoryID"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// InStock reports whether the listing currently has purchasable units.
func (p Product) InStock() bool {
	return p.Stock > 0
}
