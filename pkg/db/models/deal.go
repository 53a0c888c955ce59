package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Deal is a time-boxed discount price for a single product.
type Deal struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index:deals_product_id_idx"`
	DealPrice decimal.Decimal `gorm:"column:deal_price;type:numeric(10,2);not null"`
	EndsAt    time.Time       `gorm:"column:ends_at;not null"`
	IsActive  bool            `gorm:"column:is_active;not null;default:true"`
	Product   *Product        `gorm:"foreignKey:ProductID"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// LiveAt reports whether the deal discounts pricing at the given instant.
func (d Deal) LiveAt(now time.Time) bool {
	return d.IsActive && now.Before(d.EndsAt)
}
