package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceDropAlert subscribes a user to a price-drop email for one product.
// LastSeenPrice is the price at subscription time; rows are consumed
// (deleted) when the email goes out.
type PriceDropAlert struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:price_drop_alerts_user_product_key"`
	ProductID     uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:price_drop_alerts_user_product_key;index:price_drop_alerts_product_id_idx"`
	LastSeenPrice decimal.Decimal `gorm:"column:last_seen_price;type:numeric(10,2);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}
