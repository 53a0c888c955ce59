package models

import (
	"time"

	"github.com/google/uuid"
)

// StockAlert subscribes a user to a restock email for one product.
// Rows are consumed (deleted) when the email goes out.
type StockAlert struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:stock_alerts_user_product_key"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:stock_alerts_user_product_key;index:stock_alerts_product_id_idx"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
