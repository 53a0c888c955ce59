package models

import (
	"time"

	"github.com/google/uuid"

	"myshop-backend/pkg/enums"
)

// CancellationRequest is a buyer's ask to cancel an undelivered order.
// At most one exists per order.
type CancellationRequest struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	UserID    uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index:cancellation_requests_user_id_idx"`
	Reason    string              `gorm:"column:reason;not null"`
	Status    enums.RequestStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Order     *Order              `gorm:"foreignKey:OrderID"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
