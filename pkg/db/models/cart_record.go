package models

import (
	"time"

	"github.com/google/uuid"

	"myshop-backend/pkg/enums"
)

// CartRecord is the single active cart a user shops with.
type CartRecord struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index:cart_records_user_id_idx"`
	Status    enums.CartStatus `gorm:"column:status;type:text;not null;default:'active'"`
	CouponID  *uuid.UUID       `gorm:"column:coupon_id;type:uuid"`
	Items     []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	Coupon    *Coupon          `gorm:"foreignKey:CouponID"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
