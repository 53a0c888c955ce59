package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"myshop-backend/pkg/enums"
)

// Order is a placed checkout with its money and fulfillment state.
type Order struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID             uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index:orders_user_id_idx"`
	AddressID          uuid.UUID           `gorm:"column:address_id;type:uuid;not null"`
	Status             enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentMode        enums.PaymentMode   `gorm:"column:payment_mode;type:text;not null"`
	PaymentStatus      enums.PaymentStatus `gorm:"column:payment_status;type:text;not null"`
	Subtotal           decimal.Decimal     `gorm:"column:subtotal;type:numeric(10,2);not null"`
	Discount           decimal.Decimal     `gorm:"column:discount;type:numeric(10,2);not null;default:0"`
	Total              decimal.Decimal     `gorm:"column:total;type:numeric(10,2);not null"`
	CouponCode         *string             `gorm:"column:coupon_code"`
	GatewayOrderID     *string             `gorm:"column:gateway_order_id;uniqueIndex"`
	GatewayPaymentID   *string             `gorm:"column:gateway_payment_id"`
	ExpectedDeliveryAt *time.Time          `gorm:"column:expected_delivery_at"`
	DeliveredAt        *time.Time          `gorm:"column:delivered_at"`
	Items              []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Address            *Address            `gorm:"foreignKey:AddressID"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem freezes a product line at the price paid.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index:order_items_order_id_idx"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Title     string          `gorm:"column:title;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Qty       int             `gorm:"column:qty;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
