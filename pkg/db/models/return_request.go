package models

import (
	"time"

	"github.com/google/uuid"

	"myshop-backend/pkg/enums"
)

// ReturnRequest is a buyer's ask to return a delivered order.
// At most one exists per order. RefundProcessed tracks the payout side
// separately from the request decision.
type ReturnRequest struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID           uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	UserID            uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index:return_requests_user_id_idx"`
	Reason            string              `gorm:"column:reason;not null"`
	Status            enums.RequestStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	RefundMethod      enums.RefundMethod  `gorm:"column:refund_method;type:text;not null;default:'original'"`
	BankAccountName   *string             `gorm:"column:bank_account_name"`
	BankAccountNumber *string             `gorm:"column:bank_account_number"`
	BankIFSC          *string             `gorm:"column:bank_ifsc"`
	RefundProcessed   bool                `gorm:"column:refund_processed;not null;default:false"`
	Order             *Order              `gorm:"foreignKey:OrderID"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
