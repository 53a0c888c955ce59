package models

import (
	"time"

	"github.com/google/uuid"
)

// Coupon is a percent-off discount valid inside a date window.
type Coupon struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code           string    `gorm:"column:code;not null;uniqueIndex"`
	Percent        int       `gorm:"column:percent;not null"`
	ValidFrom      time.Time `gorm:"column:valid_from;not null"`
	ValidTo        time.Time `gorm:"column:valid_to;not null"`
	IsActive       bool      `gorm:"column:is_active;not null;default:true"`
	ShowOnHomepage bool      `gorm:"column:show_on_homepage;not null;default:false"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
