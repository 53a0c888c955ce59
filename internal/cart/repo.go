package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"myshop-backend/pkg/db/models"
	"myshop-backend/pkg/enums"
)

// Repository exposes persistence operations for cart records and lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new cart record.
func (r *Repository) Create(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error) {
	if record.Status == "" {
		record.Status = enums.CartStatusActive
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// FindActiveByUser loads the user's active cart with its lines and products.
func (r *Repository) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	var record models.CartRecord
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.created_at ASC")
		}).
		Preload("Items.Product").
		Where("user_id = ? AND status = ?", userID, enums.CartStatusActive).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// SetCoupon attaches or clears the cart's coupon reference.
func (r *Repository) SetCoupon(ctx context.Context, cartID uuid.UUID, couponID *uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.CartRecord{}).
		Where("id = ?", cartID).
		Update("coupon_id", couponID).Error
}

// MarkConverted flips an active cart to converted. Returns the number of
// rows claimed so callers can detect a cart that already converted.
func (r *Repository) MarkConverted(ctx context.Context, cartID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartRecord{}).
		Where("id = ? AND status = ?", cartID, enums.CartStatusActive).
		Update("status", enums.CartStatusConverted)
	return res.RowsAffected, res.Error
}

// Lines

func (r *Repository) FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *Repository) UpdateItemQty(ctx context.Context, itemID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("qty", qty).Error
}

func (r *Repository) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

// DeleteStaleActive removes up to limit active carts untouched since the
// cutoff, oldest first, together with their lines. Used by the cleanup job.
func (r *Repository) DeleteStaleActive(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.CartRecord{}).
		Where("status = ? AND updated_at < ?", enums.CartStatusActive, cutoff).
		Order("updated_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var ids []uuid.UUID
	err := query.Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := r.db.WithContext(ctx).
		Where("cart_id IN ?", ids).
		Delete(&models.CartItem{}).Error; err != nil {
		return 0, err
	}
	res := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&models.CartRecord{})
	return res.RowsAffected, res.Error
}
