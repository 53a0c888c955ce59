package coupons

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"myshop-backend/pkg/db/models"
)

// Repository persists coupons.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	List(ctx context.Context) ([]models.Coupon, error)
	ListHomepage(ctx context.Context) ([]models.Coupon, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a coupon repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error) {
	if err := r.db.WithContext(ctx).Create(coupon).Error; err != nil {
		return nil, err
	}
	return coupon, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Coupon{}).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// FindByCode matches case-insensitively so SAVE20 and save20 are the same
// coupon.
func (r *repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		Where("LOWER(code) = LOWER(?)", code).
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *repository) List(ctx context.Context) ([]models.Coupon, error) {
	var coupons []models.Coupon
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&coupons).Error
	if err != nil {
		return nil, err
	}
	return coupons, nil
}

func (r *repository) ListHomepage(ctx context.Context) ([]models.Coupon, error) {
	var coupons []models.Coupon
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND show_on_homepage = ?", true, true).
		Order("created_at DESC").
		Find(&coupons).Error
	if err != nil {
		return nil, err
	}
	return coupons, nil
}
