package deals

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"myshop-backend/pkg/db/models"
)

// Repository persists time-boxed deals.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, deal *models.Deal) (*models.Deal, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Deal, error)
	FindLiveByProduct(ctx context.Context, productID uuid.UUID, now time.Time) (*models.Deal, error)
	MapLiveByProducts(ctx context.Context, productIDs []uuid.UUID, now time.Time) (map[uuid.UUID]*models.Deal, error)
	ListLive(ctx context.Context, now time.Time) ([]models.Deal, error)
	DeactivateActiveByProduct(ctx context.Context, productID uuid.UUID) error
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a deals repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, deal *models.Deal) (*models.Deal, error) {
	if err := r.db.WithContext(ctx).Create(deal).Error; err != nil {
		return nil, err
	}
	return deal, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Deal{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Deal{}).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Deal, error) {
	var deal models.Deal
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&deal).Error
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

func (r *repository) FindLiveByProduct(ctx context.Context, productID uuid.UUID, now time.Time) (*models.Deal, error) {
	var deal models.Deal
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND is_active = ? AND ends_at > ?", productID, true, now).
		Order("ends_at ASC").
		First(&deal).Error
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

func (r *repository) MapLiveByProducts(ctx context.Context, productIDs []uuid.UUID, now time.Time) (map[uuid.UUID]*models.Deal, error) {
	result := make(map[uuid.UUID]*models.Deal, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}

	var rows []models.Deal
	err := r.db.WithContext(ctx).
		Where("product_id IN ? AND is_active = ? AND ends_at > ?", productIDs, true, now).
		Order("ends_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		deal := rows[i]
		if _, exists := result[deal.ProductID]; !exists {
			result[deal.ProductID] = &deal
		}
	}
	return result, nil
}

func (r *repository) ListLive(ctx context.Context, now time.Time) ([]models.Deal, error) {
	var rows []models.Deal
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("is_active = ? AND ends_at > ?", true, now).
		Order("ends_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) DeactivateActiveByProduct(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Deal{}).
		Where("product_id = ? AND is_active = ?", productID, true).
		Update("is_active", false).Error
}

func (r *repository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Deal{}).
		Where("is_active = ? AND ends_at <= ?", true, now).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}
