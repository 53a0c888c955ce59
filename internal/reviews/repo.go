package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"myshop-backend/pkg/db/models"
	"myshop-backend/pkg/enums"
)

// Repository persists product reviews and answers the purchase check
// that gates them.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a reviews repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *Repository) Update(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("id = ?", review.ID).
		Updates(map[string]any{
			"rating":  review.Rating,
			"comment": review.Comment,
		}).Error
}

func (r *Repository) FindByUserProduct(ctx context.Context, userID, productID uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *Repository) ListRecent(ctx context.Context, productID uuid.UUID, limit int) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Limit(limit).
		Find(&reviews).Error
	return reviews, err
}

type aggregateRow struct {
	Average float64
	Count   int
}

// Aggregate returns the mean rating and review count for a product.
func (r *Repository) Aggregate(ctx context.Context, productID uuid.UUID) (float64, int, error) {
	var row aggregateRow
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&row).Error
	return row.Average, row.Count, err
}

// HasDeliveredPurchase reports whether the user has a delivered order
// containing the product.
func (r *Repository) HasDeliveredPurchase(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("order_items").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND orders.status = ? AND order_items.product_id = ?",
			userID, enums.OrderStatusDelivered, productID).
		Count(&count).Error
	return count > 0, err
}
