package alerts

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"myshop-backend/pkg/db/models"
)

// Subscriber is one alert row joined with the owning user's email.
type Subscriber struct {
	AlertID uuid.UUID
	UserID  uuid.UUID
	Email   string
}

// PriceDropSubscriber carries the price the user subscribed at so the
// notifier can skip rows where the new price is not actually lower.
type PriceDropSubscriber struct {
	AlertID       uuid.UUID
	UserID        uuid.UUID
	Email         string
	LastSeenPrice decimal.Decimal
}

// Repository persists wishlist entries and alert subscriptions.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds an alerts repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Wishlist

func (r *Repository) AddWishlistItem(ctx context.Context, userID, productID uuid.UUID) error {
	item := models.WishlistItem{UserID: userID, ProductID: productID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&item).Error
}

func (r *Repository) RemoveWishlistItem(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{})
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) HasWishlistItem(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WishlistItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) ListWishlist(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// Stock alerts

func (r *Repository) UpsertStockAlert(ctx context.Context, userID, productID uuid.UUID) error {
	alert := models.StockAlert{UserID: userID, ProductID: productID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&alert).Error
}

func (r *Repository) StockSubscribers(ctx context.Context, productID uuid.UUID) ([]Subscriber, error) {
	var rows []Subscriber
	err := r.db.WithContext(ctx).
		Table("stock_alerts").
		Select("stock_alerts.id AS alert_id, stock_alerts.user_id, users.email").
		Joins("JOIN users ON users.id = stock_alerts.user_id").
		Where("stock_alerts.product_id = ?", productID).
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) DeleteStockAlerts(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&models.StockAlert{}).Error
}

// Price drop alerts

func (r *Repository) UpsertPriceDropAlert(ctx context.Context, alert *models.PriceDropAlert) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_seen_price"}),
		}).
		Create(alert).Error
}

func (r *Repository) PriceDropSubscribers(ctx context.Context, productID uuid.UUID) ([]PriceDropSubscriber, error) {
	var rows []PriceDropSubscriber
	err := r.db.WithContext(ctx).
		Table("price_drop_alerts").
		Select("price_drop_alerts.id AS alert_id, price_drop_alerts.user_id, price_drop_alerts.last_seen_price, users.email").
		Joins("JOIN users ON users.id = price_drop_alerts.user_id").
		Where("price_drop_alerts.product_id = ?", productID).
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) DeletePriceDropAlerts(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&models.PriceDropAlert{}).Error
}
