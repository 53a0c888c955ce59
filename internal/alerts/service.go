package alerts

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"myshop-backend/internal/notifications"
	"myshop-backend/pkg/db/models"
	pkgerrors "myshop-backend/pkg/errors"
	"myshop-backend/pkg/logger"
)

// productFinder loads a product so subscriptions can snapshot its price.
type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service manages wishlists and alert subscriptions, and fans out the
// restock / price-drop emails when the catalog reports a stock or price
// transition. Notify methods never fail the calling transition; dispatch
// problems are logged and the consumed subscriptions stay in place.
type Service interface {
	ToggleWishlist(ctx context.Context, userID, productID uuid.UUID) (added bool, err error)
	ListWishlist(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error)
	SubscribeRestock(ctx context.Context, userID, productID uuid.UUID) error
	SubscribePriceDrop(ctx context.Context, userID, productID uuid.UUID) error

	NotifyRestock(ctx context.Context, product models.Product)
	NotifyPriceDrop(ctx context.Context, product models.Product)
}

type service struct {
	repo       *Repository
	products   productFinder
	dispatcher notifications.Dispatcher
	logger     *logger.Logger
}

// NewService builds the alerts service.
func NewService(repo *Repository, products productFinder, dispatcher notifications.Dispatcher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, products: products, dispatcher: dispatcher, logger: logg}, nil
}

func (s *service) ToggleWishlist(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return false, err
	}
	removed, err := s.repo.RemoveWishlistItem(ctx, userID, productID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "toggle wishlist")
	}
	if removed {
		return false, nil
	}
	if err := s.repo.AddWishlistItem(ctx, userID, productID); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "toggle wishlist")
	}
	return true, nil
}

func (s *service) ListWishlist(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	items, err := s.repo.ListWishlist(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}
	return items, nil
}

func (s *service) SubscribeRestock(ctx context.Context, userID, productID uuid.UUID) error {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if product.Stock > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "product is already in stock")
	}
	if err := s.repo.UpsertStockAlert(ctx, userID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "subscribe restock")
	}
	return nil
}

func (s *service) SubscribePriceDrop(ctx context.Context, userID, productID uuid.UUID) error {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	alert := &models.PriceDropAlert{
		ID:            uuid.New(),
		UserID:        userID,
		ProductID:     productID,
		LastSeenPrice: product.Price,
	}
	if err := s.repo.UpsertPriceDropAlert(ctx, alert); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "subscribe price drop")
	}
	return nil
}

func (s *service) NotifyRestock(ctx context.Context, product models.Product) {
	ctx = s.logger.WithFields(ctx, map[string]any{"product_id": product.ID.String()})

	subs, err := s.repo.StockSubscribers(ctx, product.ID)
	if err != nil {
		s.logger.Error(ctx, "load restock subscribers", err)
		return
	}

	var consumed []uuid.UUID
	for _, sub := range subs {
		if err := s.dispatcher.RestockAlert(ctx, sub.Email, product); err != nil {
			continue
		}
		consumed = append(consumed, sub.AlertID)
	}
	if err := s.repo.DeleteStockAlerts(ctx, consumed); err != nil {
		s.logger.Error(ctx, "consume restock subscriptions", err)
	}
}

func (s *service) NotifyPriceDrop(ctx context.Context, product models.Product) {
	ctx = s.logger.WithFields(ctx, map[string]any{"product_id": product.ID.String()})

	subs, err := s.repo.PriceDropSubscribers(ctx, product.ID)
	if err != nil {
		s.logger.Error(ctx, "load price drop subscribers", err)
		return
	}

	var consumed []uuid.UUID
	for _, sub := range subs {
		if !priceDropped(sub.LastSeenPrice, product.Price) {
			continue
		}
		if err := s.dispatcher.PriceDropAlert(ctx, sub.Email, product, sub.LastSeenPrice); err != nil {
			continue
		}
		consumed = append(consumed, sub.AlertID)
	}
	if err := s.repo.DeletePriceDropAlerts(ctx, consumed); err != nil {
		s.logger.Error(ctx, "consume price drop subscriptions", err)
	}
}

func priceDropped(lastSeen, current decimal.Decimal) bool {
	return current.LessThan(lastSeen)
}
