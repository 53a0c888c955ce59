package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"myshop-backend/pkg/db/models"
	pkgerrors "myshop-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type alertNotifier interface {
	NotifyRestock(ctx context.Context, product models.Product)
	NotifyPriceDrop(ctx context.Context, product models.Product)
}

// ProductCreateInput describes a new catalog listing.
type ProductCreateInput struct {
	CategoryID  uuid.UUID
	Title       string
	Slug        string
	Description *string
	Price       decimal.Decimal
	MarketPrice *decimal.Decimal
	Stock       int
	Highlights  []string
	IsBestDeal  bool
}

// ProductUpdateInput carries optional admin edits.
type ProductUpdateInput struct {
	Title       *string
	Description *string
	Price       *decimal.Decimal
	MarketPrice *decimal.Decimal
	Stock       *int
	Highlights  []string
	IsBestDeal  *bool
	IsActive    *bool
}

// AdminService exposes the catalog write surface. Product updates drive
// the reactive restock and price-drop notifications.
type AdminService interface {
	CreateProduct(ctx context.Context, input ProductCreateInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductUpdateInput) (*models.Product, error)
	DeactivateProduct(ctx context.Context, id uuid.UUID) error
	CreateCategory(ctx context.Context, name, slug string) (*models.Category, error)
}

type adminService struct {
	repo   *Repository
	tx     txRunner
	alerts alertNotifier
}

// NewAdminService builds the catalog write service.
func NewAdminService(repo *Repository, tx txRunner, alerts alertNotifier) (AdminService, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if alerts == nil {
		return nil, fmt.Errorf("alert notifier required")
	}
	return &adminService{repo: repo, tx: tx, alerts: alerts}, nil
}

func (s *adminService) CreateProduct(ctx context.Context, input ProductCreateInput) (*models.Product, error) {
	if input.CategoryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id required")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product title required")
	}
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product slug required")
	}
	if !input.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product price must be positive")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product stock cannot be negative")
	}

	product := &models.Product{
		CategoryID:  input.CategoryID,
		Title:       title,
		Slug:        slug,
		Description: input.Description,
		Price:       input.Price,
		MarketPrice: input.MarketPrice,
		Stock:       input.Stock,
		Highlights:  input.Highlights,
		IsBestDeal:  input.IsBestDeal,
		IsActive:    true,
	}
	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "create product")
	}
	return created, nil
}

// UpdateProduct applies the edits, then fires restock and price-drop
// notifications after commit when the update crossed those edges.
// Notification failures never fail the update.
func (s *adminService) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductUpdateInput) (*models.Product, error) {
	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product title cannot be empty")
		}
		updates["title"] = title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Price != nil {
		if !input.Price.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product price must be positive")
		}
		updates["price"] = *input.Price
	}
	if input.MarketPrice != nil {
		updates["market_price"] = *input.MarketPrice
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product stock cannot be negative")
		}
		updates["stock"] = *input.Stock
	}
	if input.Highlights != nil {
		updates["highlights"] = pq.StringArray(input.Highlights)
	}
	if input.IsBestDeal != nil {
		updates["is_best_deal"] = *input.IsBestDeal
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no product fields to update")
	}

	var before *models.Product
	var after *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		before = loaded

		if err := repo.UpdateProduct(ctx, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
		}

		reloaded, err := repo.FindByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload product")
		}
		after = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	if before.Stock == 0 && after.Stock > 0 {
		s.alerts.NotifyRestock(ctx, *after)
	}
	if input.Price != nil && after.Price.LessThan(before.Price) {
		s.alerts.NotifyPriceDrop(ctx, *after)
	}

	return after, nil
}

func (s *adminService) DeactivateProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.UpdateProduct(ctx, id, map[string]any{"is_active": false}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate product")
	}
	return nil
}

func (s *adminService) CreateCategory(ctx context.Context, name, slug string) (*models.Category, error) {
	trimmedName := strings.TrimSpace(name)
	trimmedSlug := strings.ToLower(strings.TrimSpace(slug))
	if trimmedName == "" || trimmedSlug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name and slug required")
	}
	category, err := s.repo.CreateCategory(ctx, &models.Category{Name: trimmedName, Slug: trimmedSlug})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "create category")
	}
	return category, nil
}
