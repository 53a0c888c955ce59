package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"myshop-backend/internal/pricing"
	"myshop-backend/pkg/db/models"
	pkgerrors "myshop-backend/pkg/errors"
)

type dealFinder interface {
	LiveForProduct(ctx context.Context, productID uuid.UUID, now time.Time) (*models.Deal, error)
	LiveForProducts(ctx context.Context, productIDs []uuid.UUID, now time.Time) (map[uuid.UUID]*models.Deal, error)
}

type reviewSummarizer interface {
	Summarize(ctx context.Context, productID uuid.UUID) (*ReviewSummary, error)
}

// ReviewSummary aggregates the review signal shown on the product page.
type ReviewSummary struct {
	Average decimal.Decimal `json:"average"`
	Count   int             `json:"count"`
	Recent  []models.Review `json:"recent"`
}

// Detail is the full product page payload.
type Detail struct {
	Product models.Product  `json:"product"`
	Deal    *models.Deal    `json:"deal,omitempty"`
	Reviews *ReviewSummary  `json:"reviews,omitempty"`
	Price   decimal.Decimal `json:"effective_price"`
}

// Service exposes the storefront catalog read surface.
type Service interface {
	List(ctx context.Context, input ListInput, now time.Time) (*ListResult, error)
	Detail(ctx context.Context, slug string, now time.Time) (*Detail, error)
	Categories(ctx context.Context) ([]models.Category, error)
}

type service struct {
	repo    *Repository
	deals   dealFinder
	reviews reviewSummarizer
}

// NewService builds the catalog read service.
func NewService(repo *Repository, deals dealFinder, reviews reviewSummarizer) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if deals == nil {
		return nil, fmt.Errorf("deal finder required")
	}
	if reviews == nil {
		return nil, fmt.Errorf("review summarizer required")
	}
	return &service{repo: repo, deals: deals, reviews: reviews}, nil
}

func (s *service) List(ctx context.Context, input ListInput, now time.Time) (*ListResult, error) {
	rows, nextCursor, err := s.repo.ListProducts(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	dealByProduct, err := s.deals.LiveForProducts(ctx, ids, now)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(rows))
	for _, row := range rows {
		deal := dealByProduct[row.ID]
		summary := Summary{
			ID:             row.ID,
			Title:          row.Title,
			Slug:           row.Slug,
			CategoryID:     row.CategoryID,
			Price:          row.Price,
			MarketPrice:    row.MarketPrice,
			EffectivePrice: pricing.EffectiveUnitPrice(row, deal, now),
			InStock:        row.InStock(),
			IsBestDeal:     row.IsBestDeal,
			CreatedAt:      row.CreatedAt,
		}
		if deal != nil {
			endsAt := deal.EndsAt
			summary.DealEndsAt = &endsAt
		}
		summaries = append(summaries, summary)
	}

	return &ListResult{Products: summaries, NextCursor: nextCursor}, nil
}

func (s *service) Detail(ctx context.Context, slug string, now time.Time) (*Detail, error) {
	trimmed := strings.TrimSpace(slug)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product slug required")
	}

	product, err := s.repo.FindBySlug(ctx, trimmed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	deal, err := s.deals.LiveForProduct(ctx, product.ID, now)
	if err != nil {
		return nil, err
	}

	reviews, err := s.reviews.Summarize(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	return &Detail{
		Product: *product,
		Deal:    deal,
		Reviews: reviews,
		Price:   pricing.EffectiveUnitPrice(*product, deal, now),
	}, nil
}

func (s *service) Categories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return categories, nil
}
