package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"myshop-backend/internal/catalog"
	"myshop-backend/pkg/db/models"
	pkgerrors "myshop-backend/pkg/errors"
)

const recentReviewLimit = 5

// Input is a review submission.
type Input struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,max=2000"`
}

// Service accepts verified-purchase reviews and aggregates them for the
// product page.
type Service interface {
	Submit(ctx context.Context, userID, productID uuid.UUID, input Input) (*models.Review, error)
	Summarize(ctx context.Context, productID uuid.UUID) (*catalog.ReviewSummary, error)
}

type service struct {
	repo *Repository
}

// NewService builds the reviews service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Submit(ctx context.Context, userID, productID uuid.UUID, input Input) (*models.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	purchased, err := s.repo.HasDeliveredPurchase(ctx, userID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check purchase history")
	}
	if !purchased {
		return nil, pkgerrors.New(pkgerrors.CodeNotEligible, "reviews require a delivered purchase of the product")
	}

	review := &models.Review{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Rating:    input.Rating,
	}
	if comment := strings.TrimSpace(input.Comment); comment != "" {
		review.Comment = &comment
	}

	if existing, err := s.repo.FindByUserProduct(ctx, userID, productID); err == nil {
		review.ID = existing.ID
		review.CreatedAt = existing.CreatedAt
		if err := s.repo.Update(ctx, review); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update review")
		}
		return review, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}

	if err := s.repo.Create(ctx, review); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
	}
	return review, nil
}

func (s *service) Summarize(ctx context.Context, productID uuid.UUID) (*catalog.ReviewSummary, error) {
	average, count, err := s.repo.Aggregate(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate reviews")
	}

	summary := &catalog.ReviewSummary{
		Average: decimal.NewFromFloat(average).Round(1),
		Count:   count,
	}
	if count == 0 {
		return summary, nil
	}

	recent, err := s.repo.ListRecent(ctx, productID, recentReviewLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent reviews")
	}
	summary.Recent = recent
	return summary, nil
}
