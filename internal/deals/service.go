package deals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"myshop-backend/pkg/db/models"
	pkgerrors "myshop-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes deal lookups, admin CRUD, and the expiry sweep.
type Service interface {
	LiveForProduct(ctx context.Context, productID uuid.UUID, now time.Time) (*models.Deal, error)
	LiveForProducts(ctx context.Context, productIDs []uuid.UUID, now time.Time) (map[uuid.UUID]*models.Deal, error)
	ListLive(ctx context.Context, now time.Time) ([]models.Deal, error)
	Create(ctx context.Context, input CreateInput) (*models.Deal, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Deal, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// CreateInput describes a new deal.
type CreateInput struct {
	ProductID uuid.UUID
	DealPrice decimal.Decimal
	EndsAt    time.Time
}

// UpdateInput carries optional admin edits.
type UpdateInput struct {
	DealPrice *decimal.Decimal
	EndsAt    *time.Time
	IsActive  *bool
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds the deals service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("deals repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) LiveForProduct(ctx context.Context, productID uuid.UUID, now time.Time) (*models.Deal, error) {
	deal, err := s.repo.FindLiveByProduct(ctx, productID, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deal")
	}
	return deal, nil
}

func (s *service) LiveForProducts(ctx context.Context, productIDs []uuid.UUID, now time.Time) (map[uuid.UUID]*models.Deal, error) {
	deals, err := s.repo.MapLiveByProducts(ctx, productIDs, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "map deals")
	}
	return deals, nil
}

func (s *service) ListLive(ctx context.Context, now time.Time) ([]models.Deal, error) {
	deals, err := s.repo.ListLive(ctx, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list live deals")
	}
	return deals, nil
}

// Create opens a new deal for a product. Any previously active deal for the
// same product is switched off in the same transaction so at most one deal
// prices a product at a time.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Deal, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if !input.DealPrice.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deal price must be positive")
	}
	if !input.EndsAt.After(time.Now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deal must end in the future")
	}

	deal := &models.Deal{
		ProductID: input.ProductID,
		DealPrice: input.DealPrice,
		EndsAt:    input.EndsAt,
		IsActive:  true,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeactivateActiveByProduct(ctx, input.ProductID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate previous deal")
		}
		created, err := repo.Create(ctx, deal)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create deal")
		}
		deal = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deal, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Deal, error) {
	updates := map[string]any{}
	if input.DealPrice != nil {
		if !input.DealPrice.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "deal price must be positive")
		}
		updates["deal_price"] = *input.DealPrice
	}
	if input.EndsAt != nil {
		updates["ends_at"] = *input.EndsAt
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no deal fields to update")
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update deal")
	}
	deal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "deal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload deal")
	}
	return deal, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete deal")
	}
	return nil
}

// SweepExpired deactivates deals whose window has passed. Pricing already
// ignores them; the sweep keeps admin listings and homepage queries honest.
func (s *service) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	swept, err := s.repo.DeactivateExpired(ctx, now)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sweep expired deals")
	}
	return swept, nil
}
