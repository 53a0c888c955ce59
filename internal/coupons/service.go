package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"myshop-backend/pkg/db/models"
	pkgerrors "myshop-backend/pkg/errors"
)

// Service exposes coupon lookups and the admin surface.
type Service interface {
	Resolve(ctx context.Context, code string, now time.Time) (*models.Coupon, error)
	ResolveByID(ctx context.Context, id uuid.UUID, now time.Time) (*models.Coupon, error)
	ListHomepage(ctx context.Context) ([]models.Coupon, error)
	List(ctx context.Context) ([]models.Coupon, error)
	Create(ctx context.Context, input CreateInput) (*models.Coupon, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateInput describes a new coupon.
type CreateInput struct {
	Code           string
	Percent        int
	ValidFrom      time.Time
	ValidTo        time.Time
	IsActive       bool
	ShowOnHomepage bool
}

// UpdateInput carries optional admin edits.
type UpdateInput struct {
	Percent        *int
	ValidFrom      *time.Time
	ValidTo        *time.Time
	IsActive       *bool
	ShowOnHomepage *bool
}

type service struct {
	repo Repository
}

// NewService builds the coupon service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupons repository required")
	}
	return &service{repo: repo}, nil
}

// Resolve returns the coupon for a code only when it is redeemable at the
// supplied clock. Every rejection maps to COUPON_INVALID so callers fail
// closed.
func (s *service) Resolve(ctx context.Context, code string, now time.Time) (*models.Coupon, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeCouponInvalid, "coupon code required")
	}

	coupon, err := s.repo.FindByCode(ctx, trimmed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeCouponInvalid, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	return s.validate(coupon, now)
}

func (s *service) ResolveByID(ctx context.Context, id uuid.UUID, now time.Time) (*models.Coupon, error) {
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeCouponInvalid, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	return s.validate(coupon, now)
}

func (s *service) validate(coupon *models.Coupon, now time.Time) (*models.Coupon, error) {
	if !coupon.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeCouponInvalid, "coupon is not active")
	}
	if now.Before(coupon.ValidFrom) || now.After(coupon.ValidTo) {
		return nil, pkgerrors.New(pkgerrors.CodeCouponInvalid, "coupon is outside its validity window")
	}
	return coupon, nil
}

func (s *service) ListHomepage(ctx context.Context) ([]models.Coupon, error) {
	coupons, err := s.repo.ListHomepage(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list homepage coupons")
	}
	return coupons, nil
}

func (s *service) List(ctx context.Context) ([]models.Coupon, error) {
	coupons, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}
	return coupons, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code required")
	}
	if input.Percent < 0 || input.Percent > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon percent must be between 0 and 100")
	}
	if !input.ValidTo.After(input.ValidFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon window must end after it starts")
	}

	coupon := &models.Coupon{
		Code:           code,
		Percent:        input.Percent,
		ValidFrom:      input.ValidFrom,
		ValidTo:        input.ValidTo,
		IsActive:       input.IsActive,
		ShowOnHomepage: input.ShowOnHomepage,
	}
	created, err := s.repo.Create(ctx, coupon)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "create coupon")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Coupon, error) {
	updates := map[string]any{}
	if input.Percent != nil {
		if *input.Percent < 0 || *input.Percent > 100 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon percent must be between 0 and 100")
		}
		updates["percent"] = *input.Percent
	}
	if input.ValidFrom != nil {
		updates["valid_from"] = *input.ValidFrom
	}
	if input.ValidTo != nil {
		updates["valid_to"] = *input.ValidTo
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.ShowOnHomepage != nil {
		updates["show_on_homepage"] = *input.ShowOnHomepage
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no coupon fields to update")
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update coupon")
	}
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload coupon")
	}
	return coupon, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete coupon")
	}
	return nil
}
