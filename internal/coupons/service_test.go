package coupons

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"myshop-backend/pkg/db/models"
	pkgerrors "myshop-backend/pkg/errors"
)

type stubRepo struct {
	Repository
	byCode map[string]*models.Coupon
	byID   map[uuid.UUID]*models.Coupon

	created *models.Coupon
	updates map[string]any
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		byCode: map[string]*models.Coupon{},
		byID:   map[uuid.UUID]*models.Coupon{},
	}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	if coupon, ok := s.byCode[strings.ToLower(code)]; ok {
		return coupon, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	if coupon, ok := s.byID[id]; ok {
		return coupon, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error) {
	s.created = coupon
	return coupon, nil
}

func (s *stubRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	s.updates = updates
	return nil
}

func seedCoupon(repo *stubRepo, coupon *models.Coupon) {
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	repo.byCode[strings.ToLower(coupon.Code)] = coupon
	repo.byID[coupon.ID] = coupon
}

func TestResolveValidCouponCaseInsensitive(t *testing.T) {
	now := time.Now()
	repo := newStubRepo()
	seedCoupon(repo, &models.Coupon{
		Code:      "SAVE20",
		Percent:   20,
		ValidFrom: now.Add(-time.Hour),
		ValidTo:   now.Add(time.Hour),
		IsActive:  true,
	})

	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	coupon, err := svc.Resolve(context.Background(), "save20", now)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if coupon.Code != "SAVE20" {
		t.Fatalf("unexpected coupon %+v", coupon)
	}
}

func TestResolveRejectsUnknownInactiveAndExpired(t *testing.T) {
	now := time.Now()
	repo := newStubRepo()
	seedCoupon(repo, &models.Coupon{
		Code:      "INACTIVE",
		Percent:   10,
		ValidFrom: now.Add(-time.Hour),
		ValidTo:   now.Add(time.Hour),
		IsActive:  false,
	})
	seedCoupon(repo, &models.Coupon{
		Code:      "EXPIRED",
		Percent:   10,
		ValidFrom: now.Add(-2 * time.Hour),
		ValidTo:   now.Add(-time.Hour),
		IsActive:  true,
	})

	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	for _, code := range []string{"MISSING", "INACTIVE", "EXPIRED", ""} {
		_, err := svc.Resolve(context.Background(), code, now)
		if err == nil {
			t.Fatalf("expected rejection for %q", code)
		}
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeCouponInvalid {
			t.Fatalf("unexpected error for %q: %v", code, err)
		}
	}
}

func TestCreateNormalizesAndValidates(t *testing.T) {
	now := time.Now()
	repo := newStubRepo()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	coupon, err := svc.Create(context.Background(), CreateInput{
		Code:      "  festive10 ",
		Percent:   10,
		ValidFrom: now,
		ValidTo:   now.Add(24 * time.Hour),
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if coupon.Code != "FESTIVE10" {
		t.Fatalf("expected normalized code, got %q", coupon.Code)
	}

	_, err = svc.Create(context.Background(), CreateInput{
		Code:      "BAD",
		Percent:   120,
		ValidFrom: now,
		ValidTo:   now.Add(time.Hour),
	})
	if err == nil {
		t.Fatal("expected percent validation error")
	}

	_, err = svc.Create(context.Background(), CreateInput{
		Code:      "BAD",
		Percent:   10,
		ValidFrom: now,
		ValidTo:   now,
	})
	if err == nil {
		t.Fatal("expected window validation error")
	}
}

func TestUpdateRequiresFields(t *testing.T) {
	repo := newStubRepo()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Update(context.Background(), uuid.New(), UpdateInput{})
	if err == nil {
		t.Fatal("expected validation error for empty update")
	}
}

func TestUpdateAppliesAndReloads(t *testing.T) {
	now := time.Now()
	repo := newStubRepo()
	coupon := &models.Coupon{
		Code:      "SAVE20",
		Percent:   20,
		ValidFrom: now.Add(-time.Hour),
		ValidTo:   now.Add(time.Hour),
		IsActive:  true,
	}
	seedCoupon(repo, coupon)

	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	active := false
	got, err := svc.Update(context.Background(), coupon.ID, UpdateInput{IsActive: &active})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.ID != coupon.ID {
		t.Fatalf("unexpected coupon %+v", got)
	}
	if v, ok := repo.updates["is_active"]; !ok || v != false {
		t.Fatalf("unexpected updates %+v", repo.updates)
	}
}
