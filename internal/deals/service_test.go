package deals

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"myshop-backend/pkg/db/models"
	pkgerrors "myshop-backend/pkg/errors"
)

type stubRepo struct {
	Repository

	liveByProduct map[uuid.UUID]*models.Deal
	created       *models.Deal
	deactivated   []uuid.UUID
	sweepCount    int64
	sweepNow      time.Time
}

func newStubRepo() *stubRepo {
	return &stubRepo{liveByProduct: map[uuid.UUID]*models.Deal{}}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) FindLiveByProduct(ctx context.Context, productID uuid.UUID, now time.Time) (*models.Deal, error) {
	if deal, ok := s.liveByProduct[productID]; ok {
		return deal, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) Create(ctx context.Context, deal *models.Deal) (*models.Deal, error) {
	deal.ID = uuid.New()
	s.created = deal
	return deal, nil
}

func (s *stubRepo) DeactivateActiveByProduct(ctx context.Context, productID uuid.UUID) error {
	s.deactivated = append(s.deactivated, productID)
	return nil
}

func (s *stubRepo) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	s.sweepNow = now
	return s.sweepCount, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func TestLiveForProductMissingIsNil(t *testing.T) {
	repo := newStubRepo()
	svc, err := NewService(repo, stubTxRunner{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	deal, err := svc.LiveForProduct(context.Background(), uuid.New(), time.Now())
	if err != nil {
		t.Fatalf("live for product: %v", err)
	}
	if deal != nil {
		t.Fatalf("expected nil deal, got %+v", deal)
	}
}

func TestCreateReplacesActiveDeal(t *testing.T) {
	repo := newStubRepo()
	svc, err := NewService(repo, stubTxRunner{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	productID := uuid.New()
	deal, err := svc.Create(context.Background(), CreateInput{
		ProductID: productID,
		DealPrice: decimal.RequireFromString("199.00"),
		EndsAt:    time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if deal.ID == uuid.Nil || !deal.IsActive {
		t.Fatalf("unexpected deal %+v", deal)
	}
	if len(repo.deactivated) != 1 || repo.deactivated[0] != productID {
		t.Fatalf("expected previous deal deactivation, got %v", repo.deactivated)
	}
}

func TestCreateValidation(t *testing.T) {
	repo := newStubRepo()
	svc, err := NewService(repo, stubTxRunner{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	cases := []CreateInput{
		{ProductID: uuid.Nil, DealPrice: decimal.RequireFromString("10"), EndsAt: time.Now().Add(time.Hour)},
		{ProductID: uuid.New(), DealPrice: decimal.Zero, EndsAt: time.Now().Add(time.Hour)},
		{ProductID: uuid.New(), DealPrice: decimal.RequireFromString("10"), EndsAt: time.Now().Add(-time.Hour)},
	}
	for i, input := range cases {
		_, err := svc.Create(context.Background(), input)
		if err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("case %d: unexpected error %v", i, err)
		}
	}
}

func TestSweepExpired(t *testing.T) {
	repo := newStubRepo()
	repo.sweepCount = 3
	svc, err := NewService(repo, stubTxRunner{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	now := time.Now()
	swept, err := svc.SweepExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if swept != 3 {
		t.Fatalf("expected 3 swept, got %d", swept)
	}
	if !repo.sweepNow.Equal(now) {
		t.Fatalf("unexpected sweep clock %v", repo.sweepNow)
	}
}
