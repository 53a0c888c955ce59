package cron

import (
	"context"
	"fmt"
	"time"

	"myshop-backend/pkg/logger"
)

const (
	defaultStaleCartMaxAge = 30 * 24 * time.Hour
	defaultStaleCartBatch  = 500
)

type staleCartDeleter interface {
	DeleteStaleActive(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}

// StaleCartJobParams configure the abandoned cart cleanup.
type StaleCartJobParams struct {
	Logger *logger.Logger
	Carts  staleCartDeleter
	MaxAge time.Duration
	Batch  int
}

// NewStaleCartJob builds the cron job that deletes active carts nobody has
// touched within the retention window. Converted carts are kept as order
// history and never swept.
func NewStaleCartJob(params StaleCartJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	maxAge := params.MaxAge
	if maxAge <= 0 {
		maxAge = defaultStaleCartMaxAge
	}
	batch := params.Batch
	if batch <= 0 {
		batch = defaultStaleCartBatch
	}
	return &staleCartJob{
		logg:   params.Logger,
		carts:  params.Carts,
		maxAge: maxAge,
		batch:  batch,
		now:    time.Now,
	}, nil
}

type staleCartJob struct {
	logg   *logger.Logger
	carts  staleCartDeleter
	maxAge time.Duration
	batch  int
	now    func() time.Time
}

func (j *staleCartJob) Name() string { return "stale-cart-cleanup" }

func (j *staleCartJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxAge)
	deleted, err := j.carts.DeleteStaleActive(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("stale cart cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":        cutoff,
		"carts_deleted": deleted,
	})
	j.logg.Info(logCtx, "stale cart cleanup complete")
	return nil
}
