package cron

import (
	"context"
	"fmt"
	"time"

	"myshop-backend/pkg/logger"
)

type dealSweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// DealSweepJobParams configure the expired deal sweep.
type DealSweepJobParams struct {
	Logger *logger.Logger
	Deals  dealSweeper
}

// NewDealSweepJob builds the cron job that deactivates deals whose window
// has passed. Pricing never applies an expired deal; the sweep keeps the
// deals table and homepage queries consistent with that.
func NewDealSweepJob(params DealSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Deals == nil {
		return nil, fmt.Errorf("deals service required")
	}
	return &dealSweepJob{
		logg:  params.Logger,
		deals: params.Deals,
		now:   time.Now,
	}, nil
}

type dealSweepJob struct {
	logg  *logger.Logger
	deals dealSweeper
	now   func() time.Time
}

func (j *dealSweepJob) Name() string { return "deal-sweep" }

func (j *dealSweepJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	swept, err := j.deals.SweepExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("deal sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"deals_deactivated": swept})
	j.logg.Info(logCtx, "deal sweep complete")
	return nil
}
