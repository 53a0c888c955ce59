package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"myshop-backend/pkg/logger"
)

type stubSweeper struct {
	swept int64
	err   error
	calls int
}

func (s *stubSweeper) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	s.calls++
	return s.swept, s.err
}

type stubCartDeleter struct {
	cutoff  time.Time
	limit   int
	deleted int64
	err     error
}

func (s *stubCartDeleter) DeleteStaleActive(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	s.cutoff = cutoff
	s.limit = limit
	return s.deleted, s.err
}

func TestDealSweepJobReportsFailure(t *testing.T) {
	t.Parallel()

	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	sweeper := &stubSweeper{err: errors.New("db down")}
	job, err := NewDealSweepJob(DealSweepJobParams{Logger: logg, Deals: sweeper})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected sweep error to propagate")
	}
	if sweeper.calls != 1 {
		t.Fatalf("expected one sweep call, got %d", sweeper.calls)
	}

	sweeper.err = nil
	sweeper.swept = 3
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestStaleCartJobAppliesRetentionAndBatch(t *testing.T) {
	t.Parallel()

	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	deleter := &stubCartDeleter{deleted: 12}
	job, err := NewStaleCartJob(StaleCartJobParams{
		Logger: logg,
		Carts:  deleter,
		MaxAge: 48 * time.Hour,
		Batch:  100,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}

	before := time.Now().UTC().Add(-48 * time.Hour)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	after := time.Now().UTC().Add(-48 * time.Hour)

	if deleter.limit != 100 {
		t.Fatalf("unexpected batch limit %d", deleter.limit)
	}
	if deleter.cutoff.Before(before) || deleter.cutoff.After(after) {
		t.Fatalf("cutoff %v outside expected window", deleter.cutoff)
	}
}

func TestStaleCartJobDefaults(t *testing.T) {
	t.Parallel()

	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	deleter := &stubCartDeleter{}
	job, err := NewStaleCartJob(StaleCartJobParams{Logger: logg, Carts: deleter})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if deleter.limit != defaultStaleCartBatch {
		t.Fatalf("unexpected default batch %d", deleter.limit)
	}
}
