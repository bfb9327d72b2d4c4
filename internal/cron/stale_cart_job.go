package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/tradeflow-backend/pkg/logger"
)

const staleCartDays = 30

type StaleCartJobParams struct {
	Logger     *logger.Logger
	Repository staleCartRepo
	MaxAgeDays int
}

type staleCartRepo interface {
	DeleteAddedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewStaleCartJob drops cart lines added more than MaxAgeDays ago.
func NewStaleCartJob(params StaleCartJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	days := params.MaxAgeDays
	if days <= 0 {
		days = staleCartDays
	}
	return &staleCartJob{
		logg:    params.Logger,
		repo:    params.Repository,
		maxDays: days,
		now:     time.Now,
	}, nil
}

type staleCartJob struct {
	logg    *logger.Logger
	repo    staleCartRepo
	maxDays int
	now     func() time.Time
}

func (j *staleCartJob) Name() string { return "stale-cart-cleanup" }

func (j *staleCartJob) Run(ctx context.Context) (int64, error) {
	cutoff := j.now().UTC().AddDate(0, 0, -j.maxDays)
	deleted, err := j.repo.DeleteAddedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("stale cart cleanup: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	}), "stale cart cleanup complete")
	return deleted, nil
}
