package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/wishlify/wishlify-backend/pkg/logger"
	"github.com/wishlify/wishlify-backend/pkg/metrics"
)

const (
	OutboxRetentionJobName = "outbox-retention"
	DLQRetentionJobName    = "dlq-retention"

	defaultOutboxRetentionDays = 30
	defaultDLQRetentionDays    = 90
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxRetentionRepo interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type dlqRetentionRepo interface {
	DeleteFailedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// RetentionJobParams configure a retention job. Days <= 0 uses the job's default.
type RetentionJobParams struct {
	Logger  *logger.Logger
	DB      txRunner
	Metrics *metrics.CronJobMetrics
	Days    int
}

type deleteBefore func(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)

// retentionJob deletes rows older than a cutoff in one transaction. Outbound click
// rows are never touched; only delivery bookkeeping is pruned.
type retentionJob struct {
	name    string
	logg    *logger.Logger
	db      txRunner
	metrics *metrics.CronJobMetrics
	days    int
	del     deleteBefore
	now     func() time.Time
}

// NewOutboxRetentionJob prunes outbox rows that were published (or dead-lettered).
func NewOutboxRetentionJob(params RetentionJobParams, repo outboxRetentionRepo) (Job, error) {
	if repo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	job, err := newRetentionJob(OutboxRetentionJobName, defaultOutboxRetentionDays, params, repo.DeletePublishedBefore)
	if err != nil {
		return nil, err
	}
	return job, nil
}

// NewDLQRetentionJob prunes dead letters nobody replayed.
func NewDLQRetentionJob(params RetentionJobParams, repo dlqRetentionRepo) (Job, error) {
	if repo == nil {
		return nil, fmt.Errorf("dlq repository required")
	}
	job, err := newRetentionJob(DLQRetentionJobName, defaultDLQRetentionDays, params, repo.DeleteFailedBefore)
	if err != nil {
		return nil, err
	}
	return job, nil
}

func newRetentionJob(name string, defaultDays int, params RetentionJobParams, del deleteBefore) (*retentionJob, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	days := params.Days
	if days <= 0 {
		days = defaultDays
	}
	return &retentionJob{
		name:    name,
		logg:    params.Logger,
		db:      params.DB,
		metrics: params.Metrics,
		days:    days,
		del:     del,
		now:     time.Now,
	}, nil
}

func (j *retentionJob) Name() string { return j.name }

func (j *retentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().AddDate(0, 0, -j.days)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.del(ctx, tx, cutoff)
		if err != nil {
			return err
		}
		deleted = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}
	j.metrics.AddRowsDeleted(j.name, deleted)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.days,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "cron.retention_complete")
	return nil
}
