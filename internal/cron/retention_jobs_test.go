package cron

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"

	"github.com/wishlify/wishlify-backend/pkg/logger"
	"github.com/wishlify/wishlify-backend/pkg/metrics"
)

type fakeRetentionRepo struct {
	lastCutoff time.Time
	called     int
	deleted    int64
	err        error
}

func (f *fakeRetentionRepo) DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	return f.record(cutoff)
}

func (f *fakeRetentionRepo) DeleteFailedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	return f.record(cutoff)
}

func (f *fakeRetentionRepo) record(cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return f.deleted, nil
}

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func TestOutboxRetentionJobUsesDefaultCutoff(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeRetentionRepo{deleted: 7}
	reg := prometheus.NewRegistry()
	jobIface, err := NewOutboxRetentionJob(RetentionJobParams{
		Logger:  logger.Nop(),
		DB:      passthroughTx{},
		Metrics: metrics.NewCronJobMetrics(reg),
	}, repo)
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}
	job := jobIface.(*retentionJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expectedCutoff := now.AddDate(0, 0, -defaultOutboxRetentionDays)
	if !repo.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, repo.lastCutoff)
	}
	if repo.called != 1 {
		t.Fatalf("expected repo called once, got %d", repo.called)
	}
	if job.Name() != OutboxRetentionJobName {
		t.Fatalf("unexpected job name %q", job.Name())
	}

	expected := `
# HELP cron_job_rows_deleted_total Rows removed by retention jobs.
# TYPE cron_job_rows_deleted_total counter
cron_job_rows_deleted_total{job="outbox-retention"} 7
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "cron_job_rows_deleted_total"); err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
}

func TestDLQRetentionJobHonorsConfiguredDays(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeRetentionRepo{}
	jobIface, err := NewDLQRetentionJob(RetentionJobParams{Logger: logger.Nop(), DB: passthroughTx{}, Days: 14}, repo)
	if err != nil {
		t.Fatalf("NewDLQRetentionJob: %v", err)
	}
	job := jobIface.(*retentionJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !repo.lastCutoff.Equal(now.AddDate(0, 0, -14)) {
		t.Fatalf("unexpected cutoff %s", repo.lastCutoff)
	}
	if job.Name() != DLQRetentionJobName {
		t.Fatalf("unexpected job name %q", job.Name())
	}
}

func TestRetentionJobPropagatesError(t *testing.T) {
	repo := &fakeRetentionRepo{err: errors.New("boom")}
	job, err := NewOutboxRetentionJob(RetentionJobParams{Logger: logger.Nop(), DB: passthroughTx{}}, repo)
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestRetentionJobValidatesParams(t *testing.T) {
	if _, err := NewOutboxRetentionJob(RetentionJobParams{Logger: logger.Nop(), DB: passthroughTx{}}, nil); err == nil {
		t.Fatal("expected missing repo to fail")
	}
	if _, err := NewDLQRetentionJob(RetentionJobParams{DB: passthroughTx{}}, &fakeRetentionRepo{}); err == nil {
		t.Fatal("expected missing logger to fail")
	}
	if _, err := NewDLQRetentionJob(RetentionJobParams{Logger: logger.Nop()}, &fakeRetentionRepo{}); err == nil {
		t.Fatal("expected missing db to fail")
	}
}
