package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/finleap/scf-onboarding-backend/pkg/logger"
	"gorm.io/gorm"
)

func TestNotificationCleanupJobPrunesAtRetentionCutoff(t *testing.T) {
	now := time.Date(2026, 3, 15, 8, 30, 0, 0, time.UTC)
	store := &fakeNotificationStore{pruned: 17}
	job := newCleanupJobForTest(t, store)
	job.clock = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantCutoff := now.Add(-defaultNotificationRetentionDays * 24 * time.Hour)
	if !store.lastCutoff.Equal(wantCutoff) {
		t.Fatalf("expected cutoff %s, got %s", wantCutoff, store.lastCutoff)
	}
	if store.calls != 1 {
		t.Fatalf("expected a single delete pass, got %d", store.calls)
	}
}

func TestNotificationCleanupJobHonorsCustomRetention(t *testing.T) {
	now := time.Date(2026, 3, 15, 8, 30, 0, 0, time.UTC)
	store := &fakeNotificationStore{}
	jobIface, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		DB:         notificationFakeTxRunner{},
		Repository: store,
		Retention:  7,
	})
	if err != nil {
		t.Fatalf("NewNotificationCleanupJob: %v", err)
	}
	job := jobIface.(*notificationCleanupJob)
	job.clock = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	wantCutoff := now.Add(-7 * 24 * time.Hour)
	if !store.lastCutoff.Equal(wantCutoff) {
		t.Fatalf("expected cutoff %s, got %s", wantCutoff, store.lastCutoff)
	}
}

func TestNotificationCleanupJobPropagatesDeleteErrors(t *testing.T) {
	store := &fakeNotificationStore{err: errors.New("boom")}
	job := newCleanupJobForTest(t, store)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func newCleanupJobForTest(t *testing.T, store *fakeNotificationStore) *notificationCleanupJob {
	t.Helper()
	jobIface, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		DB:         notificationFakeTxRunner{},
		Repository: store,
	})
	if err != nil {
		t.Fatalf("NewNotificationCleanupJob: %v", err)
	}
	job, ok := jobIface.(*notificationCleanupJob)
	if !ok {
		t.Fatalf("expected notificationCleanupJob, got %T", jobIface)
	}
	return job
}

type fakeNotificationStore struct {
	lastCutoff time.Time
	pruned     int64
	err        error
	calls      int
}

func (f *fakeNotificationStore) DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	f.calls++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return f.pruned, nil
}

type notificationFakeTxRunner struct{}

func (notificationFakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}
