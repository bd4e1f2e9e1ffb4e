package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/finleap/scf-onboarding-backend/pkg/logger"
)

type fakeInvitationCounter struct {
	lastNow time.Time
	count   int64
	err     error
}

func (f *fakeInvitationCounter) CountDerivedExpired(ctx context.Context, now time.Time) (int64, error) {
	f.lastNow = now
	if f.err != nil {
		return 0, f.err
	}
	return f.count, nil
}

func newInvitationExpiryJob(t *testing.T, counter *fakeInvitationCounter) *invitationExpiryJob {
	t.Helper()
	jobIface, err := NewInvitationExpiryJob(InvitationExpiryJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "test"}),
		Invitations: counter,
	})
	if err != nil {
		t.Fatalf("NewInvitationExpiryJob: %v", err)
	}
	job, ok := jobIface.(*invitationExpiryJob)
	if !ok {
		t.Fatalf("expected invitationExpiryJob, got %T", jobIface)
	}
	return job
}

func TestInvitationExpiryJobCountsLapsedInvitations(t *testing.T) {
	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	counter := &fakeInvitationCounter{count: 7}
	job := newInvitationExpiryJob(t, counter)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !counter.lastNow.Equal(now) {
		t.Fatalf("expected count at %s, got %s", now, counter.lastNow)
	}
}

func TestInvitationExpiryJobPropagatesErrors(t *testing.T) {
	counter := &fakeInvitationCounter{err: errors.New("boom")}
	job := newInvitationExpiryJob(t, counter)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
