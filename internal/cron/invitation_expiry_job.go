package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/finleap/scf-onboarding-backend/pkg/logger"
)

type expiredInvitationCounter interface {
	CountDerivedExpired(ctx context.Context, now time.Time) (int64, error)
}

// InvitationExpiryJobParams configures the invitation observability sweep.
type InvitationExpiryJobParams struct {
	Logger      *logger.Logger
	Invitations expiredInvitationCounter
	Now         func() time.Time
}

// NewInvitationExpiryJob builds the job that reports how many invitations
// have lapsed. Expired is a derived state, so the job writes nothing; buyers
// resend lapsed invitations themselves.
func NewInvitationExpiryJob(params InvitationExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Invitations == nil {
		return nil, fmt.Errorf("invitation repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &invitationExpiryJob{
		logg:        params.Logger,
		invitations: params.Invitations,
		now:         now,
	}, nil
}

type invitationExpiryJob struct {
	logg        *logger.Logger
	invitations expiredInvitationCounter
	now         func() time.Time
}

func (j *invitationExpiryJob) Name() string { return "invitation-expiry" }

func (j *invitationExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	expired, err := j.invitations.CountDerivedExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("invitation expiry sweep: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "invitations_expired", expired)
	j.logg.Info(logCtx, "invitation expiry sweep complete")
	return nil
}
