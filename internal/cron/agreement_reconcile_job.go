package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/finleap/scf-onboarding-backend/pkg/logger"
)

const (
	defaultReconcileLimit    = 250
	defaultReconcileLookback = 7 * 24 * time.Hour
)

type signedAgreementReconciler interface {
	ReconcileSigned(ctx context.Context, since time.Time, limit int) (int, error)
}

// AgreementReconcileJobParams configures the signing side-effect sweep.
type AgreementReconcileJobParams struct {
	Logger     *logger.Logger
	Agreements signedAgreementReconciler
	Limit      int
	Lookback   time.Duration
	Now        func() time.Time
}

// NewAgreementReconcileJob builds the job that re-runs the idempotent
// post-signature side effects (invitation completion, link activation) for
// recently signed agreements whose best-effort steps may not have landed.
func NewAgreementReconcileJob(params AgreementReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Agreements == nil {
		return nil, fmt.Errorf("agreement service required")
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultReconcileLimit
	}
	lookback := params.Lookback
	if lookback <= 0 {
		lookback = defaultReconcileLookback
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &agreementReconcileJob{
		logg:       params.Logger,
		agreements: params.Agreements,
		limit:      limit,
		lookback:   lookback,
		now:        now,
	}, nil
}

type agreementReconcileJob struct {
	logg       *logger.Logger
	agreements signedAgreementReconciler
	limit      int
	lookback   time.Duration
	now        func() time.Time
}

func (j *agreementReconcileJob) Name() string { return "agreement-reconcile" }

func (j *agreementReconcileJob) Run(ctx context.Context) error {
	since := j.now().UTC().Add(-j.lookback)
	swept, err := j.agreements.ReconcileSigned(ctx, since, j.limit)
	if err != nil {
		return fmt.Errorf("agreement reconcile: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"since":            since,
		"agreements_swept": swept,
	})
	j.logg.Info(logCtx, "agreement reconcile complete")
	return nil
}
