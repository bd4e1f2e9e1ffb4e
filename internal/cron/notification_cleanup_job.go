package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/finleap/scf-onboarding-backend/pkg/logger"
	"gorm.io/gorm"
)

// Aged notification rows are hard-deleted; read state is irrelevant once a
// row falls outside the retention window.
const defaultNotificationRetentionDays = 30

// NotificationCleanupJobParams configures the notification retention sweep.
// Retention is in days; zero or negative selects the default.
type NotificationCleanupJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository notificationsCleanupRepo
	Retention  int
}

type notificationsCleanupRepo interface {
	DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// NewNotificationCleanupJob builds the job that prunes notifications older
// than the retention window.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	days := params.Retention
	if days <= 0 {
		days = defaultNotificationRetentionDays
	}
	return &notificationCleanupJob{
		log:       params.Logger,
		runner:    params.DB,
		store:     params.Repository,
		retention: time.Duration(days) * 24 * time.Hour,
		clock:     time.Now,
	}, nil
}

type notificationCleanupJob struct {
	log       *logger.Logger
	runner    txRunner
	store     notificationsCleanupRepo
	retention time.Duration
	clock     func() time.Time
}

func (j *notificationCleanupJob) Name() string { return "notification-cleanup" }

func (j *notificationCleanupJob) Run(ctx context.Context) error {
	cutoff := j.clock().UTC().Add(-j.retention)

	var pruned int64
	err := j.runner.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.store.DeleteOlderThan(ctx, tx, cutoff)
		if err != nil {
			return err
		}
		pruned = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("prune notifications: %w", err)
	}

	logCtx := j.log.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": pruned,
	})
	j.log.Info(logCtx, "pruned aged notifications")
	return nil
}
