package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/finleap/scf-onboarding-backend/internal/access"
	"github.com/finleap/scf-onboarding-backend/internal/agreements"
	"github.com/finleap/scf-onboarding-backend/internal/applications"
	"github.com/finleap/scf-onboarding-backend/internal/banking"
	"github.com/finleap/scf-onboarding-backend/internal/cron"
	"github.com/finleap/scf-onboarding-backend/internal/invitations"
	"github.com/finleap/scf-onboarding-backend/internal/notifications"
	"github.com/finleap/scf-onboarding-backend/internal/users"
	"github.com/finleap/scf-onboarding-backend/pkg/config"
	"github.com/finleap/scf-onboarding-backend/pkg/db"
	"github.com/finleap/scf-onboarding-backend/pkg/logger"
	"github.com/finleap/scf-onboarding-backend/pkg/metrics"
	"github.com/finleap/scf-onboarding-backend/pkg/migrate"
	"github.com/finleap/scf-onboarding-backend/pkg/redis"
)

const lockKeyFormat = "scf:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	agreementsService, notificationsRepo, invitationsRepo, err := buildDependencies(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build worker dependencies", err)
		os.Exit(1)
	}

	reconcileJob, err := cron.NewAgreementReconcileJob(cron.AgreementReconcileJobParams{
		Logger:     logg,
		Agreements: agreementsService,
		Limit:      cfg.Worker.ReconcileBatch,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create agreement reconcile job", err)
		os.Exit(1)
	}
	expiryJob, err := cron.NewInvitationExpiryJob(cron.InvitationExpiryJobParams{
		Logger:      logg,
		Invitations: invitationsRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create invitation expiry job", err)
		os.Exit(1)
	}
	cleanupJob, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: notificationsRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification cleanup job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(reconcileJob, expiryJob, cleanupJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Worker.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

// buildDependencies wires the slice of the service graph the jobs need: the
// agreements service for the signing side-effect sweep plus the invitation
// and notification repositories.
func buildDependencies(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (agreements.Service, notifications.Repository, *invitations.Repository, error) {
	gdb := dbClient.DB()
	applicationsRepo := applications.NewRepository(gdb)
	accessRepo := access.NewRepository(gdb)
	agreementsRepo := agreements.NewRepository(gdb)
	bankingRepo := banking.NewRepository(gdb)
	invitationsRepo := invitations.NewRepository(gdb)
	notificationsRepo := notifications.NewRepository(gdb)

	dispatcher, err := notifications.NewDispatcher(notifications.DispatcherParams{
		Repo:     notificationsRepo,
		Mailer:   notifications.NewLogMailer(logg, cfg.Mail),
		Resolver: notifications.NewURLResolver(cfg.Portal),
		Logger:   logg,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	accessService, err := access.NewService(access.ServiceParams{
		Repo:       accessRepo,
		KYC:        applicationsRepo,
		Banking:    bankingRepo,
		Agreements: agreementsRepo,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	agreementsService, err := agreements.NewService(agreements.ServiceParams{
		Repo:        agreementsRepo,
		Invitations: invitationsRepo,
		Access:      accessService,
		Banking:     bankingRepo,
		Users:       users.NewRepository(gdb),
		Dispatcher:  dispatcher,
		Portal:      cfg.Portal,
		Logger:      logg,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	return agreementsService, notificationsRepo, invitationsRepo, nil
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
