package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/finleap/scf-onboarding-backend/api/routes"
	"github.com/finleap/scf-onboarding-backend/internal/access"
	"github.com/finleap/scf-onboarding-backend/internal/adminreview"
	"github.com/finleap/scf-onboarding-backend/internal/agreements"
	"github.com/finleap/scf-onboarding-backend/internal/applications"
	"github.com/finleap/scf-onboarding-backend/internal/auth"
	"github.com/finleap/scf-onboarding-backend/internal/banking"
	"github.com/finleap/scf-onboarding-backend/internal/invitations"
	"github.com/finleap/scf-onboarding-backend/internal/notifications"
	"github.com/finleap/scf-onboarding-backend/internal/users"
	"github.com/finleap/scf-onboarding-backend/pkg/auth/session"
	"github.com/finleap/scf-onboarding-backend/pkg/config"
	"github.com/finleap/scf-onboarding-backend/pkg/db"
	"github.com/finleap/scf-onboarding-backend/pkg/logger"
	"github.com/finleap/scf-onboarding-backend/pkg/migrate"
	"github.com/finleap/scf-onboarding-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gdb := dbClient.DB()
	userRepo := users.NewRepository(gdb)
	applicationsRepo := applications.NewRepository(gdb)
	accessRepo := access.NewRepository(gdb)
	agreementsRepo := agreements.NewRepository(gdb)
	bankingRepo := banking.NewRepository(gdb)
	invitationsRepo := invitations.NewRepository(gdb)
	notificationsRepo := notifications.NewRepository(gdb)
	reviewRepo := adminreview.NewRepository(gdb)

	dispatcher, err := notifications.NewDispatcher(notifications.DispatcherParams{
		Repo:     notificationsRepo,
		Mailer:   notifications.NewLogMailer(logg, cfg.Mail),
		Resolver: notifications.NewURLResolver(cfg.Portal),
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification dispatcher", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		TxRunner:       dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	accessService, err := access.NewService(access.ServiceParams{
		Repo:       accessRepo,
		KYC:        applicationsRepo,
		Banking:    bankingRepo,
		Agreements: agreementsRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create access service", err)
		os.Exit(1)
	}

	applicationsService, err := applications.NewService(applications.ServiceParams{
		Repo:   applicationsRepo,
		Access: accessService,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create applications service", err)
		os.Exit(1)
	}

	agreementsService, err := agreements.NewService(agreements.ServiceParams{
		Repo:        agreementsRepo,
		Invitations: invitationsRepo,
		Access:      accessService,
		Banking:     bankingRepo,
		Users:       userRepo,
		Dispatcher:  dispatcher,
		Portal:      cfg.Portal,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create agreements service", err)
		os.Exit(1)
	}

	bankingService, err := banking.NewService(banking.ServiceParams{
		Repo:   bankingRepo,
		Access: accessService,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create banking service", err)
		os.Exit(1)
	}

	invitationsService, err := invitations.NewService(invitations.ServiceParams{
		Repo:       invitationsRepo,
		Dispatcher: dispatcher,
		Portal:     cfg.Portal,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create invitations service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	reviewService, err := adminreview.NewService(adminreview.ServiceParams{
		Repo:       reviewRepo,
		Banking:    bankingRepo,
		Access:     accessService,
		Users:      userRepo,
		Dispatcher: dispatcher,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create admin review service", err)
		os.Exit(1)
	}

	handler := routes.NewRouter(
		cfg,
		logg,
		dbClient,
		redisClient,
		sessionManager,
		authService,
		registerService,
		applicationsService,
		accessService,
		agreementsService,
		bankingService,
		invitationsService,
		notificationsService,
		reviewService,
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	instance := os.Getenv("DYNO")
	if instance == "" {
		instance = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutdown signal received, draining connections")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server shut down gracefully")
}
