package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/finleap/scf-onboarding-backend/api/controllers"
	"github.com/finleap/scf-onboarding-backend/api/middleware"
	"github.com/finleap/scf-onboarding-backend/internal/access"
	"github.com/finleap/scf-onboarding-backend/internal/adminreview"
	"github.com/finleap/scf-onboarding-backend/internal/agreements"
	"github.com/finleap/scf-onboarding-backend/internal/applications"
	"github.com/finleap/scf-onboarding-backend/internal/auth"
	"github.com/finleap/scf-onboarding-backend/internal/banking"
	"github.com/finleap/scf-onboarding-backend/internal/invitations"
	"github.com/finleap/scf-onboarding-backend/internal/notifications"
	"github.com/finleap/scf-onboarding-backend/pkg/auth/session"
	"github.com/finleap/scf-onboarding-backend/pkg/config"
	"github.com/finleap/scf-onboarding-backend/pkg/db"
	"github.com/finleap/scf-onboarding-backend/pkg/enums"
	"github.com/finleap/scf-onboarding-backend/pkg/logger"
	"github.com/finleap/scf-onboarding-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessionChecker session.AccessSessionChecker,
	authService auth.Service,
	registerService auth.RegisterService,
	applicationsService applications.Service,
	accessService access.Service,
	agreementsService agreements.Service,
	bankingService banking.Service,
	invitationsService invitations.Service,
	notificationsService notifications.Service,
	reviewService adminreview.Service,
) http.Handler {
	// Assigning through locals keeps a nil client from turning into a
	// non-nil interface inside the middleware.
	var (
		idemStore   redis.IdempotencyStore
		limiter     middleware.FixedWindowLimiter
		rateCounter middleware.RateCounter
	)
	if redisClient != nil {
		idemStore = redisClient
		limiter = redisClient
		rateCounter = redisClient
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Portal),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readinessDeps(dbP, redisClient)))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Post("/invitations/open", controllers.OpenInvitation(invitationsService, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, rateCounter, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, rateCounter, logg)).Post("/register", controllers.AuthRegister(registerService, authService, logg))
		r.Post("/logout", controllers.AuthLogout(authService, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, logg))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, rateCounter, logg)).Post("/login", controllers.AdminAuthLogin(authService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Application submission accepts anonymous drafts, so auth is optional
		// on this one route only.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, sessionChecker, logg))
			r.Use(middleware.Idempotency(idemStore, logg))
			r.Post("/applications", controllers.SubmitApplication(applicationsService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
			r.Use(middleware.Idempotency(idemStore, logg))
			r.Use(middleware.RateLimit(limiter, logg))

			r.Get("/applications/me", controllers.GetMyApplication(applicationsService, logg))

			r.Route("/access", func(r chi.Router) {
				r.Get("/", controllers.AccessStatus(accessService, logg))
				r.Get("/features", controllers.AccessFeatures(accessService, logg))
			})

			r.Route("/agreements", func(r chi.Router) {
				r.Get("/", controllers.ListAgreements(agreementsService, logg))
				r.Post("/", controllers.CreateAgreement(agreementsService, logg))
				r.Post("/{agreementId}/sign", controllers.SignAgreement(agreementsService, logg))
			})

			r.Route("/banking", func(r chi.Router) {
				r.Post("/", controllers.SubmitBanking(bankingService, logg))
				r.Get("/me", controllers.MyBanking(bankingService, logg))
			})

			r.Route("/invitations", func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.UserRoleBuyer, logg))
				r.Get("/", controllers.ListInvitations(invitationsService, logg))
				r.Post("/", controllers.CreateInvitation(invitationsService, logg))
				r.Post("/{invitationId}/cancel", controllers.CancelInvitation(invitationsService, logg))
				r.Post("/{invitationId}/resend", controllers.ResendInvitation(invitationsService, logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(notificationsService, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
		r.Use(middleware.RequireAdmin(logg))
		r.Use(middleware.Idempotency(idemStore, logg))
		r.Use(middleware.RateLimit(limiter, logg))

		r.Route("/kyc", func(r chi.Router) {
			r.Get("/", controllers.AdminListKYC(reviewService, logg))
			r.Post("/{recordId}/claim", controllers.AdminClaimKYC(reviewService, logg))
			r.Post("/{recordId}/ready", controllers.AdminMarkKYCReady(reviewService, logg))
			r.Post("/{recordId}/decide", controllers.AdminDecideKYC(reviewService, logg))
			r.Get("/{recordId}/documents", controllers.AdminListDocuments(reviewService, logg))
		})
		r.Post("/documents/{documentId}/review", controllers.AdminReviewDocument(reviewService, logg))
		r.Route("/banking", func(r chi.Router) {
			r.Get("/pending", controllers.AdminListPendingBanking(reviewService, logg))
			r.Post("/{bankingId}/verify", controllers.AdminVerifyBanking(reviewService, logg))
			r.Post("/{bankingId}/reject", controllers.AdminRejectBanking(reviewService, logg))
		})
		r.Route("/payments", func(r chi.Router) {
			r.Get("/", controllers.AdminListPayments(reviewService, logg))
			r.Post("/{paymentId}/progress", controllers.AdminProgressPayment(reviewService, logg))
		})
	})

	return r
}

func readinessDeps(dbP db.Pinger, redisClient *redis.Client) map[string]controllers.Pinger {
	deps := map[string]controllers.Pinger{}
	if dbP != nil {
		deps["postgres"] = dbP
	}
	if redisClient != nil {
		deps["redis"] = redisClient
	}
	return deps
}
