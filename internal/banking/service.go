package banking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/finleap/scf-onboarding-backend/internal/access"
	"github.com/finleap/scf-onboarding-backend/pkg/db/models"
	"github.com/finleap/scf-onboarding-backend/pkg/enums"
	pkgerrors "github.com/finleap/scf-onboarding-backend/pkg/errors"
	"github.com/finleap/scf-onboarding-backend/pkg/logger"
	"github.com/finleap/scf-onboarding-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultCurrency = "USD"

// Service manages supplier banking detail submissions.
type Service interface {
	Submit(ctx context.Context, identity types.Identity, req SubmitBankingRequest) (*BankingDTO, error)
	Get(ctx context.Context, identity types.Identity) (*BankingDTO, error)
}

type repository interface {
	Create(ctx context.Context, details *models.BankingDetails) error
	LatestForUser(ctx context.Context, userID uuid.UUID) (*models.BankingDetails, error)
	OpenExistsForUser(ctx context.Context, userID uuid.UUID) (bool, error)
}

type accessMachine interface {
	AdvanceLevel(ctx context.Context, userID uuid.UUID, level enums.AccessLevel, opts access.AdvanceOptions) error
}

type service struct {
	repo   repository
	access accessMachine
	log    *logger.Logger
}

// ServiceParams bundles the banking service dependencies.
type ServiceParams struct {
	Repo   repository
	Access accessMachine
	Logger *logger.Logger
}

// NewService wires the banking service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("banking repository is required")
	}
	if params.Access == nil {
		return nil, fmt.Errorf("access machine is required")
	}
	return &service{repo: params.Repo, access: params.Access, log: params.Logger}, nil
}

// Submit records the supplier's banking details and moves their onboarding
// forward. The submission row is the durable fact; the level bump is
// best-effort and re-derivable from the row.
func (s *service) Submit(ctx context.Context, identity types.Identity, req SubmitBankingRequest) (*BankingDTO, error) {
	if identity.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if identity.Role != enums.UserRoleSupplier {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only suppliers submit banking details")
	}

	exists, err := s.repo.OpenExistsForUser(ctx, identity.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing banking details")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "banking details already submitted")
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	now := time.Now().UTC()
	details := &models.BankingDetails{
		UserID:        identity.UserID,
		BankName:      strings.TrimSpace(req.BankName),
		AccountName:   strings.TrimSpace(req.AccountName),
		AccountNumber: strings.TrimSpace(req.AccountNumber),
		RoutingNumber: strings.TrimSpace(req.RoutingNumber),
		Currency:      currency,
		Status:        enums.BankingStatusPending,
		SubmittedAt:   now,
	}
	if err := s.repo.Create(ctx, details); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create banking details")
	}

	err = s.access.AdvanceLevel(ctx, identity.UserID, enums.AccessLevelBankingSubmitted, access.AdvanceOptions{
		Role: identity.Role,
	})
	if err != nil && s.log != nil {
		// A supplier ahead of the KYC gate keeps their current level; access
		// checks still report the unmet step.
		s.log.Error(ctx, "advance access level after banking submission", err)
	}

	dto := fromModel(*details)
	return &dto, nil
}

// Get returns the caller's most recent submission.
func (s *service) Get(ctx context.Context, identity types.Identity) (*BankingDTO, error) {
	if identity.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	row, err := s.repo.LatestForUser(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no banking details on file")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load banking details")
	}
	dto := fromModel(*row)
	return &dto, nil
}
