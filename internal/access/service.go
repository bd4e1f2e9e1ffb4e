package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/finleap/scf-onboarding-backend/pkg/db/models"
	"github.com/finleap/scf-onboarding-backend/pkg/enums"
	pkgerrors "github.com/finleap/scf-onboarding-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CompletionStatus reports which onboarding gates the user has cleared.
type CompletionStatus struct {
	KYCApproved      bool `json:"kyc_approved"`
	BankingSubmitted bool `json:"banking_submitted"`
	AgreementSigned  bool `json:"agreement_signed"`
}

// Decision is the result of a dashboard access check.
type Decision struct {
	CanAccess    bool               `json:"can_access"`
	RequiredStep enums.RequiredStep `json:"required_step,omitempty"`
	Completion   CompletionStatus   `json:"completion"`
}

// AdvanceOptions carries optional context for a level advancement.
type AdvanceOptions struct {
	Role        enums.UserRole
	AgreementID *uuid.UUID
}

// Service is the access-level state machine.
type Service interface {
	ComputeAccess(ctx context.Context, userID uuid.UUID, role enums.UserRole) (*Decision, error)
	AdvanceLevel(ctx context.Context, userID uuid.UUID, level enums.AccessLevel, opts AdvanceOptions) error
	EnsureRow(ctx context.Context, userID uuid.UUID, kycRecordID *uuid.UUID) error
	CurrentLevel(ctx context.Context, userID uuid.UUID) (enums.AccessLevel, error)
	Features(ctx context.Context, userID uuid.UUID) ([]string, error)
}

type accessRepository interface {
	Current(ctx context.Context, userID uuid.UUID) (*models.DashboardAccess, error)
	Create(ctx context.Context, row *models.DashboardAccess) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type kycReader interface {
	LatestForUser(ctx context.Context, userID uuid.UUID) (*models.KYCRecord, error)
}

type bankingReader interface {
	LatestForUser(ctx context.Context, userID uuid.UUID) (*models.BankingDetails, error)
}

type agreementReader interface {
	HasSigned(ctx context.Context, userID uuid.UUID) (bool, error)
}

type service struct {
	repo       accessRepository
	kyc        kycReader
	banking    bankingReader
	agreements agreementReader
}

// ServiceParams bundles the state machine dependencies.
type ServiceParams struct {
	Repo       accessRepository
	KYC        kycReader
	Banking    bankingReader
	Agreements agreementReader
}

// NewService wires the access-level state machine.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("access repository is required")
	}
	if params.KYC == nil {
		return nil, fmt.Errorf("kyc reader is required")
	}
	if params.Banking == nil {
		return nil, fmt.Errorf("banking reader is required")
	}
	if params.Agreements == nil {
		return nil, fmt.Errorf("agreement reader is required")
	}
	return &service{
		repo:       params.Repo,
		kyc:        params.KYC,
		banking:    params.Banking,
		agreements: params.Agreements,
	}, nil
}

// ComputeAccess evaluates the onboarding gates in fixed order: KYC first,
// then banking submission, then agreement signature. Pure read.
func (s *service) ComputeAccess(ctx context.Context, userID uuid.UUID, role enums.UserRole) (*Decision, error) {
	if role.IsAdmin() {
		return &Decision{CanAccess: true}, nil
	}
	if role != enums.UserRoleBuyer && role != enums.UserRoleSupplier {
		return &Decision{CanAccess: false, RequiredStep: enums.RequiredStepContactSupport}, nil
	}

	completion, err := s.completion(ctx, userID)
	if err != nil {
		return nil, err
	}

	decision := &Decision{Completion: *completion}
	switch {
	case !completion.KYCApproved:
		decision.RequiredStep = enums.RequiredStepCompleteKYC
	case !completion.BankingSubmitted:
		decision.RequiredStep = enums.RequiredStepSubmitBanking
	case !completion.AgreementSigned:
		decision.RequiredStep = enums.RequiredStepSignAgreements
	default:
		decision.CanAccess = true
	}
	return decision, nil
}

func (s *service) completion(ctx context.Context, userID uuid.UUID) (*CompletionStatus, error) {
	completion := &CompletionStatus{}

	kyc, err := s.kyc.LatestForUser(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load kyc record")
	}
	if kyc != nil && kyc.Status == enums.KYCStatusApproved {
		completion.KYCApproved = true
	}

	banking, err := s.banking.LatestForUser(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load banking details")
	}
	if banking != nil {
		completion.BankingSubmitted = true
	}

	signed, err := s.agreements.HasSigned(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check signed agreements")
	}
	completion.AgreementSigned = signed

	return completion, nil
}

// levelSuccessors is the explicit transition adjacency set. Re-asserting the
// current level is a no-op; everything else not listed here is rejected.
var levelSuccessors = map[enums.AccessLevel][]enums.AccessLevel{
	enums.AccessLevelPreKYC:           {enums.AccessLevelKYCApproved},
	enums.AccessLevelKYCApproved:      {enums.AccessLevelBankingSubmitted},
	enums.AccessLevelBankingSubmitted: {enums.AccessLevelAgreementSigned},
	enums.AccessLevelAgreementSigned:  {enums.AccessLevelBankingVerified},
}

func legalTransition(from, to enums.AccessLevel, role enums.UserRole) bool {
	// Buyers skip the KYC/banking gates and move straight to signature.
	if role == enums.UserRoleBuyer && from == enums.AccessLevelPreKYC && to == enums.AccessLevelAgreementSigned {
		return true
	}
	for _, next := range levelSuccessors[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AdvanceLevel moves the user's access level one legal step forward, stamping
// the step-specific timestamp. Creates the dashboard access row when absent.
func (s *service) AdvanceLevel(ctx context.Context, userID uuid.UUID, level enums.AccessLevel, opts AdvanceOptions) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !level.IsValid() || level == enums.AccessLevelPreKYC {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid target level %q", level))
	}

	now := time.Now().UTC()

	current, err := s.repo.Current(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load dashboard access")
		}
		return s.createAt(ctx, userID, level, opts, now)
	}

	if current.AccessLevel == level {
		return nil
	}
	if !legalTransition(current.AccessLevel, level, opts.Role) {
		return pkgerrors.New(
			pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot advance from %s to %s", current.AccessLevel, level),
		)
	}

	updates := map[string]any{
		"access_level":       level,
		"dashboard_features": pq.StringArray(FeaturesForLevel(level)),
		"last_level_change":  now,
	}
	applyStepColumns(updates, level, opts, now)

	if err := s.repo.Update(ctx, current.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "advance access level")
	}
	return nil
}

func (s *service) createAt(ctx context.Context, userID uuid.UUID, level enums.AccessLevel, opts AdvanceOptions, now time.Time) error {
	if !legalTransition(enums.AccessLevelPreKYC, level, opts.Role) {
		return pkgerrors.New(
			pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot advance from %s to %s", enums.AccessLevelPreKYC, level),
		)
	}

	row := &models.DashboardAccess{
		UserID:            userID,
		AccessLevel:       level,
		DashboardFeatures: pq.StringArray(FeaturesForLevel(level)),
		LastLevelChange:   now,
	}

	// Seed the KYC reference when one is resolvable.
	if kyc, err := s.kyc.LatestForUser(ctx, userID); err == nil && kyc != nil {
		id := kyc.ID
		row.KYCRecordID = &id
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve kyc record")
	}

	stampRow(row, level, opts, now)

	if err := s.repo.Create(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create dashboard access")
	}
	return nil
}

func applyStepColumns(updates map[string]any, level enums.AccessLevel, opts AdvanceOptions, now time.Time) {
	switch level {
	case enums.AccessLevelBankingSubmitted:
		updates["banking_submission_date"] = now
	case enums.AccessLevelAgreementSigned:
		updates["agreement_signing_date"] = now
		if opts.AgreementID != nil {
			updates["agreement_id"] = *opts.AgreementID
		}
	case enums.AccessLevelBankingVerified:
		updates["banking_verification_date"] = now
	}
}

func stampRow(row *models.DashboardAccess, level enums.AccessLevel, opts AdvanceOptions, now time.Time) {
	switch level {
	case enums.AccessLevelBankingSubmitted:
		row.BankingSubmissionDate = &now
	case enums.AccessLevelAgreementSigned:
		row.AgreementSigningDate = &now
		row.AgreementID = opts.AgreementID
	case enums.AccessLevelBankingVerified:
		row.BankingVerificationDate = &now
	}
}

// EnsureRow bootstraps the dashboard access row at pre_kyc when none exists.
// Existing rows are left untouched regardless of their level.
func (s *service) EnsureRow(ctx context.Context, userID uuid.UUID, kycRecordID *uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	_, err := s.repo.Current(ctx, userID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load dashboard access")
	}

	row := &models.DashboardAccess{
		UserID:            userID,
		KYCRecordID:       kycRecordID,
		AccessLevel:       enums.AccessLevelPreKYC,
		DashboardFeatures: pq.StringArray(FeaturesForLevel(enums.AccessLevelPreKYC)),
		LastLevelChange:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create dashboard access")
	}
	return nil
}

// CurrentLevel returns the user's current access level, defaulting to pre_kyc
// when no row exists yet.
func (s *service) CurrentLevel(ctx context.Context, userID uuid.UUID) (enums.AccessLevel, error) {
	current, err := s.repo.Current(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return enums.AccessLevelPreKYC, nil
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load dashboard access")
	}
	return current.AccessLevel, nil
}

// Features returns the feature list for the user's current level.
func (s *service) Features(ctx context.Context, userID uuid.UUID) ([]string, error) {
	level, err := s.CurrentLevel(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FeaturesForLevel(level), nil
}
