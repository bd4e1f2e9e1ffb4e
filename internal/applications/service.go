package applications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/finleap/scf-onboarding-backend/pkg/db/models"
	"github.com/finleap/scf-onboarding-backend/pkg/enums"
	pkgerrors "github.com/finleap/scf-onboarding-backend/pkg/errors"
	"github.com/finleap/scf-onboarding-backend/pkg/logger"
	"github.com/finleap/scf-onboarding-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service manages company records and their KYC applications, including the
// anonymous draft flow and draft claiming on authenticated resubmission.
type Service interface {
	Submit(ctx context.Context, identity types.Identity, req SubmitApplicationRequest) (*SubmitApplicationResponse, error)
	Get(ctx context.Context, userID uuid.UUID) (*ApplicationDTO, error)
}

type repository interface {
	FindCompanyByUserID(ctx context.Context, userID uuid.UUID) (*models.Company, error)
	FindDraftCompany(ctx context.Context, registrationNumber string, companyType enums.CompanyType) (*models.Company, error)
	ClaimedCompanyExists(ctx context.Context, registrationNumber string, companyType enums.CompanyType, excludeUserID *uuid.UUID) (bool, error)
	CreateCompany(ctx context.Context, company *models.Company) error
	UpdateCompany(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ClaimCompany(ctx context.Context, id, userID uuid.UUID, updates map[string]any) (int64, error)
	LatestForUser(ctx context.Context, userID uuid.UUID) (*models.KYCRecord, error)
	LatestForCompany(ctx context.Context, companyID uuid.UUID) (*models.KYCRecord, error)
	CreateKYC(ctx context.Context, record *models.KYCRecord) error
	ClaimKYC(ctx context.Context, id, userID uuid.UUID) (int64, error)
	ResetRejected(ctx context.Context, id uuid.UUID, now time.Time) (int64, error)
}

type accessMachine interface {
	EnsureRow(ctx context.Context, userID uuid.UUID, kycRecordID *uuid.UUID) error
}

type service struct {
	repo   repository
	access accessMachine
	log    *logger.Logger
}

// ServiceParams bundles the application service dependencies.
type ServiceParams struct {
	Repo   repository
	Access accessMachine
	Logger *logger.Logger
}

// NewService wires the company/KYC application service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("application repository is required")
	}
	if params.Access == nil {
		return nil, fmt.Errorf("access machine is required")
	}
	return &service{repo: params.Repo, access: params.Access, log: params.Logger}, nil
}

// Submit handles both the authenticated and the anonymous draft path. An
// identity with a nil user id is an anonymous caller.
func (s *service) Submit(ctx context.Context, identity types.Identity, req SubmitApplicationRequest) (*SubmitApplicationResponse, error) {
	registrationNumber := strings.TrimSpace(req.RegistrationNumber)
	if registrationNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "registration_number is required")
	}
	if strings.TrimSpace(req.CompanyName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company_name is required")
	}
	req.RegistrationNumber = registrationNumber

	if identity.UserID == uuid.Nil {
		return s.submitDraft(ctx, req)
	}
	return s.submitAuthenticated(ctx, identity, req)
}

func (s *service) submitAuthenticated(ctx context.Context, identity types.Identity, req SubmitApplicationRequest) (*SubmitApplicationResponse, error) {
	companyType := resolveCompanyType(req.CompanyType, &identity.Role)
	now := time.Now().UTC()

	company, err := s.resolveCompany(ctx, identity.UserID, companyType, req)
	if err != nil {
		return nil, err
	}

	record, err := s.resolveKYC(ctx, identity.UserID, company.ID, now)
	if err != nil {
		return nil, err
	}

	// The access row is ancillary bootstrap state; its absence never blocks a
	// submission that already persisted.
	kycID := record.ID
	if err := s.access.EnsureRow(ctx, identity.UserID, &kycID); err != nil {
		s.logError(ctx, "ensure dashboard access row", err)
	}

	return &SubmitApplicationResponse{
		CompanyID:   company.ID,
		KYCRecordID: record.ID,
		Status:      record.Status,
	}, nil
}

// resolveCompany upserts the caller's company: their own row, a claimable
// draft, or a fresh insert. A claimed company under another account with the
// same registration pair is a hard duplicate.
func (s *service) resolveCompany(ctx context.Context, userID uuid.UUID, companyType enums.CompanyType, req SubmitApplicationRequest) (*models.Company, error) {
	company, err := s.repo.FindCompanyByUserID(ctx, userID)
	if err == nil {
		if err := s.repo.UpdateCompany(ctx, company.ID, companyUpdates(req)); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update company")
		}
		return company, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load company")
	}

	draft, err := s.repo.FindDraftCompany(ctx, req.RegistrationNumber, companyType)
	if err == nil {
		claimed, err := s.repo.ClaimCompany(ctx, draft.ID, userID, companyUpdates(req))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claim draft company")
		}
		if claimed == 0 {
			// Lost the claim race to another account.
			return nil, duplicateCompanyError()
		}
		return draft, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find draft company")
	}

	exists, err := s.repo.ClaimedCompanyExists(ctx, req.RegistrationNumber, companyType, &userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check duplicate company")
	}
	if exists {
		return nil, duplicateCompanyError()
	}

	company = newCompany(req, companyType)
	company.UserID = &userID
	if err := s.repo.CreateCompany(ctx, company); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create company")
	}
	return company, nil
}

// resolveKYC finds the caller's KYC record, claiming a company draft when
// present, creating one otherwise, and re-opening a rejected record as a
// fresh pending submission.
func (s *service) resolveKYC(ctx context.Context, userID, companyID uuid.UUID, now time.Time) (*models.KYCRecord, error) {
	record, err := s.repo.LatestForUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load kyc record")
		}
		record, err = s.claimOrCreateKYC(ctx, userID, companyID, now)
		if err != nil {
			return nil, err
		}
	}

	if record.Status == enums.KYCStatusRejected {
		if _, err := s.repo.ResetRejected(ctx, record.ID, now); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reset rejected kyc record")
		}
		record.Status = enums.KYCStatusPending
		record.SubmittedAt = now
	}
	return record, nil
}

func (s *service) claimOrCreateKYC(ctx context.Context, userID, companyID uuid.UUID, now time.Time) (*models.KYCRecord, error) {
	record, err := s.repo.LatestForCompany(ctx, companyID)
	if err == nil && record.UserID == nil {
		if _, err := s.repo.ClaimKYC(ctx, record.ID, userID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claim draft kyc record")
		}
		record.UserID = &userID
		return record, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load company kyc record")
	}
	if err == nil {
		return record, nil
	}

	record = &models.KYCRecord{
		UserID:      &userID,
		CompanyID:   companyID,
		Status:      enums.KYCStatusPending,
		SubmittedAt: now,
	}
	if err := s.repo.CreateKYC(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create kyc record")
	}
	return record, nil
}

// submitDraft is the anonymous path: never blocks on account existence, only
// redirects to login when the company is already claimed.
func (s *service) submitDraft(ctx context.Context, req SubmitApplicationRequest) (*SubmitApplicationResponse, error) {
	companyType := resolveCompanyType(req.CompanyType, nil)

	claimed, err := s.repo.ClaimedCompanyExists(ctx, req.RegistrationNumber, companyType, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check claimed company")
	}
	if claimed {
		return &SubmitApplicationResponse{ShouldLogin: true}, nil
	}

	company, err := s.repo.FindDraftCompany(ctx, req.RegistrationNumber, companyType)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find draft company")
		}
		company = newCompany(req, companyType)
		if err := s.repo.CreateCompany(ctx, company); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create draft company")
		}
	} else if err := s.repo.UpdateCompany(ctx, company.ID, companyUpdates(req)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update draft company")
	}

	record, err := s.repo.LatestForCompany(ctx, company.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load draft kyc record")
		}
		record = &models.KYCRecord{
			CompanyID:   company.ID,
			Status:      enums.KYCStatusPending,
			SubmittedAt: time.Now().UTC(),
		}
		if err := s.repo.CreateKYC(ctx, record); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create draft kyc record")
		}
	}

	return &SubmitApplicationResponse{
		CompanyID:   company.ID,
		KYCRecordID: record.ID,
		Status:      record.Status,
		Draft:       true,
	}, nil
}

// Get returns the caller's application, or nil when there is nothing to show.
// A nil user id is a valid anonymous probe, not an error.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*ApplicationDTO, error) {
	if userID == uuid.Nil {
		return nil, nil
	}

	company, err := s.repo.FindCompanyByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load company")
	}

	record, err := s.repo.LatestForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			record, err = s.repo.LatestForCompany(ctx, company.ID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load kyc record")
		}
	}

	dto := applicationFromModels(*company, *record)
	return &dto, nil
}

// resolveCompanyType trusts a valid explicit type, then the caller's role,
// then defaults to buyer for anonymous drafts.
func resolveCompanyType(explicit string, role *enums.UserRole) enums.CompanyType {
	if parsed, err := enums.ParseCompanyType(strings.TrimSpace(explicit)); err == nil {
		return parsed
	}
	if role != nil {
		if inferred, ok := enums.CompanyTypeForRole(*role); ok {
			return inferred
		}
	}
	return enums.CompanyTypeBuyer
}

func newCompany(req SubmitApplicationRequest, companyType enums.CompanyType) *models.Company {
	return &models.Company{
		CompanyName:        strings.TrimSpace(req.CompanyName),
		RegistrationNumber: req.RegistrationNumber,
		TaxNumber:          req.TaxNumber,
		Email:              strings.TrimSpace(req.Email),
		Phone:              req.Phone,
		Address:            req.Address,
		CompanyType:        companyType,
	}
}

func companyUpdates(req SubmitApplicationRequest) map[string]any {
	return map[string]any{
		"company_name": strings.TrimSpace(req.CompanyName),
		"tax_number":   req.TaxNumber,
		"email":        strings.TrimSpace(req.Email),
		"phone":        req.Phone,
		"address":      req.Address,
	}
}

func duplicateCompanyError() error {
	return pkgerrors.New(pkgerrors.CodeConflict, "a company with this registration number already exists").
		WithDetails(map[string]any{"code": "DUPLICATE_COMPANY"})
}

func (s *service) logError(ctx context.Context, msg string, err error) {
	if s.log == nil {
		return
	}
	s.log.Error(ctx, msg, err)
}
