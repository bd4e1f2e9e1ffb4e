package agreements

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/finleap/scf-onboarding-backend/internal/access"
	"github.com/finleap/scf-onboarding-backend/internal/notifications"
	"github.com/finleap/scf-onboarding-backend/pkg/config"
	"github.com/finleap/scf-onboarding-backend/pkg/db/models"
	"github.com/finleap/scf-onboarding-backend/pkg/enums"
	pkgerrors "github.com/finleap/scf-onboarding-backend/pkg/errors"
	"github.com/finleap/scf-onboarding-backend/pkg/logger"
	"github.com/finleap/scf-onboarding-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultSignatureMethod = "electronic"

// Service is the agreement lifecycle manager: auto-presentation, explicit
// creation, and signing with its downstream side effects.
type Service interface {
	List(ctx context.Context, identity types.Identity) ([]AgreementDTO, error)
	Create(ctx context.Context, identity types.Identity, req CreateAgreementRequest) (*AgreementDTO, error)
	Sign(ctx context.Context, identity types.Identity, agreementID uuid.UUID, req SignAgreementRequest, ipAddress string) (*SignAgreementResponse, error)
	ReconcileSigned(ctx context.Context, since time.Time, limit int) (int, error)
}

type repository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Agreement, error)
	FindByID(ctx context.Context, id, userID uuid.UUID) (*models.Agreement, error)
	ActiveExistsForPair(ctx context.Context, userID uuid.UUID, agreementType enums.AgreementType, counterpartyUserID *uuid.UUID) (bool, error)
	OpenExistsForType(ctx context.Context, userID uuid.UUID, agreementType enums.AgreementType) (bool, error)
	Create(ctx context.Context, agreement *models.Agreement) error
	MarkSigned(ctx context.Context, id, userID uuid.UUID, cols SignColumns) (int64, error)
	ActiveTemplate(ctx context.Context, templateType enums.AgreementType) (*models.AgreementTemplate, error)
	CreateTemplate(ctx context.Context, template *models.AgreementTemplate) error
	SignedNeedingReconciliation(ctx context.Context, since time.Time, limit int) ([]models.Agreement, error)
}

type invitationLinker interface {
	LatestForSupplier(ctx context.Context, supplierUserID uuid.UUID, email string) (*models.SupplierInvitation, error)
	CompleteForSupplier(ctx context.Context, supplierUserID uuid.UUID, email string, now time.Time) (int64, error)
	ActivateLinkByID(ctx context.Context, linkID uuid.UUID, now time.Time) (int64, error)
	ActivateLinkByPair(ctx context.Context, buyerID, supplierUserID uuid.UUID, now time.Time) (int64, error)
	FindLinkByPair(ctx context.Context, buyerID, supplierUserID uuid.UUID) (*models.BuyerSupplierLink, error)
}

type accessMachine interface {
	AdvanceLevel(ctx context.Context, userID uuid.UUID, level enums.AccessLevel, opts access.AdvanceOptions) error
	CurrentLevel(ctx context.Context, userID uuid.UUID) (enums.AccessLevel, error)
}

type bankingReader interface {
	LatestForUser(ctx context.Context, userID uuid.UUID) (*models.BankingDetails, error)
}

type userReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type service struct {
	repo        repository
	invitations invitationLinker
	access      accessMachine
	banking     bankingReader
	users       userReader
	dispatcher  *notifications.Dispatcher
	portal      config.PortalConfig
	log         *logger.Logger
}

// ServiceParams bundles the agreement service dependencies.
type ServiceParams struct {
	Repo        repository
	Invitations invitationLinker
	Access      accessMachine
	Banking     bankingReader
	Users       userReader
	Dispatcher  *notifications.Dispatcher
	Portal      config.PortalConfig
	Logger      *logger.Logger
}

// NewService wires the agreement lifecycle manager.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("agreement repository is required")
	}
	if params.Invitations == nil {
		return nil, fmt.Errorf("invitation linker is required")
	}
	if params.Access == nil {
		return nil, fmt.Errorf("access machine is required")
	}
	if params.Banking == nil {
		return nil, fmt.Errorf("banking reader is required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user reader is required")
	}
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("notification dispatcher is required")
	}
	return &service{
		repo:        params.Repo,
		invitations: params.Invitations,
		access:      params.Access,
		banking:     params.Banking,
		users:       params.Users,
		dispatcher:  params.Dispatcher,
		portal:      params.Portal,
		log:         params.Logger,
	}, nil
}

// List returns the user's agreements, auto-presenting the one they should be
// looking at when it does not exist yet.
func (s *service) List(ctx context.Context, identity types.Identity) ([]AgreementDTO, error) {
	if identity.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	rows, err := s.repo.ListByUser(ctx, identity.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list agreements")
	}

	switch identity.Role {
	case enums.UserRoleBuyer:
		if len(rows) == 0 {
			if err := s.ensureBuyerAgreement(ctx, identity); err != nil {
				return nil, err
			}
		}
	case enums.UserRoleSupplier:
		// Runs on every listing: first presentation when the list is empty,
		// and a safeguard backfill for a buyer-scoped agreement that should
		// exist but does not.
		if err := s.ensureSupplierAgreement(ctx, identity); err != nil {
			return nil, err
		}
	}

	rows, err = s.repo.ListByUser(ctx, identity.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list agreements")
	}

	items := make([]AgreementDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, fromModel(row))
	}
	return items, nil
}

func (s *service) ensureBuyerAgreement(ctx context.Context, identity types.Identity) error {
	exists, err := s.repo.ActiveExistsForPair(ctx, identity.UserID, enums.AgreementTypeFacility, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing agreement")
	}
	if exists {
		return nil
	}
	_, err = s.present(ctx, identity, enums.AgreementTypeFacility, nil, nil)
	return err
}

func (s *service) ensureSupplierAgreement(ctx context.Context, identity types.Identity) error {
	eligible, err := s.supplierEligible(ctx, identity.UserID)
	if err != nil {
		return err
	}
	if !eligible {
		return nil
	}

	var counterparty *uuid.UUID
	invitation, err := s.invitations.LatestForSupplier(ctx, identity.UserID, identity.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve invitation")
	}
	if invitation != nil {
		buyerID := invitation.BuyerID
		counterparty = &buyerID
	}

	exists, err := s.repo.ActiveExistsForPair(ctx, identity.UserID, enums.AgreementTypeSupplierTerms, counterparty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing agreement")
	}
	if exists {
		return nil
	}

	var linkID *uuid.UUID
	if counterparty != nil {
		if link, err := s.invitations.FindLinkByPair(ctx, *counterparty, identity.UserID); err == nil {
			id := link.ID
			linkID = &id
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve buyer-supplier link")
		}
	}

	_, err = s.present(ctx, identity, enums.AgreementTypeSupplierTerms, counterparty, linkID)
	return err
}

// supplierEligible gates supplier terms on banking: the submitted level or an
// explicitly verified banking record.
func (s *service) supplierEligible(ctx context.Context, userID uuid.UUID) (bool, error) {
	level, err := s.access.CurrentLevel(ctx, userID)
	if err != nil {
		return false, err
	}
	if level == enums.AccessLevelBankingSubmitted || level == enums.AccessLevelBankingVerified {
		return true, nil
	}

	banking, err := s.banking.LatestForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load banking details")
	}
	return banking.Status == enums.BankingStatusVerified, nil
}

// present resolves (seeding when missing) the template and inserts a
// presented agreement.
func (s *service) present(ctx context.Context, identity types.Identity, agreementType enums.AgreementType, counterparty, linkID *uuid.UUID) (*models.Agreement, error) {
	now := time.Now().UTC()
	expiry := now.Add(s.portal.AgreementExpiry())

	version := defaultTemplateVersion
	content := defaultContentFor(agreementType)
	var templateID *uuid.UUID

	template, err := s.resolveTemplate(ctx, agreementType)
	if err != nil {
		// Template resolution failed even after seeding; fall back to the
		// hardcoded content with no template reference.
		s.logError(ctx, "resolve agreement template", err)
	} else {
		id := template.ID
		templateID = &id
		version = template.Version
		content = template.ContentTemplate
	}

	agreement := &models.Agreement{
		UserID:           identity.UserID,
		AgreementType:    agreementType,
		AgreementVersion: version,
		TemplateID:       templateID,
		AgreementContent: renderTemplate(content, map[string]string{
			"effective_date": now.Format("2006-01-02"),
			"party_email":    identity.Email,
		}),
		Status:              enums.AgreementStatusPresented,
		PresentedAt:         &now,
		ExpiryDate:          &expiry,
		CounterpartyUserID:  counterparty,
		BuyerSupplierLinkID: linkID,
	}
	if err := s.repo.Create(ctx, agreement); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create agreement")
	}
	return agreement, nil
}

func (s *service) resolveTemplate(ctx context.Context, agreementType enums.AgreementType) (*models.AgreementTemplate, error) {
	template, err := s.repo.ActiveTemplate(ctx, agreementType)
	if err == nil {
		return template, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	seed := &models.AgreementTemplate{
		TemplateType:    agreementType,
		Version:         defaultTemplateVersion,
		ContentTemplate: defaultContentFor(agreementType),
		IsActive:        true,
	}
	if err := s.repo.CreateTemplate(ctx, seed); err != nil {
		return nil, err
	}
	return s.repo.ActiveTemplate(ctx, agreementType)
}

func defaultContentFor(agreementType enums.AgreementType) string {
	if tpl, ok := defaultTemplates[agreementType]; ok {
		return tpl.title + "\n\n" + tpl.body
	}
	return ""
}

// Create is the explicit user-initiated presentation path. Templates are
// auto-seeded here as well so a missing admin-owned template never fails a
// legitimate request.
func (s *service) Create(ctx context.Context, identity types.Identity, req CreateAgreementRequest) (*AgreementDTO, error) {
	if identity.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	agreementType, err := enums.ParseAgreementType(req.AgreementType)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid agreement type")
	}

	if identity.Role == enums.UserRoleSupplier {
		eligible, err := s.supplierEligible(ctx, identity.UserID)
		if err != nil {
			return nil, err
		}
		if !eligible {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "banking details must be submitted first").
				WithDetails(map[string]any{"shouldVerify": true})
		}
	}

	exists, err := s.repo.OpenExistsForType(ctx, identity.UserID, agreementType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing agreement")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "agreement already exists for this type")
	}

	var counterparty *uuid.UUID
	var linkID *uuid.UUID
	if identity.Role == enums.UserRoleSupplier {
		invitation, err := s.invitations.LatestForSupplier(ctx, identity.UserID, identity.Email)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve invitation")
		}
		if invitation != nil {
			buyerID := invitation.BuyerID
			counterparty = &buyerID
			if link, err := s.invitations.FindLinkByPair(ctx, buyerID, identity.UserID); err == nil {
				id := link.ID
				linkID = &id
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve buyer-supplier link")
			}
		}
	}

	agreement, err := s.present(ctx, identity, agreementType, counterparty, linkID)
	if err != nil {
		return nil, err
	}
	dto := fromModel(*agreement)
	return &dto, nil
}

// Sign finalizes the agreement. The presented -> signed transition is the
// durable atomic fact; everything after it is best-effort and idempotent.
func (s *service) Sign(ctx context.Context, identity types.Identity, agreementID uuid.UUID, req SignAgreementRequest, ipAddress string) (*SignAgreementResponse, error) {
	if identity.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	name := strings.TrimSpace(req.SignatoryName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "signatory_name is required")
	}
	method := strings.TrimSpace(req.SignatureMethod)
	if method == "" {
		method = defaultSignatureMethod
	}

	now := time.Now().UTC()
	cols := SignColumns{
		SignatoryName:   name,
		SignatoryTitle:  req.SignatoryTitle,
		SignatureMethod: method,
		SignatureData:   fmt.Sprintf("signed_by_%s_at_%d", identity.UserID, now.Unix()),
		SignedAt:        now,
	}
	if ipAddress != "" {
		cols.IPAddress = &ipAddress
	}

	updated, err := s.repo.MarkSigned(ctx, agreementID, identity.UserID, cols)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sign agreement")
	}
	if updated == 0 {
		// Covers missing, not owned, and already signed without leaking which.
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "agreement not found")
	}

	agreement, err := s.repo.FindByID(ctx, agreementID, identity.UserID)
	if err != nil {
		s.logError(ctx, "reload signed agreement", err)
	} else {
		s.runSigningSideEffects(ctx, identity, agreement, now)
	}

	return &SignAgreementResponse{AgreementID: agreementID, SignedAt: now}, nil
}

// runSigningSideEffects applies the post-signature saga steps in order. Each
// one is independently best-effort: failures are logged, never rolled back,
// and re-run by the reconciliation sweep.
func (s *service) runSigningSideEffects(ctx context.Context, identity types.Identity, agreement *models.Agreement, now time.Time) {
	id := agreement.ID
	err := s.access.AdvanceLevel(ctx, identity.UserID, enums.AccessLevelAgreementSigned, access.AdvanceOptions{
		Role:        identity.Role,
		AgreementID: &id,
	})
	if err != nil {
		s.logError(ctx, "advance signer access level", err)
	}

	if _, err := s.invitations.CompleteForSupplier(ctx, identity.UserID, identity.Email, now); err != nil {
		s.logError(ctx, "complete supplier invitations", err)
	}

	if identity.Role == enums.UserRoleSupplier {
		s.activateLink(ctx, identity.UserID, agreement, now)
	}

	s.notifyBuyer(ctx, identity, agreement)
}

func (s *service) activateLink(ctx context.Context, supplierUserID uuid.UUID, agreement *models.Agreement, now time.Time) {
	if agreement.BuyerSupplierLinkID != nil {
		if _, err := s.invitations.ActivateLinkByID(ctx, *agreement.BuyerSupplierLinkID, now); err != nil {
			s.logError(ctx, "activate buyer-supplier link", err)
		}
		return
	}
	if agreement.CounterpartyUserID != nil {
		if _, err := s.invitations.ActivateLinkByPair(ctx, *agreement.CounterpartyUserID, supplierUserID, now); err != nil {
			s.logError(ctx, "activate buyer-supplier link", err)
		}
	}
}

// notifyBuyer resolves the counterparty buyer and dispatches the signing
// notification. No resolvable buyer silently skips the send.
func (s *service) notifyBuyer(ctx context.Context, identity types.Identity, agreement *models.Agreement) {
	buyerID := agreement.CounterpartyUserID
	if buyerID == nil {
		invitation, err := s.invitations.LatestForSupplier(ctx, identity.UserID, identity.Email)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				s.logError(ctx, "resolve invitation for notification", err)
			}
			return
		}
		id := invitation.BuyerID
		buyerID = &id
	}

	buyer, err := s.users.FindByID(ctx, *buyerID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logError(ctx, "resolve buyer for notification", err)
		}
		return
	}

	s.dispatcher.Milestone(ctx, notifications.MilestoneParams{
		UserID:  buyer.ID,
		Kind:    enums.NotificationKindAgreementSigned,
		Title:   "Supplier Agreement Signed",
		Message: fmt.Sprintf("%s signed their supplier agreement.", identity.Email),
		Email:   buyer.Email,
		Role:    buyer.Role,
		Subject: "Supplier Agreement Signed",
		Body: []string{
			"A supplier you invited has signed their agreement.",
			"Their onboarding will continue with banking verification.",
		},
	})
}

// ReconcileSigned re-runs the idempotent signing side effects for recently
// signed agreements. Returns the number of agreements swept.
func (s *service) ReconcileSigned(ctx context.Context, since time.Time, limit int) (int, error) {
	rows, err := s.repo.SignedNeedingReconciliation(ctx, since, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list signed agreements")
	}

	now := time.Now().UTC()
	for i := range rows {
		agreement := rows[i]
		signer, err := s.users.FindByID(ctx, agreement.UserID)
		if err != nil {
			s.logError(ctx, "resolve signer for reconciliation", err)
			continue
		}
		identity := types.Identity{UserID: signer.ID, Email: signer.Email, Role: signer.Role}

		if _, err := s.invitations.CompleteForSupplier(ctx, identity.UserID, identity.Email, now); err != nil {
			s.logError(ctx, "reconcile supplier invitations", err)
		}
		if signer.Role == enums.UserRoleSupplier {
			s.activateLink(ctx, identity.UserID, &agreement, now)
		}
	}
	return len(rows), nil
}

func (s *service) logError(ctx context.Context, msg string, err error) {
	if s.log == nil {
		return
	}
	s.log.Error(ctx, msg, err)
}
