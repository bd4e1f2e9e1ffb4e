package invitations

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/finleap/scf-onboarding-backend/internal/notifications"
	"github.com/finleap/scf-onboarding-backend/pkg/config"
	"github.com/finleap/scf-onboarding-backend/pkg/db/models"
	"github.com/finleap/scf-onboarding-backend/pkg/enums"
	pkgerrors "github.com/finleap/scf-onboarding-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const invitationTokenBytes = 32

// Service defines the buyer-facing invitation operations.
type Service interface {
	Create(ctx context.Context, buyerID uuid.UUID, req CreateInvitationRequest) (*InvitationDTO, error)
	List(ctx context.Context, buyerID uuid.UUID) ([]InvitationDTO, error)
	Cancel(ctx context.Context, buyerID, invitationID uuid.UUID) error
	Resend(ctx context.Context, buyerID, invitationID uuid.UUID) (*InvitationDTO, error)
	Open(ctx context.Context, token string) (*OpenInvitationResponse, error)
}

type repository interface {
	Create(ctx context.Context, invitation *models.SupplierInvitation) error
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.SupplierInvitation, error)
	FindByToken(ctx context.Context, token string) (*models.SupplierInvitation, error)
	Cancel(ctx context.Context, id, buyerID uuid.UUID) (int64, error)
	Resend(ctx context.Context, id, buyerID uuid.UUID, token string, expiresAt, now time.Time) (int64, error)
	FindByID(ctx context.Context, id, buyerID uuid.UUID) (*models.SupplierInvitation, error)
	MarkOpened(ctx context.Context, token string, now time.Time) error
}

type service struct {
	repo       repository
	dispatcher *notifications.Dispatcher
	portal     config.PortalConfig
}

// ServiceParams bundles the invitation service dependencies.
type ServiceParams struct {
	Repo       repository
	Dispatcher *notifications.Dispatcher
	Portal     config.PortalConfig
}

// NewService wires an invitation service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("invitation repository is required")
	}
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("notification dispatcher is required")
	}
	return &service{
		repo:       params.Repo,
		dispatcher: params.Dispatcher,
		portal:     params.Portal,
	}, nil
}

func (s *service) Create(ctx context.Context, buyerID uuid.UUID, req CreateInvitationRequest) (*InvitationDTO, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity required")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	token, err := generateInvitationToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate invitation token")
	}

	now := time.Now().UTC()
	invitation := &models.SupplierInvitation{
		BuyerID:            buyerID,
		InvitedCompanyName: strings.TrimSpace(req.CompanyName),
		InvitedEmail:       email,
		InvitationToken:    token,
		Status:             enums.InvitationStatusSent,
		ExpiresAt:          now.Add(s.portal.InvitationExpiry()),
		SentAt:             now,
	}
	if err := s.repo.Create(ctx, invitation); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create invitation")
	}

	s.dispatcher.Milestone(ctx, notifications.MilestoneParams{
		Kind:    enums.NotificationKindInvitationReceived,
		Title:   "You have been invited to the supplier portal",
		Message: fmt.Sprintf("%s invited you to onboard as a supplier.", invitation.InvitedCompanyName),
		Email:   email,
		Role:    enums.UserRoleSupplier,
		Subject: "Supplier Portal Invitation",
		Body: []string{
			"You have been invited to join the supply-chain finance portal as a supplier.",
			"Follow the link below to review the invitation and create your account.",
		},
	})

	dto := fromModel(*invitation, now)
	return &dto, nil
}

func (s *service) List(ctx context.Context, buyerID uuid.UUID) ([]InvitationDTO, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity required")
	}
	rows, err := s.repo.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list invitations")
	}
	now := time.Now().UTC()
	items := make([]InvitationDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, fromModel(row, now))
	}
	return items, nil
}

func (s *service) Cancel(ctx context.Context, buyerID, invitationID uuid.UUID) error {
	if buyerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity required")
	}
	updated, err := s.repo.Cancel(ctx, invitationID, buyerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel invitation")
	}
	if updated == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "invitation not found")
	}
	return nil
}

func (s *service) Resend(ctx context.Context, buyerID, invitationID uuid.UUID) (*InvitationDTO, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity required")
	}
	token, err := generateInvitationToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate invitation token")
	}
	now := time.Now().UTC()
	updated, err := s.repo.Resend(ctx, invitationID, buyerID, token, now.Add(s.portal.InvitationExpiry()), now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resend invitation")
	}
	if updated == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invitation not found")
	}

	invitation, err := s.repo.FindByID(ctx, invitationID, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload invitation")
	}

	s.dispatcher.Milestone(ctx, notifications.MilestoneParams{
		Kind:    enums.NotificationKindInvitationReceived,
		Title:   "Your supplier portal invitation was renewed",
		Message: fmt.Sprintf("%s renewed your supplier invitation.", invitation.InvitedCompanyName),
		Email:   invitation.InvitedEmail,
		Role:    enums.UserRoleSupplier,
		Subject: "Supplier Portal Invitation",
		Body: []string{
			"Your invitation to the supply-chain finance portal has been renewed.",
			"Follow the link below to continue your onboarding.",
		},
	})

	dto := fromModel(*invitation, now)
	return &dto, nil
}

func (s *service) Open(ctx context.Context, token string) (*OpenInvitationResponse, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "token is required")
	}
	invitation, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invitation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup invitation")
	}

	now := time.Now().UTC()
	status := invitation.EffectiveStatus(now)
	switch status {
	case enums.InvitationStatusCancelled, enums.InvitationStatusExpired:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invitation is no longer open")
	}

	if err := s.repo.MarkOpened(ctx, token, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark invitation opened")
	}
	if status == enums.InvitationStatusSent {
		status = enums.InvitationStatusOpened
	}

	return &OpenInvitationResponse{
		CompanyName: invitation.InvitedCompanyName,
		Email:       invitation.InvitedEmail,
		Status:      status,
	}, nil
}

func generateInvitationToken() (string, error) {
	bytes := make([]byte, invitationTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
