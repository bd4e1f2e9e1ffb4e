package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/finleap/scf-onboarding-backend/internal/invitations"
	"github.com/finleap/scf-onboarding-backend/internal/users"
	"github.com/finleap/scf-onboarding-backend/pkg/config"
	"github.com/finleap/scf-onboarding-backend/pkg/db/models"
	"github.com/finleap/scf-onboarding-backend/pkg/enums"
	pkgerrors "github.com/finleap/scf-onboarding-backend/pkg/errors"
	"github.com/finleap/scf-onboarding-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RegisterRequest contains the payload required to create a portal account.
// Suppliers arriving through an invitation pass the token so the invitation
// can be attached to the new account.
type RegisterRequest struct {
	FirstName       string  `json:"first_name" validate:"required"`
	LastName        string  `json:"last_name" validate:"required"`
	Email           string  `json:"email" validate:"required,email"`
	Password        string  `json:"password" validate:"required,min=8"`
	Phone           *string `json:"phone,omitempty"`
	Role            string  `json:"role" validate:"required"`
	InvitationToken *string `json:"invitation_token,omitempty"`
	AcceptTOS       bool    `json:"accept_tos"`
}

// RegisterService handles the account creation transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type registerUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

type registerInvitationRepository interface {
	AttachRegistration(ctx context.Context, token string, supplierUserID uuid.UUID) error
	FindByToken(ctx context.Context, token string) (*models.SupplierInvitation, error)
	FindLinkByPair(ctx context.Context, buyerID, supplierUserID uuid.UUID) (*models.BuyerSupplierLink, error)
	CreateLink(ctx context.Context, link *models.BuyerSupplierLink) error
}

// RegisterServiceParams packages the dependencies for the registration flow.
// Repo factories default to the concrete implementations when nil.
type RegisterServiceParams struct {
	TxRunner              txRunner
	UserRepoFactory       func(tx *gorm.DB) registerUserRepository
	InvitationRepoFactory func(tx *gorm.DB) registerInvitationRepository
	PasswordConfig        config.PasswordConfig
}

type registerService struct {
	tx              txRunner
	userRepos       func(tx *gorm.DB) registerUserRepository
	invitationRepos func(tx *gorm.DB) registerInvitationRepository
	passwordCfg     config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	userFactory := params.UserRepoFactory
	if userFactory == nil {
		userFactory = func(tx *gorm.DB) registerUserRepository {
			return users.NewRepository(tx)
		}
	}
	invitationFactory := params.InvitationRepoFactory
	if invitationFactory == nil {
		invitationFactory = func(tx *gorm.DB) registerInvitationRepository {
			return invitations.NewRepository(tx)
		}
	}
	return &registerService{
		tx:              params.TxRunner,
		userRepos:       userFactory,
		invitationRepos: invitationFactory,
		passwordCfg:     params.PasswordConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	role, err := enums.ParseUserRole(req.Role)
	if err != nil || role.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeValidation, "role must be buyer or supplier")
	}
	if !req.AcceptTOS {
		return pkgerrors.New(pkgerrors.CodeValidation, "accept_tos must be true")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.userRepos(tx)
		invitationRepo := s.invitationRepos(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Phone:        req.Phone,
			Role:         role,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		if req.InvitationToken != nil && role == enums.UserRoleSupplier {
			token := strings.TrimSpace(*req.InvitationToken)
			if token != "" {
				if err := attachInvitation(ctx, invitationRepo, token, user.ID); err != nil {
					return err
				}
			}
		}

		return nil
	})
}

// attachInvitation binds the invitation to the new supplier account and seeds
// a pending buyer-supplier link so signing can later activate it.
func attachInvitation(ctx context.Context, repo registerInvitationRepository, token string, supplierUserID uuid.UUID) error {
	if err := repo.AttachRegistration(ctx, token, supplierUserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "invitation token is invalid or expired")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "attach invitation")
	}

	invitation, err := repo.FindByToken(ctx, token)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload invitation")
	}

	if _, err := repo.FindLinkByPair(ctx, invitation.BuyerID, supplierUserID); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check buyer-supplier link")
	}

	link := &models.BuyerSupplierLink{
		BuyerID:        invitation.BuyerID,
		SupplierUserID: supplierUserID,
		Status:         enums.LinkStatusPending,
	}
	if err := repo.CreateLink(ctx, link); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create buyer-supplier link")
	}
	return nil
}
