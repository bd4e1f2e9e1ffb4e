package auth

import (
	"context"
	"testing"
	"time"

	"github.com/finleap/scf-onboarding-backend/internal/users"
	"github.com/finleap/scf-onboarding-backend/pkg/config"
	pkgmodels "github.com/finleap/scf-onboarding-backend/pkg/db/models"
	"github.com/finleap/scf-onboarding-backend/pkg/enums"
	pkgerrors "github.com/finleap/scf-onboarding-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type stubTxRunner struct{}

func (s stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRegisterUserRepo struct {
	data      map[string]*pkgmodels.User
	created   *pkgmodels.User
	createErr error
}

func newStubRegisterUserRepo() *stubRegisterUserRepo {
	return &stubRegisterUserRepo{data: map[string]*pkgmodels.User{}}
}

func (s *stubRegisterUserRepo) FindByEmail(ctx context.Context, email string) (*pkgmodels.User, error) {
	if user, ok := s.data[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRegisterUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*pkgmodels.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	user := dto.ToModel()
	user.ID = uuid.New()
	s.data[dto.Email] = user
	s.created = user
	return user, nil
}

type stubRegisterInvitationRepo struct {
	invitation  *pkgmodels.SupplierInvitation
	attachedTo  uuid.UUID
	createdLink *pkgmodels.BuyerSupplierLink
	attachErr   error
}

func (s *stubRegisterInvitationRepo) AttachRegistration(ctx context.Context, token string, supplierUserID uuid.UUID) error {
	if s.attachErr != nil {
		return s.attachErr
	}
	if s.invitation == nil || s.invitation.InvitationToken != token {
		return gorm.ErrRecordNotFound
	}
	s.attachedTo = supplierUserID
	s.invitation.Status = enums.InvitationStatusRegistered
	s.invitation.SupplierUserID = &supplierUserID
	return nil
}

func (s *stubRegisterInvitationRepo) FindByToken(ctx context.Context, token string) (*pkgmodels.SupplierInvitation, error) {
	if s.invitation == nil || s.invitation.InvitationToken != token {
		return nil, gorm.ErrRecordNotFound
	}
	return s.invitation, nil
}

func (s *stubRegisterInvitationRepo) FindLinkByPair(ctx context.Context, buyerID, supplierUserID uuid.UUID) (*pkgmodels.BuyerSupplierLink, error) {
	if s.createdLink != nil && s.createdLink.BuyerID == buyerID && s.createdLink.SupplierUserID == supplierUserID {
		return s.createdLink, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRegisterInvitationRepo) CreateLink(ctx context.Context, link *pkgmodels.BuyerSupplierLink) error {
	link.ID = uuid.New()
	s.createdLink = link
	return nil
}

type registerTestSetup struct {
	service        RegisterService
	userRepo       *stubRegisterUserRepo
	invitationRepo *stubRegisterInvitationRepo
}

func newRegisterTestSetup(t *testing.T) *registerTestSetup {
	t.Helper()
	userRepo := newStubRegisterUserRepo()
	invitationRepo := &stubRegisterInvitationRepo{}
	svc, err := NewRegisterService(RegisterServiceParams{
		TxRunner: stubTxRunner{},
		UserRepoFactory: func(tx *gorm.DB) registerUserRepository {
			return userRepo
		},
		InvitationRepoFactory: func(tx *gorm.DB) registerInvitationRepository {
			return invitationRepo
		},
		PasswordConfig: config.PasswordConfig{},
	})
	if err != nil {
		t.Fatalf("new register service: %v", err)
	}
	return &registerTestSetup{
		service:        svc,
		userRepo:       userRepo,
		invitationRepo: invitationRepo,
	}
}

func sampleRegisterRequest(email, role string) RegisterRequest {
	return RegisterRequest{
		FirstName: "Jamie",
		LastName:  "Rivera",
		Email:     email,
		Password:  "Secret123!",
		Role:      role,
		AcceptTOS: true,
	}
}

func TestRegisterCreatesBuyerAccount(t *testing.T) {
	setup := newRegisterTestSetup(t)
	req := sampleRegisterRequest("new@corp.example", "buyer")

	if err := setup.service.Register(context.Background(), req); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	created := setup.userRepo.created
	if created == nil {
		t.Fatalf("expected user to be created")
	}
	if created.Role != enums.UserRoleBuyer {
		t.Fatalf("expected buyer role, got %s", created.Role)
	}
	if created.PasswordHash == req.Password {
		t.Fatalf("password stored unhashed")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	setup := newRegisterTestSetup(t)
	setup.userRepo.data["taken@corp.example"] = &pkgmodels.User{ID: uuid.New(), Email: "taken@corp.example"}

	err := setup.service.Register(context.Background(), sampleRegisterRequest("taken@corp.example", "buyer"))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	setup := newRegisterTestSetup(t)

	err := setup.service.Register(context.Background(), sampleRegisterRequest("admin@portal.example", "admin"))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegisterSupplierWithInvitationAttachesAndLinks(t *testing.T) {
	setup := newRegisterTestSetup(t)
	buyerID := uuid.New()
	setup.invitationRepo.invitation = &pkgmodels.SupplierInvitation{
		ID:              uuid.New(),
		BuyerID:         buyerID,
		InvitationToken: "tok-123",
		Status:          enums.InvitationStatusOpened,
		ExpiresAt:       time.Now().Add(time.Hour),
	}

	req := sampleRegisterRequest("supplier@acme.example", "supplier")
	token := "tok-123"
	req.InvitationToken = &token

	if err := setup.service.Register(context.Background(), req); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if setup.invitationRepo.attachedTo != setup.userRepo.created.ID {
		t.Fatalf("invitation not attached to created user")
	}
	link := setup.invitationRepo.createdLink
	if link == nil {
		t.Fatalf("expected pending buyer-supplier link")
	}
	if link.BuyerID != buyerID || link.SupplierUserID != setup.userRepo.created.ID {
		t.Fatalf("link endpoints wrong: %+v", link)
	}
	if link.Status != enums.LinkStatusPending {
		t.Fatalf("expected pending link, got %s", link.Status)
	}
}

func TestRegisterSupplierWithBadInvitationToken(t *testing.T) {
	setup := newRegisterTestSetup(t)

	req := sampleRegisterRequest("supplier@acme.example", "supplier")
	token := "missing"
	req.InvitationToken = &token

	err := setup.service.Register(context.Background(), req)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
