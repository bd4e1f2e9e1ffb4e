package adminreview

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/finleap/scf-onboarding-backend/internal/access"
	"github.com/finleap/scf-onboarding-backend/internal/agreements"
	"github.com/finleap/scf-onboarding-backend/internal/banking"
	"github.com/finleap/scf-onboarding-backend/internal/notifications"
	"github.com/finleap/scf-onboarding-backend/pkg/config"
	"github.com/finleap/scf-onboarding-backend/pkg/db/models"
	"github.com/finleap/scf-onboarding-backend/pkg/enums"
	"github.com/finleap/scf-onboarding-backend/pkg/types"
)

// In-memory state shared by the real services so the supplier onboarding
// chain (banking submit -> agreement sign -> admin verify) can run end to
// end against the actual state machine.

type flowAccessRepo struct {
	row *models.DashboardAccess
}

func (r *flowAccessRepo) Current(ctx context.Context, userID uuid.UUID) (*models.DashboardAccess, error) {
	if r.row == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return r.row, nil
}

func (r *flowAccessRepo) Create(ctx context.Context, row *models.DashboardAccess) error {
	row.ID = uuid.New()
	r.row = row
	return nil
}

func (r *flowAccessRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if level, ok := updates["access_level"].(enums.AccessLevel); ok {
		r.row.AccessLevel = level
	}
	if features, ok := updates["dashboard_features"].(pq.StringArray); ok {
		r.row.DashboardFeatures = features
	}
	if ts, ok := updates["banking_submission_date"].(time.Time); ok {
		r.row.BankingSubmissionDate = &ts
	}
	if ts, ok := updates["agreement_signing_date"].(time.Time); ok {
		r.row.AgreementSigningDate = &ts
	}
	if ts, ok := updates["banking_verification_date"].(time.Time); ok {
		r.row.BankingVerificationDate = &ts
	}
	return nil
}

type flowKYCReader struct {
	record *models.KYCRecord
}

func (r flowKYCReader) LatestForUser(ctx context.Context, userID uuid.UUID) (*models.KYCRecord, error) {
	if r.record == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return r.record, nil
}

type flowBankingRepo struct {
	rows []models.BankingDetails
}

func (r *flowBankingRepo) Create(ctx context.Context, details *models.BankingDetails) error {
	details.ID = uuid.New()
	r.rows = append(r.rows, *details)
	return nil
}

func (r *flowBankingRepo) LatestForUser(ctx context.Context, userID uuid.UUID) (*models.BankingDetails, error) {
	for i := len(r.rows) - 1; i >= 0; i-- {
		if r.rows[i].UserID == userID {
			return &r.rows[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *flowBankingRepo) OpenExistsForUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	for _, row := range r.rows {
		if row.UserID == userID && row.Status == enums.BankingStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (r *flowBankingRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.BankingDetails, error) {
	for i := range r.rows {
		if r.rows[i].ID == id {
			return &r.rows[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *flowBankingRepo) ListPending(ctx context.Context, limit int) ([]models.BankingDetails, error) {
	var pending []models.BankingDetails
	for _, row := range r.rows {
		if row.Status == enums.BankingStatusPending {
			pending = append(pending, row)
		}
	}
	return pending, nil
}

func (r *flowBankingRepo) MarkVerified(ctx context.Context, id, verifierID uuid.UUID, now time.Time) (int64, error) {
	for i := range r.rows {
		row := &r.rows[i]
		if row.ID == id && row.Status == enums.BankingStatusPending {
			row.Status = enums.BankingStatusVerified
			row.VerifiedAt = &now
			row.VerifierID = &verifierID
			return 1, nil
		}
	}
	return 0, nil
}

func (r *flowBankingRepo) MarkRejected(ctx context.Context, id, verifierID uuid.UUID, reason string, now time.Time) (int64, error) {
	for i := range r.rows {
		row := &r.rows[i]
		if row.ID == id && row.Status == enums.BankingStatusPending {
			row.Status = enums.BankingStatusRejected
			row.VerifierID = &verifierID
			row.RejectionReason = &reason
			return 1, nil
		}
	}
	return 0, nil
}

type flowAgreementsRepo struct {
	rows      []models.Agreement
	templates []models.AgreementTemplate
}

func (r *flowAgreementsRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Agreement, error) {
	var out []models.Agreement
	for _, row := range r.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *flowAgreementsRepo) FindByID(ctx context.Context, id, userID uuid.UUID) (*models.Agreement, error) {
	for i := range r.rows {
		if r.rows[i].ID == id && r.rows[i].UserID == userID {
			return &r.rows[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *flowAgreementsRepo) HasSigned(ctx context.Context, userID uuid.UUID) (bool, error) {
	for _, row := range r.rows {
		if row.UserID == userID && row.Status == enums.AgreementStatusSigned {
			return true, nil
		}
	}
	return false, nil
}

func (r *flowAgreementsRepo) ActiveExistsForPair(ctx context.Context, userID uuid.UUID, agreementType enums.AgreementType, counterpartyUserID *uuid.UUID) (bool, error) {
	return false, nil
}

func (r *flowAgreementsRepo) OpenExistsForType(ctx context.Context, userID uuid.UUID, agreementType enums.AgreementType) (bool, error) {
	return false, nil
}

func (r *flowAgreementsRepo) Create(ctx context.Context, agreement *models.Agreement) error {
	agreement.ID = uuid.New()
	r.rows = append(r.rows, *agreement)
	return nil
}

func (r *flowAgreementsRepo) MarkSigned(ctx context.Context, id, userID uuid.UUID, cols agreements.SignColumns) (int64, error) {
	for i := range r.rows {
		row := &r.rows[i]
		if row.ID == id && row.UserID == userID && row.Status == enums.AgreementStatusPresented {
			row.Status = enums.AgreementStatusSigned
			signedAt := cols.SignedAt
			row.SignedAt = &signedAt
			row.SignatoryName = &cols.SignatoryName
			return 1, nil
		}
	}
	return 0, nil
}

func (r *flowAgreementsRepo) ActiveTemplate(ctx context.Context, templateType enums.AgreementType) (*models.AgreementTemplate, error) {
	for i := range r.templates {
		if r.templates[i].TemplateType == templateType && r.templates[i].IsActive {
			return &r.templates[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *flowAgreementsRepo) CreateTemplate(ctx context.Context, template *models.AgreementTemplate) error {
	template.ID = uuid.New()
	r.templates = append(r.templates, *template)
	return nil
}

func (r *flowAgreementsRepo) SignedNeedingReconciliation(ctx context.Context, since time.Time, limit int) ([]models.Agreement, error) {
	return nil, nil
}

type flowLinker struct{}

func (flowLinker) LatestForSupplier(ctx context.Context, supplierUserID uuid.UUID, email string) (*models.SupplierInvitation, error) {
	return nil, gorm.ErrRecordNotFound
}

func (flowLinker) CompleteForSupplier(ctx context.Context, supplierUserID uuid.UUID, email string, now time.Time) (int64, error) {
	return 0, nil
}

func (flowLinker) ActivateLinkByID(ctx context.Context, linkID uuid.UUID, now time.Time) (int64, error) {
	return 1, nil
}

func (flowLinker) ActivateLinkByPair(ctx context.Context, buyerID, supplierUserID uuid.UUID, now time.Time) (int64, error) {
	return 1, nil
}

func (flowLinker) FindLinkByPair(ctx context.Context, buyerID, supplierUserID uuid.UUID) (*models.BuyerSupplierLink, error) {
	return nil, gorm.ErrRecordNotFound
}

func TestSupplierFlowReachesBankingVerified(t *testing.T) {
	ctx := context.Background()

	supplier := &models.User{ID: uuid.New(), Email: "supplier@acme.example", Role: enums.UserRoleSupplier}
	identity := types.Identity{UserID: supplier.ID, Email: supplier.Email, Role: supplier.Role}
	portal := config.PortalConfig{DashboardBaseURL: "http://localhost:3000"}

	accessRepo := &flowAccessRepo{}
	bankingRepo := &flowBankingRepo{}
	agreementsRepo := &flowAgreementsRepo{}
	users := &stubUserReader{users: map[uuid.UUID]*models.User{supplier.ID: supplier}}
	mailer := &recordingMailer{}

	dispatcher, err := notifications.NewDispatcher(notifications.DispatcherParams{
		Repo:     noopRowWriter{},
		Mailer:   mailer,
		Resolver: notifications.NewURLResolver(portal),
	})
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}

	accessSvc, err := access.NewService(access.ServiceParams{
		Repo:       accessRepo,
		KYC:        flowKYCReader{record: &models.KYCRecord{ID: uuid.New(), Status: enums.KYCStatusApproved}},
		Banking:    bankingRepo,
		Agreements: agreementsRepo,
	})
	if err != nil {
		t.Fatalf("new access service: %v", err)
	}

	bankingSvc, err := banking.NewService(banking.ServiceParams{Repo: bankingRepo, Access: accessSvc})
	if err != nil {
		t.Fatalf("new banking service: %v", err)
	}

	agreementsSvc, err := agreements.NewService(agreements.ServiceParams{
		Repo:        agreementsRepo,
		Invitations: flowLinker{},
		Access:      accessSvc,
		Banking:     bankingRepo,
		Users:       users,
		Dispatcher:  dispatcher,
		Portal:      portal,
	})
	if err != nil {
		t.Fatalf("new agreements service: %v", err)
	}

	reviewSvc, err := NewService(ServiceParams{
		Repo:       &stubReviewRepo{},
		Banking:    bankingRepo,
		Access:     accessSvc,
		Users:      users,
		Dispatcher: dispatcher,
	})
	if err != nil {
		t.Fatalf("new review service: %v", err)
	}

	if err := accessSvc.AdvanceLevel(ctx, supplier.ID, enums.AccessLevelKYCApproved, access.AdvanceOptions{Role: supplier.Role}); err != nil {
		t.Fatalf("advance to kyc_approved: %v", err)
	}

	if _, err := bankingSvc.Submit(ctx, identity, banking.SubmitBankingRequest{
		BankName:      "First Bank",
		AccountName:   "Acme Textiles",
		AccountNumber: "12345678",
		RoutingNumber: "021000021",
	}); err != nil {
		t.Fatalf("submit banking: %v", err)
	}
	if accessRepo.row.AccessLevel != enums.AccessLevelBankingSubmitted {
		t.Fatalf("expected banking_submitted after submission, got %s", accessRepo.row.AccessLevel)
	}

	agreementID := uuid.New()
	agreementsRepo.rows = append(agreementsRepo.rows, models.Agreement{
		ID:            agreementID,
		UserID:        supplier.ID,
		AgreementType: enums.AgreementTypeSupplierTerms,
		Status:        enums.AgreementStatusPresented,
	})
	if _, err := agreementsSvc.Sign(ctx, identity, agreementID, agreements.SignAgreementRequest{SignatoryName: "Sam Okafor"}, ""); err != nil {
		t.Fatalf("sign agreement: %v", err)
	}
	if accessRepo.row.AccessLevel != enums.AccessLevelAgreementSigned {
		t.Fatalf("expected agreement_signed after signing, got %s", accessRepo.row.AccessLevel)
	}

	if err := reviewSvc.VerifyBanking(ctx, reviewer(), bankingRepo.rows[0].ID); err != nil {
		t.Fatalf("verify banking: %v", err)
	}

	if accessRepo.row.AccessLevel != enums.AccessLevelBankingVerified {
		t.Fatalf("expected banking_verified after verification, got %s", accessRepo.row.AccessLevel)
	}
	if accessRepo.row.BankingVerificationDate == nil {
		t.Fatalf("banking verification date was not stamped")
	}

	unlocked := map[string]bool{}
	for _, feature := range accessRepo.row.DashboardFeatures {
		unlocked[feature] = true
	}
	for _, feature := range []string{"payments", "financing"} {
		if !unlocked[feature] {
			t.Fatalf("expected feature %q unlocked, got %v", feature, accessRepo.row.DashboardFeatures)
		}
	}
	if len(mailer.to) == 0 || mailer.to[len(mailer.to)-1] != supplier.Email {
		t.Fatalf("expected banking-verified email to supplier, got %v", mailer.to)
	}
}
