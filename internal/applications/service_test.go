package applications

import (
	"context"
	"testing"
	"time"

	"github.com/finleap/scf-onboarding-backend/pkg/db/models"
	"github.com/finleap/scf-onboarding-backend/pkg/enums"
	pkgerrors "github.com/finleap/scf-onboarding-backend/pkg/errors"
	"github.com/finleap/scf-onboarding-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type stubApplicationRepo struct {
	companies []models.Company
	records   []models.KYCRecord
}

func (s *stubApplicationRepo) FindCompanyByUserID(ctx context.Context, userID uuid.UUID) (*models.Company, error) {
	for i := range s.companies {
		c := &s.companies[i]
		if c.UserID != nil && *c.UserID == userID {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubApplicationRepo) FindDraftCompany(ctx context.Context, registrationNumber string, companyType enums.CompanyType) (*models.Company, error) {
	for i := range s.companies {
		c := &s.companies[i]
		if c.UserID == nil && c.RegistrationNumber == registrationNumber && c.CompanyType == companyType {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubApplicationRepo) ClaimedCompanyExists(ctx context.Context, registrationNumber string, companyType enums.CompanyType, excludeUserID *uuid.UUID) (bool, error) {
	for _, c := range s.companies {
		if c.UserID == nil || c.RegistrationNumber != registrationNumber || c.CompanyType != companyType {
			continue
		}
		if excludeUserID != nil && *c.UserID == *excludeUserID {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (s *stubApplicationRepo) CreateCompany(ctx context.Context, company *models.Company) error {
	company.ID = uuid.New()
	s.companies = append(s.companies, *company)
	return nil
}

func (s *stubApplicationRepo) UpdateCompany(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	for i := range s.companies {
		if s.companies[i].ID == id {
			if name, ok := updates["company_name"].(string); ok {
				s.companies[i].CompanyName = name
			}
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *stubApplicationRepo) ClaimCompany(ctx context.Context, id, userID uuid.UUID, updates map[string]any) (int64, error) {
	for i := range s.companies {
		c := &s.companies[i]
		if c.ID == id && c.UserID == nil {
			uid := userID
			c.UserID = &uid
			return 1, nil
		}
	}
	return 0, nil
}

func (s *stubApplicationRepo) LatestForUser(ctx context.Context, userID uuid.UUID) (*models.KYCRecord, error) {
	for i := len(s.records) - 1; i >= 0; i-- {
		r := &s.records[i]
		if r.UserID != nil && *r.UserID == userID {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubApplicationRepo) LatestForCompany(ctx context.Context, companyID uuid.UUID) (*models.KYCRecord, error) {
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].CompanyID == companyID {
			return &s.records[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubApplicationRepo) CreateKYC(ctx context.Context, record *models.KYCRecord) error {
	record.ID = uuid.New()
	s.records = append(s.records, *record)
	return nil
}

func (s *stubApplicationRepo) ClaimKYC(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	for i := range s.records {
		r := &s.records[i]
		if r.ID == id && r.UserID == nil {
			uid := userID
			r.UserID = &uid
			return 1, nil
		}
	}
	return 0, nil
}

func (s *stubApplicationRepo) ResetRejected(ctx context.Context, id uuid.UUID, now time.Time) (int64, error) {
	for i := range s.records {
		r := &s.records[i]
		if r.ID == id && r.Status == enums.KYCStatusRejected {
			r.Status = enums.KYCStatusPending
			r.SubmittedAt = now
			r.ReviewedAt = nil
			r.DecidedAt = nil
			r.ReviewerID = nil
			r.DecisionNotes = nil
			return 1, nil
		}
	}
	return 0, nil
}

type stubEnsurer struct {
	ensured []uuid.UUID
	kycIDs  []*uuid.UUID
}

func (s *stubEnsurer) EnsureRow(ctx context.Context, userID uuid.UUID, kycRecordID *uuid.UUID) error {
	s.ensured = append(s.ensured, userID)
	s.kycIDs = append(s.kycIDs, kycRecordID)
	return nil
}

func newApplicationService(t *testing.T, repo *stubApplicationRepo, ensurer *stubEnsurer) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: repo, Access: ensurer})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func supplierIdentity() types.Identity {
	return types.Identity{UserID: uuid.New(), Email: "supplier@acme.example", Role: enums.UserRoleSupplier}
}

func sampleRequest() SubmitApplicationRequest {
	return SubmitApplicationRequest{
		CompanyName:        "Acme Supplies Ltd",
		RegistrationNumber: "REG-9001",
		Email:              "ops@acme.example",
	}
}

func TestSubmitAuthenticatedCreatesCompanyAndKYC(t *testing.T) {
	repo := &stubApplicationRepo{}
	ensurer := &stubEnsurer{}
	svc := newApplicationService(t, repo, ensurer)
	identity := supplierIdentity()

	resp, err := svc.Submit(context.Background(), identity, sampleRequest())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if resp.Status != enums.KYCStatusPending {
		t.Fatalf("expected pending kyc, got %s", resp.Status)
	}
	if resp.Draft {
		t.Fatalf("authenticated submission should not be a draft")
	}
	if repo.companies[0].CompanyType != enums.CompanyTypeSupplier {
		t.Fatalf("expected company type inferred from role, got %s", repo.companies[0].CompanyType)
	}
	if len(ensurer.ensured) != 1 || ensurer.ensured[0] != identity.UserID {
		t.Fatalf("expected dashboard access bootstrap, got %v", ensurer.ensured)
	}
	if ensurer.kycIDs[0] == nil || *ensurer.kycIDs[0] != resp.KYCRecordID {
		t.Fatalf("expected kyc id passed to bootstrap")
	}
}

func TestSubmitAuthenticatedClaimsDraft(t *testing.T) {
	repo := &stubApplicationRepo{}
	svc := newApplicationService(t, repo, &stubEnsurer{})
	identity := supplierIdentity()

	draftCompanyID := uuid.New()
	draftKYCID := uuid.New()
	repo.companies = append(repo.companies, models.Company{
		ID:                 draftCompanyID,
		RegistrationNumber: "REG-9001",
		CompanyType:        enums.CompanyTypeSupplier,
		CompanyName:        "Acme (draft)",
	})
	repo.records = append(repo.records, models.KYCRecord{
		ID:        draftKYCID,
		CompanyID: draftCompanyID,
		Status:    enums.KYCStatusPending,
	})

	resp, err := svc.Submit(context.Background(), identity, sampleRequest())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if resp.CompanyID != draftCompanyID {
		t.Fatalf("expected draft company claimed, got %s", resp.CompanyID)
	}
	if resp.KYCRecordID != draftKYCID {
		t.Fatalf("expected draft kyc claimed, got %s", resp.KYCRecordID)
	}
	if repo.companies[0].UserID == nil || *repo.companies[0].UserID != identity.UserID {
		t.Fatalf("company not attached to user")
	}
	if repo.records[0].UserID == nil || *repo.records[0].UserID != identity.UserID {
		t.Fatalf("kyc record not attached to user")
	}
}

func TestSubmitAuthenticatedDuplicateCompany(t *testing.T) {
	repo := &stubApplicationRepo{}
	svc := newApplicationService(t, repo, &stubEnsurer{})

	otherUser := uuid.New()
	repo.companies = append(repo.companies, models.Company{
		ID:                 uuid.New(),
		UserID:             &otherUser,
		RegistrationNumber: "REG-9001",
		CompanyType:        enums.CompanyTypeSupplier,
	})

	_, err := svc.Submit(context.Background(), supplierIdentity(), sampleRequest())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok || details["code"] != "DUPLICATE_COMPANY" {
		t.Fatalf("expected DUPLICATE_COMPANY detail, got %v", typed.Details())
	}
}

func TestSubmitResubmissionResetsRejectedKYC(t *testing.T) {
	repo := &stubApplicationRepo{}
	svc := newApplicationService(t, repo, &stubEnsurer{})
	identity := supplierIdentity()

	companyID := uuid.New()
	uid := identity.UserID
	repo.companies = append(repo.companies, models.Company{
		ID:                 companyID,
		UserID:             &uid,
		RegistrationNumber: "REG-9001",
		CompanyType:        enums.CompanyTypeSupplier,
	})
	notes := "missing registration certificate"
	repo.records = append(repo.records, models.KYCRecord{
		ID:            uuid.New(),
		UserID:        &uid,
		CompanyID:     companyID,
		Status:        enums.KYCStatusRejected,
		DecisionNotes: &notes,
	})

	resp, err := svc.Submit(context.Background(), identity, sampleRequest())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if resp.Status != enums.KYCStatusPending {
		t.Fatalf("expected rejected record reset to pending, got %s", resp.Status)
	}
	if repo.records[0].Status != enums.KYCStatusPending {
		t.Fatalf("stored record not reset: %s", repo.records[0].Status)
	}
	if repo.records[0].DecisionNotes != nil {
		t.Fatalf("expected decision trail cleared")
	}
}

func TestSubmitAnonymousCreatesDraft(t *testing.T) {
	repo := &stubApplicationRepo{}
	svc := newApplicationService(t, repo, &stubEnsurer{})

	resp, err := svc.Submit(context.Background(), types.Identity{}, sampleRequest())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !resp.Draft {
		t.Fatalf("expected draft submission")
	}
	if resp.ShouldLogin {
		t.Fatalf("unexpected shouldLogin")
	}
	if repo.companies[0].UserID != nil {
		t.Fatalf("draft company must be unclaimed")
	}
	if repo.companies[0].CompanyType != enums.CompanyTypeBuyer {
		t.Fatalf("anonymous drafts default to buyer, got %s", repo.companies[0].CompanyType)
	}
	if repo.records[0].UserID != nil {
		t.Fatalf("draft kyc must be unclaimed")
	}
}

func TestSubmitAnonymousAgainstClaimedCompanyRedirectsToLogin(t *testing.T) {
	repo := &stubApplicationRepo{}
	svc := newApplicationService(t, repo, &stubEnsurer{})

	owner := uuid.New()
	repo.companies = append(repo.companies, models.Company{
		ID:                 uuid.New(),
		UserID:             &owner,
		RegistrationNumber: "REG-9001",
		CompanyType:        enums.CompanyTypeBuyer,
	})

	resp, err := svc.Submit(context.Background(), types.Identity{}, sampleRequest())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !resp.ShouldLogin {
		t.Fatalf("expected shouldLogin, got %+v", resp)
	}
	if len(repo.companies) != 1 {
		t.Fatalf("no draft should be created when company is claimed")
	}
}

func TestSubmitAnonymousReusesExistingDraft(t *testing.T) {
	repo := &stubApplicationRepo{}
	svc := newApplicationService(t, repo, &stubEnsurer{})

	first, err := svc.Submit(context.Background(), types.Identity{}, sampleRequest())
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second, err := svc.Submit(context.Background(), types.Identity{}, sampleRequest())
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if first.CompanyID != second.CompanyID {
		t.Fatalf("expected draft reuse, got %s vs %s", first.CompanyID, second.CompanyID)
	}
	if len(repo.companies) != 1 || len(repo.records) != 1 {
		t.Fatalf("duplicate draft rows created")
	}
}

func TestSubmitHonorsExplicitCompanyType(t *testing.T) {
	repo := &stubApplicationRepo{}
	svc := newApplicationService(t, repo, &stubEnsurer{})

	req := sampleRequest()
	req.CompanyType = "supplier"
	if _, err := svc.Submit(context.Background(), types.Identity{}, req); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if repo.companies[0].CompanyType != enums.CompanyTypeSupplier {
		t.Fatalf("explicit company type ignored, got %s", repo.companies[0].CompanyType)
	}
}

func TestGetAnonymousReturnsNil(t *testing.T) {
	svc := newApplicationService(t, &stubApplicationRepo{}, &stubEnsurer{})

	dto, err := svc.Get(context.Background(), uuid.Nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if dto != nil {
		t.Fatalf("expected nil application for anonymous probe")
	}
}

func TestGetReturnsApplication(t *testing.T) {
	repo := &stubApplicationRepo{}
	svc := newApplicationService(t, repo, &stubEnsurer{})
	identity := supplierIdentity()

	if _, err := svc.Submit(context.Background(), identity, sampleRequest()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	dto, err := svc.Get(context.Background(), identity.UserID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if dto == nil {
		t.Fatalf("expected application")
	}
	if dto.CompanyName != "Acme Supplies Ltd" || dto.KYCStatus != enums.KYCStatusPending {
		t.Fatalf("unexpected application %+v", dto)
	}
}

func TestGetWithoutCompanyReturnsNil(t *testing.T) {
	svc := newApplicationService(t, &stubApplicationRepo{}, &stubEnsurer{})

	dto, err := svc.Get(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if dto != nil {
		t.Fatalf("expected nil when no company exists")
	}
}
