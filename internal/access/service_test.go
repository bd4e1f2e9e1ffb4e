package access

import (
	"context"
	"testing"
	"time"

	"github.com/finleap/scf-onboarding-backend/pkg/db/models"
	"github.com/finleap/scf-onboarding-backend/pkg/enums"
	pkgerrors "github.com/finleap/scf-onboarding-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type stubAccessRepo struct {
	current *models.DashboardAccess
	created *models.DashboardAccess
	updates map[string]any
}

func (s *stubAccessRepo) Current(ctx context.Context, userID uuid.UUID) (*models.DashboardAccess, error) {
	if s.current == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.current, nil
}

func (s *stubAccessRepo) Create(ctx context.Context, row *models.DashboardAccess) error {
	row.ID = uuid.New()
	s.created = row
	return nil
}

func (s *stubAccessRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	s.updates = updates
	return nil
}

type stubKYCReader struct {
	record *models.KYCRecord
}

func (s stubKYCReader) LatestForUser(ctx context.Context, userID uuid.UUID) (*models.KYCRecord, error) {
	if s.record == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.record, nil
}

type stubBankingReader struct {
	details *models.BankingDetails
}

func (s stubBankingReader) LatestForUser(ctx context.Context, userID uuid.UUID) (*models.BankingDetails, error) {
	if s.details == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.details, nil
}

type stubAgreementReader struct {
	signed bool
}

func (s stubAgreementReader) HasSigned(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.signed, nil
}

type machineSetup struct {
	svc  Service
	repo *stubAccessRepo
}

func newMachine(t *testing.T, repo *stubAccessRepo, kyc *models.KYCRecord, banking *models.BankingDetails, signed bool) *machineSetup {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:       repo,
		KYC:        stubKYCReader{record: kyc},
		Banking:    stubBankingReader{details: banking},
		Agreements: stubAgreementReader{signed: signed},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &machineSetup{svc: svc, repo: repo}
}

func approvedKYC() *models.KYCRecord {
	return &models.KYCRecord{ID: uuid.New(), Status: enums.KYCStatusApproved}
}

func TestComputeAccessAdminBypass(t *testing.T) {
	setup := newMachine(t, &stubAccessRepo{}, nil, nil, false)

	for _, role := range []enums.UserRole{enums.UserRoleAdmin, enums.UserRoleAdminReviewer, enums.UserRoleAdminFinance} {
		decision, err := setup.svc.ComputeAccess(context.Background(), uuid.New(), role)
		if err != nil {
			t.Fatalf("compute access for %s: %v", role, err)
		}
		if !decision.CanAccess || decision.RequiredStep != "" {
			t.Fatalf("expected admin bypass for %s, got %+v", role, decision)
		}
	}
}

func TestComputeAccessUnknownRole(t *testing.T) {
	setup := newMachine(t, &stubAccessRepo{}, nil, nil, false)

	decision, err := setup.svc.ComputeAccess(context.Background(), uuid.New(), enums.UserRole("intern"))
	if err != nil {
		t.Fatalf("compute access: %v", err)
	}
	if decision.CanAccess || decision.RequiredStep != enums.RequiredStepContactSupport {
		t.Fatalf("expected contact_support, got %+v", decision)
	}
}

func TestComputeAccessGateOrdering(t *testing.T) {
	// KYC gate wins regardless of downstream state.
	setup := newMachine(t, &stubAccessRepo{},
		&models.KYCRecord{ID: uuid.New(), Status: enums.KYCStatusPending},
		&models.BankingDetails{ID: uuid.New(), Status: enums.BankingStatusVerified},
		true)

	decision, err := setup.svc.ComputeAccess(context.Background(), uuid.New(), enums.UserRoleSupplier)
	if err != nil {
		t.Fatalf("compute access: %v", err)
	}
	if decision.CanAccess || decision.RequiredStep != enums.RequiredStepCompleteKYC {
		t.Fatalf("expected complete_kyc, got %+v", decision)
	}

	// With KYC approved the next unmet gate is banking.
	setup = newMachine(t, &stubAccessRepo{}, approvedKYC(), nil, true)
	decision, err = setup.svc.ComputeAccess(context.Background(), uuid.New(), enums.UserRoleSupplier)
	if err != nil {
		t.Fatalf("compute access: %v", err)
	}
	if decision.RequiredStep != enums.RequiredStepSubmitBanking {
		t.Fatalf("expected submit_banking, got %+v", decision)
	}

	// Banking submitted, agreement unsigned.
	setup = newMachine(t, &stubAccessRepo{}, approvedKYC(), &models.BankingDetails{ID: uuid.New()}, false)
	decision, err = setup.svc.ComputeAccess(context.Background(), uuid.New(), enums.UserRoleSupplier)
	if err != nil {
		t.Fatalf("compute access: %v", err)
	}
	if decision.RequiredStep != enums.RequiredStepSignAgreements {
		t.Fatalf("expected sign_agreements, got %+v", decision)
	}

	// All gates pass.
	setup = newMachine(t, &stubAccessRepo{}, approvedKYC(), &models.BankingDetails{ID: uuid.New()}, true)
	decision, err = setup.svc.ComputeAccess(context.Background(), uuid.New(), enums.UserRoleSupplier)
	if err != nil {
		t.Fatalf("compute access: %v", err)
	}
	if !decision.CanAccess {
		t.Fatalf("expected access granted, got %+v", decision)
	}
}

func TestAdvanceLevelCreatesRowWithKYCSeed(t *testing.T) {
	repo := &stubAccessRepo{}
	kyc := approvedKYC()
	setup := newMachine(t, repo, kyc, nil, false)

	err := setup.svc.AdvanceLevel(context.Background(), uuid.New(), enums.AccessLevelKYCApproved, AdvanceOptions{Role: enums.UserRoleSupplier})
	if err != nil {
		t.Fatalf("advance level: %v", err)
	}
	if repo.created == nil {
		t.Fatalf("expected dashboard access row to be created")
	}
	if repo.created.KYCRecordID == nil || *repo.created.KYCRecordID != kyc.ID {
		t.Fatalf("expected kyc record seeded")
	}
	if repo.created.AccessLevel != enums.AccessLevelKYCApproved {
		t.Fatalf("unexpected level %s", repo.created.AccessLevel)
	}
}

func TestAdvanceLevelSameLevelIsNoOp(t *testing.T) {
	repo := &stubAccessRepo{current: &models.DashboardAccess{
		ID:          uuid.New(),
		AccessLevel: enums.AccessLevelBankingSubmitted,
	}}
	setup := newMachine(t, repo, approvedKYC(), nil, false)

	err := setup.svc.AdvanceLevel(context.Background(), uuid.New(), enums.AccessLevelBankingSubmitted, AdvanceOptions{Role: enums.UserRoleSupplier})
	if err != nil {
		t.Fatalf("advance level: %v", err)
	}
	if repo.updates != nil {
		t.Fatalf("expected no update for same level")
	}
}

func TestAdvanceLevelRejectsIllegalJump(t *testing.T) {
	repo := &stubAccessRepo{current: &models.DashboardAccess{
		ID:          uuid.New(),
		AccessLevel: enums.AccessLevelPreKYC,
	}}
	setup := newMachine(t, repo, nil, nil, false)

	err := setup.svc.AdvanceLevel(context.Background(), uuid.New(), enums.AccessLevelBankingVerified, AdvanceOptions{Role: enums.UserRoleSupplier})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestAdvanceLevelBuyerSignatureJump(t *testing.T) {
	repo := &stubAccessRepo{current: &models.DashboardAccess{
		ID:          uuid.New(),
		AccessLevel: enums.AccessLevelPreKYC,
	}}
	setup := newMachine(t, repo, nil, nil, false)

	agreementID := uuid.New()
	err := setup.svc.AdvanceLevel(context.Background(), uuid.New(), enums.AccessLevelAgreementSigned, AdvanceOptions{
		Role:        enums.UserRoleBuyer,
		AgreementID: &agreementID,
	})
	if err != nil {
		t.Fatalf("advance level: %v", err)
	}
	if repo.updates == nil {
		t.Fatalf("expected update")
	}
	if repo.updates["agreement_id"] != agreementID {
		t.Fatalf("expected agreement id stamped, got %v", repo.updates["agreement_id"])
	}
	if _, ok := repo.updates["agreement_signing_date"].(time.Time); !ok {
		t.Fatalf("expected signing date stamped")
	}
}

func TestAdvanceLevelSupplierCannotSkipBanking(t *testing.T) {
	repo := &stubAccessRepo{current: &models.DashboardAccess{
		ID:          uuid.New(),
		AccessLevel: enums.AccessLevelPreKYC,
	}}
	setup := newMachine(t, repo, nil, nil, false)

	err := setup.svc.AdvanceLevel(context.Background(), uuid.New(), enums.AccessLevelAgreementSigned, AdvanceOptions{Role: enums.UserRoleSupplier})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestAdvanceLevelStampsBankingColumns(t *testing.T) {
	repo := &stubAccessRepo{current: &models.DashboardAccess{
		ID:          uuid.New(),
		AccessLevel: enums.AccessLevelKYCApproved,
	}}
	setup := newMachine(t, repo, approvedKYC(), nil, false)

	if err := setup.svc.AdvanceLevel(context.Background(), uuid.New(), enums.AccessLevelBankingSubmitted, AdvanceOptions{Role: enums.UserRoleSupplier}); err != nil {
		t.Fatalf("advance level: %v", err)
	}
	if _, ok := repo.updates["banking_submission_date"].(time.Time); !ok {
		t.Fatalf("expected banking submission date stamped")
	}
	if repo.updates["access_level"] != enums.AccessLevelBankingSubmitted {
		t.Fatalf("unexpected level update %v", repo.updates["access_level"])
	}
}

func TestEnsureRowBootstrapsAtPreKYC(t *testing.T) {
	repo := &stubAccessRepo{}
	setup := newMachine(t, repo, nil, nil, false)
	kycID := uuid.New()

	if err := setup.svc.EnsureRow(context.Background(), uuid.New(), &kycID); err != nil {
		t.Fatalf("ensure row: %v", err)
	}
	if repo.created == nil {
		t.Fatalf("expected row created")
	}
	if repo.created.AccessLevel != enums.AccessLevelPreKYC {
		t.Fatalf("expected pre_kyc, got %s", repo.created.AccessLevel)
	}
	if repo.created.KYCRecordID == nil || *repo.created.KYCRecordID != kycID {
		t.Fatalf("expected kyc reference seeded")
	}
}

func TestEnsureRowLeavesExistingRowAlone(t *testing.T) {
	repo := &stubAccessRepo{current: &models.DashboardAccess{
		ID:          uuid.New(),
		AccessLevel: enums.AccessLevelBankingVerified,
	}}
	setup := newMachine(t, repo, nil, nil, false)

	if err := setup.svc.EnsureRow(context.Background(), uuid.New(), nil); err != nil {
		t.Fatalf("ensure row: %v", err)
	}
	if repo.created != nil || repo.updates != nil {
		t.Fatalf("expected existing row untouched")
	}
}

func TestFeaturesForLevelCumulative(t *testing.T) {
	base := FeaturesForLevel(enums.AccessLevelPreKYC)
	top := FeaturesForLevel(enums.AccessLevelBankingVerified)
	if len(base) >= len(top) {
		t.Fatalf("expected feature list to grow with level: %d vs %d", len(base), len(top))
	}
	for _, feature := range base {
		found := false
		for _, f := range top {
			if f == feature {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("feature %q lost at higher level", feature)
		}
	}
}
