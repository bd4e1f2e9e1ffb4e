package agreements

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/finleap/scf-onboarding-backend/pkg/db/models"
	"github.com/finleap/scf-onboarding-backend/pkg/enums"
)

// sqlite rejects the gen_random_uuid() column default, so the table is
// created by hand and rows carry explicit ids.
func openRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:agreements_repo_test?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	ddl := `CREATE TABLE IF NOT EXISTS agreements (
		id text PRIMARY KEY,
		user_id text NOT NULL,
		agreement_type text NOT NULL,
		agreement_version text NOT NULL,
		template_id text,
		agreement_content text NOT NULL,
		status text NOT NULL DEFAULT 'pending',
		presented_at datetime,
		signed_at datetime,
		expiry_date datetime,
		counterparty_user_id text,
		buyer_supplier_link_id text,
		signatory_name text,
		signatory_title text,
		signature_method text,
		signatory_ip_address text,
		signature_data text,
		created_at datetime,
		updated_at datetime
	)`
	if err := conn.Exec(ddl).Error; err != nil {
		t.Fatalf("create agreements table: %v", err)
	}
	return conn
}

func mustCreatePresentedAgreement(t *testing.T, repo *Repository, userID uuid.UUID) *models.Agreement {
	t.Helper()
	now := time.Now().UTC()
	agreement := &models.Agreement{
		ID:               uuid.New(),
		UserID:           userID,
		AgreementType:    enums.AgreementTypeSupplierTerms,
		AgreementVersion: "1.0",
		AgreementContent: "supplier terms of service",
		Status:           enums.AgreementStatusPresented,
		PresentedAt:      &now,
	}
	if err := repo.Create(context.Background(), agreement); err != nil {
		t.Fatalf("create agreement: %v", err)
	}
	return agreement
}

func TestMarkSignedSecondAttemptAffectsNoRows(t *testing.T) {
	conn := openRepoTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	userID := uuid.New()
	agreement := mustCreatePresentedAgreement(t, repo, userID)

	cols := SignColumns{
		SignatoryName:   "Sam Okafor",
		SignatureMethod: "electronic",
		SignatureData:   "sig",
		SignedAt:        time.Now().UTC(),
	}
	updated, err := repo.MarkSigned(ctx, agreement.ID, userID, cols)
	if err != nil {
		t.Fatalf("mark signed: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected first signing to affect 1 row, got %d", updated)
	}

	again, err := repo.MarkSigned(ctx, agreement.ID, userID, cols)
	if err != nil {
		t.Fatalf("mark signed again: %v", err)
	}
	if again != 0 {
		t.Fatalf("expected repeat signing to affect 0 rows, got %d", again)
	}

	row, err := repo.FindByID(ctx, agreement.ID, userID)
	if err != nil {
		t.Fatalf("find agreement: %v", err)
	}
	if row.Status != enums.AgreementStatusSigned {
		t.Fatalf("expected signed status, got %s", row.Status)
	}
	if row.SignatoryName == nil || *row.SignatoryName != "Sam Okafor" {
		t.Fatalf("expected first signatory kept, got %v", row.SignatoryName)
	}
}

func TestMarkSignedRequiresOwnership(t *testing.T) {
	conn := openRepoTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	owner := uuid.New()
	agreement := mustCreatePresentedAgreement(t, repo, owner)

	cols := SignColumns{
		SignatoryName:   "Not The Owner",
		SignatureMethod: "electronic",
		SignatureData:   "sig",
		SignedAt:        time.Now().UTC(),
	}
	updated, err := repo.MarkSigned(ctx, agreement.ID, uuid.New(), cols)
	if err != nil {
		t.Fatalf("mark signed: %v", err)
	}
	if updated != 0 {
		t.Fatalf("expected foreign user signing to affect 0 rows, got %d", updated)
	}

	row, err := repo.FindByID(ctx, agreement.ID, owner)
	if err != nil {
		t.Fatalf("find agreement: %v", err)
	}
	if row.Status != enums.AgreementStatusPresented {
		t.Fatalf("expected agreement to stay presented, got %s", row.Status)
	}
}
