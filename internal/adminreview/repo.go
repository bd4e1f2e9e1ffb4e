package adminreview

import (
	"context"
	"time"

	"github.com/finleap/scf-onboarding-backend/pkg/db/models"
	"github.com/finleap/scf-onboarding-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository backs the admin review queues: KYC records, uploaded documents
// and the payment queue. Banking verification reuses the banking repository.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListKYC returns KYC records, optionally filtered by status, oldest first.
func (r *Repository) ListKYC(ctx context.Context, status *enums.KYCStatus, limit int) ([]models.KYCRecord, error) {
	query := r.db.WithContext(ctx).Model(&models.KYCRecord{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var rows []models.KYCRecord
	err := query.Order("submitted_at ASC, id ASC").Limit(limit).Find(&rows).Error
	return rows, err
}

// FindKYCByID loads a single KYC record.
func (r *Repository) FindKYCByID(ctx context.Context, id uuid.UUID) (*models.KYCRecord, error) {
	var row models.KYCRecord
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ClaimKYC moves a pending record under review for the given reviewer. Zero
// rows affected means the record was already claimed or is not pending.
func (r *Repository) ClaimKYC(ctx context.Context, id, reviewerID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.KYCRecord{}).
		Where("id = ? AND status = ?", id, enums.KYCStatusPending).
		Updates(map[string]any{
			"status":      enums.KYCStatusUnderReview,
			"reviewer_id": reviewerID,
			"reviewed_at": now,
		})
	return result.RowsAffected, result.Error
}

// MarkKYCReady moves an under-review record to ready_for_decision.
func (r *Repository) MarkKYCReady(ctx context.Context, id, reviewerID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.KYCRecord{}).
		Where("id = ? AND status = ? AND reviewer_id = ?", id, enums.KYCStatusUnderReview, reviewerID).
		Update("status", enums.KYCStatusReadyForDecision)
	return result.RowsAffected, result.Error
}

// DecideKYC finalizes a record as approved or rejected. Accepts records in
// under_review or ready_for_decision; terminal records are left untouched.
func (r *Repository) DecideKYC(ctx context.Context, id, reviewerID uuid.UUID, decision enums.KYCStatus, notes *string, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.KYCRecord{}).
		Where("id = ? AND status IN ?", id,
			[]enums.KYCStatus{enums.KYCStatusUnderReview, enums.KYCStatusReadyForDecision}).
		Updates(map[string]any{
			"status":         decision,
			"reviewer_id":    reviewerID,
			"decided_at":     now,
			"decision_notes": notes,
		})
	return result.RowsAffected, result.Error
}

// FindDocumentByID loads an uploaded KYC document.
func (r *Repository) FindDocumentByID(ctx context.Context, id uuid.UUID) (*models.KYCDocument, error) {
	var row models.KYCDocument
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ListDocumentsForRecord returns all documents attached to a KYC record.
func (r *Repository) ListDocumentsForRecord(ctx context.Context, kycRecordID uuid.UUID) ([]models.KYCDocument, error) {
	var rows []models.KYCDocument
	err := r.db.WithContext(ctx).
		Where("kyc_record_id = ?", kycRecordID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

// ReviewDocument finalizes a document as accepted or rejected. Only
// uploaded/under_review documents can be decided.
func (r *Repository) ReviewDocument(ctx context.Context, id, reviewerID uuid.UUID, status enums.DocumentStatus, notes *string, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.KYCDocument{}).
		Where("id = ? AND status IN ?", id,
			[]enums.DocumentStatus{enums.DocumentStatusUploaded, enums.DocumentStatusUnderReview}).
		Updates(map[string]any{
			"status":       status,
			"reviewer_id":  reviewerID,
			"reviewed_at":  now,
			"review_notes": notes,
		})
	return result.RowsAffected, result.Error
}

// ListPayments returns payment queue items, optionally filtered by status.
func (r *Repository) ListPayments(ctx context.Context, status *enums.PaymentStatus, limit int) ([]models.PaymentQueueItem, error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentQueueItem{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var rows []models.PaymentQueueItem
	err := query.Order("created_at ASC, id ASC").Limit(limit).Find(&rows).Error
	return rows, err
}

// FindPaymentByID loads a single payment queue item.
func (r *Repository) FindPaymentByID(ctx context.Context, id uuid.UUID) (*models.PaymentQueueItem, error) {
	var row models.PaymentQueueItem
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ProgressPayment applies a forward transition as a conditional update keyed
// on the expected current status.
func (r *Repository) ProgressPayment(ctx context.Context, id uuid.UUID, from, to enums.PaymentStatus, updates map[string]any) (int64, error) {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = to
	result := r.db.WithContext(ctx).
		Model(&models.PaymentQueueItem{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return result.RowsAffected, result.Error
}
