package agreements

import (
	"context"
	"time"

	"github.com/finleap/scf-onboarding-backend/pkg/db/models"
	"github.com/finleap/scf-onboarding-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists agreements and their templates.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListByUser returns the user's agreements, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Agreement, error) {
	var rows []models.Agreement
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

// FindByID loads an agreement owned by the given user.
func (r *Repository) FindByID(ctx context.Context, id, userID uuid.UUID) (*models.Agreement, error) {
	var row models.Agreement
	if err := r.db.WithContext(ctx).First(&row, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// HasSigned reports whether the user has at least one signed agreement.
func (r *Repository) HasSigned(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Agreement{}).
		Where("user_id = ? AND status = ?", userID, enums.AgreementStatusSigned).
		Count(&count).Error
	return count > 0, err
}

// ActiveExistsForPair reports whether a presented/signed agreement already
// exists for the (user, type, counterparty) triple.
func (r *Repository) ActiveExistsForPair(ctx context.Context, userID uuid.UUID, agreementType enums.AgreementType, counterpartyUserID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Agreement{}).
		Where("user_id = ? AND agreement_type = ? AND status IN ?",
			userID, agreementType,
			[]enums.AgreementStatus{enums.AgreementStatusPresented, enums.AgreementStatusSigned})
	if counterpartyUserID == nil {
		query = query.Where("counterparty_user_id IS NULL")
	} else {
		query = query.Where("counterparty_user_id = ?", *counterpartyUserID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// OpenExistsForType reports whether any pending/presented/signed agreement of
// the given type exists for the user, regardless of counterparty.
func (r *Repository) OpenExistsForType(ctx context.Context, userID uuid.UUID, agreementType enums.AgreementType) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Agreement{}).
		Where("user_id = ? AND agreement_type = ? AND status IN ?",
			userID, agreementType,
			[]enums.AgreementStatus{enums.AgreementStatusPending, enums.AgreementStatusPresented, enums.AgreementStatusSigned}).
		Count(&count).Error
	return count > 0, err
}

// Create inserts a new agreement row.
func (r *Repository) Create(ctx context.Context, agreement *models.Agreement) error {
	return r.db.WithContext(ctx).Create(agreement).Error
}

// SignColumns carries the signatory metadata written on signing.
type SignColumns struct {
	SignatoryName   string
	SignatoryTitle  *string
	SignatureMethod string
	IPAddress       *string
	SignatureData   string
	SignedAt        time.Time
}

// MarkSigned performs the presented -> signed transition as a single
// conditional update. Zero rows affected means the agreement is missing, not
// owned by the user, or no longer presented.
func (r *Repository) MarkSigned(ctx context.Context, id, userID uuid.UUID, cols SignColumns) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Agreement{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, enums.AgreementStatusPresented).
		Updates(map[string]any{
			"status":               enums.AgreementStatusSigned,
			"signed_at":            cols.SignedAt,
			"signatory_name":       cols.SignatoryName,
			"signatory_title":      cols.SignatoryTitle,
			"signature_method":     cols.SignatureMethod,
			"signatory_ip_address": cols.IPAddress,
			"signature_data":       cols.SignatureData,
		})
	return result.RowsAffected, result.Error
}

// ActiveTemplate returns the newest active template for a type.
func (r *Repository) ActiveTemplate(ctx context.Context, templateType enums.AgreementType) (*models.AgreementTemplate, error) {
	var row models.AgreementTemplate
	err := r.db.WithContext(ctx).
		Where("template_type = ? AND is_active = ?", templateType, true).
		Order("created_at DESC, id DESC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// CreateTemplate inserts a template row.
func (r *Repository) CreateTemplate(ctx context.Context, template *models.AgreementTemplate) error {
	return r.db.WithContext(ctx).Create(template).Error
}

// SignedNeedingReconciliation lists signed supplier agreements whose
// invitation or link side effects may not have landed yet. Used by the
// background sweep.
func (r *Repository) SignedNeedingReconciliation(ctx context.Context, since time.Time, limit int) ([]models.Agreement, error) {
	var rows []models.Agreement
	err := r.db.WithContext(ctx).
		Where("status = ? AND signed_at >= ?", enums.AgreementStatusSigned, since).
		Order("signed_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
