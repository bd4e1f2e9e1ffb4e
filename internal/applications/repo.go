package applications

import (
	"context"
	"time"

	"github.com/finleap/scf-onboarding-backend/pkg/db/models"
	"github.com/finleap/scf-onboarding-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists companies and their KYC records.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindCompanyByUserID returns the company claimed by the user.
func (r *Repository) FindCompanyByUserID(ctx context.Context, userID uuid.UUID) (*models.Company, error) {
	var row models.Company
	if err := r.db.WithContext(ctx).First(&row, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindDraftCompany returns an unclaimed draft matching the registration pair.
func (r *Repository) FindDraftCompany(ctx context.Context, registrationNumber string, companyType enums.CompanyType) (*models.Company, error) {
	var row models.Company
	err := r.db.WithContext(ctx).
		Where("registration_number = ? AND company_type = ? AND user_id IS NULL", registrationNumber, companyType).
		Order("created_at DESC, id DESC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ClaimedCompanyExists reports whether a claimed company with the same
// registration pair exists, optionally excluding one owner.
func (r *Repository) ClaimedCompanyExists(ctx context.Context, registrationNumber string, companyType enums.CompanyType, excludeUserID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Company{}).
		Where("registration_number = ? AND company_type = ? AND user_id IS NOT NULL", registrationNumber, companyType)
	if excludeUserID != nil {
		query = query.Where("user_id <> ?", *excludeUserID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateCompany inserts a company row, draft or claimed.
func (r *Repository) CreateCompany(ctx context.Context, company *models.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

// UpdateCompany applies the given column updates.
func (r *Repository) UpdateCompany(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Company{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ClaimCompany attaches a draft to a user. The user_id IS NULL guard makes
// concurrent claims race-safe: the loser sees zero rows affected.
func (r *Repository) ClaimCompany(ctx context.Context, id, userID uuid.UUID, updates map[string]any) (int64, error) {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["user_id"] = userID
	result := r.db.WithContext(ctx).
		Model(&models.Company{}).
		Where("id = ? AND user_id IS NULL", id).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// LatestForUser returns the user's most recent KYC record.
func (r *Repository) LatestForUser(ctx context.Context, userID uuid.UUID) (*models.KYCRecord, error) {
	var row models.KYCRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// LatestForCompany returns the company's most recent KYC record, claimed or
// draft.
func (r *Repository) LatestForCompany(ctx context.Context, companyID uuid.UUID) (*models.KYCRecord, error) {
	var row models.KYCRecord
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC, id DESC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// CreateKYC inserts a KYC record.
func (r *Repository) CreateKYC(ctx context.Context, record *models.KYCRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// ClaimKYC attaches a draft KYC record to a user.
func (r *Repository) ClaimKYC(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.KYCRecord{}).
		Where("id = ? AND user_id IS NULL", id).
		Update("user_id", userID)
	return result.RowsAffected, result.Error
}

// ResetRejected re-opens a rejected record as a fresh pending submission,
// clearing the prior decision trail.
func (r *Repository) ResetRejected(ctx context.Context, id uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.KYCRecord{}).
		Where("id = ? AND status = ?", id, enums.KYCStatusRejected).
		Updates(map[string]any{
			"status":         enums.KYCStatusPending,
			"submitted_at":   now,
			"reviewed_at":    nil,
			"decided_at":     nil,
			"reviewer_id":    nil,
			"decision_notes": nil,
		})
	return result.RowsAffected, result.Error
}
