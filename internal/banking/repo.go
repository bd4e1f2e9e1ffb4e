package banking

import (
	"context"
	"time"

	"github.com/finleap/scf-onboarding-backend/pkg/db/models"
	"github.com/finleap/scf-onboarding-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists banking detail submissions.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a banking details row.
func (r *Repository) Create(ctx context.Context, details *models.BankingDetails) error {
	return r.db.WithContext(ctx).Create(details).Error
}

// LatestForUser returns the user's most recent submission.
func (r *Repository) LatestForUser(ctx context.Context, userID uuid.UUID) (*models.BankingDetails, error) {
	var row models.BankingDetails
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByID loads a single submission, any owner.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.BankingDetails, error) {
	var row models.BankingDetails
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// OpenExistsForUser reports whether a pending or verified submission already
// exists. Rejected submissions do not count: the user may resubmit.
func (r *Repository) OpenExistsForUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BankingDetails{}).
		Where("user_id = ? AND status IN ?", userID,
			[]enums.BankingStatus{enums.BankingStatusPending, enums.BankingStatusVerified}).
		Count(&count).Error
	return count > 0, err
}

// ListPending returns pending submissions, oldest first, for the admin queue.
func (r *Repository) ListPending(ctx context.Context, limit int) ([]models.BankingDetails, error) {
	var rows []models.BankingDetails
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.BankingStatusPending).
		Order("submitted_at ASC, id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// MarkVerified performs the pending -> verified transition as a conditional
// update. Zero rows affected means the submission is missing or not pending.
func (r *Repository) MarkVerified(ctx context.Context, id, verifierID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.BankingDetails{}).
		Where("id = ? AND status = ?", id, enums.BankingStatusPending).
		Updates(map[string]any{
			"status":      enums.BankingStatusVerified,
			"verified_at": now,
			"verifier_id": verifierID,
		})
	return result.RowsAffected, result.Error
}

// MarkRejected performs the pending -> rejected transition.
func (r *Repository) MarkRejected(ctx context.Context, id, verifierID uuid.UUID, reason string, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.BankingDetails{}).
		Where("id = ? AND status = ?", id, enums.BankingStatusPending).
		Updates(map[string]any{
			"status":           enums.BankingStatusRejected,
			"verifier_id":      verifierID,
			"rejection_reason": reason,
			"updated_at":       now,
		})
	return result.RowsAffected, result.Error
}
