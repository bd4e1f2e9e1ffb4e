package invitations

import (
	"context"
	"time"

	"github.com/finleap/scf-onboarding-backend/pkg/db/models"
	"github.com/finleap/scf-onboarding-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes persistence for supplier invitations and buyer-supplier
// links. Expired is never written; it is derived from expires_at on read.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new invitation row.
func (r *Repository) Create(ctx context.Context, invitation *models.SupplierInvitation) error {
	return r.db.WithContext(ctx).Create(invitation).Error
}

// ListByBuyer returns the buyer's invitations, newest first.
func (r *Repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.SupplierInvitation, error) {
	var rows []models.SupplierInvitation
	err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("sent_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

// FindByToken loads an invitation by its opaque token.
func (r *Repository) FindByToken(ctx context.Context, token string) (*models.SupplierInvitation, error) {
	var row models.SupplierInvitation
	if err := r.db.WithContext(ctx).First(&row, "invitation_token = ?", token).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByID loads an invitation owned by the given buyer.
func (r *Repository) FindByID(ctx context.Context, id, buyerID uuid.UUID) (*models.SupplierInvitation, error) {
	var row models.SupplierInvitation
	if err := r.db.WithContext(ctx).First(&row, "id = ? AND buyer_id = ?", id, buyerID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// CountDerivedExpired counts non-terminal invitations past their expiry.
// Nothing is mutated: expired stays a derived state.
func (r *Repository) CountDerivedExpired(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SupplierInvitation{}).
		Where("status IN ? AND expires_at < ?",
			[]enums.InvitationStatus{enums.InvitationStatusSent, enums.InvitationStatusOpened, enums.InvitationStatusRegistered},
			now).
		Count(&count).Error
	return count, err
}

// MarkOpened transitions sent -> opened. Re-opening an already opened or
// registered invitation is a no-op, not an error.
func (r *Repository) MarkOpened(ctx context.Context, token string, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.SupplierInvitation{}).
		Where("invitation_token = ? AND status = ? AND expires_at > ?", token, enums.InvitationStatusSent, now).
		Updates(map[string]any{"status": enums.InvitationStatusOpened, "opened_at": now}).Error
}

// AttachRegistration binds a freshly registered supplier account to the
// invitation and moves it to registered. Terminal or expired invitations are
// not claimable; zero rows affected surfaces as ErrRecordNotFound.
func (r *Repository) AttachRegistration(ctx context.Context, token string, supplierUserID uuid.UUID) error {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&models.SupplierInvitation{}).
		Where("invitation_token = ? AND status IN ? AND expires_at > ?",
			token,
			[]enums.InvitationStatus{enums.InvitationStatusSent, enums.InvitationStatusOpened},
			now).
		Updates(map[string]any{
			"status":           enums.InvitationStatusRegistered,
			"supplier_user_id": supplierUserID,
			"registered_at":    now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Cancel moves a non-terminal invitation to cancelled. Returns the number of
// rows updated so callers can distinguish a no-op.
func (r *Repository) Cancel(ctx context.Context, id, buyerID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SupplierInvitation{}).
		Where("id = ? AND buyer_id = ? AND status IN ?",
			id, buyerID,
			[]enums.InvitationStatus{enums.InvitationStatusSent, enums.InvitationStatusOpened, enums.InvitationStatusRegistered}).
		UpdateColumn("status", enums.InvitationStatusCancelled)
	return result.RowsAffected, result.Error
}

// Resend refreshes the token and expiry on a still-open invitation.
func (r *Repository) Resend(ctx context.Context, id, buyerID uuid.UUID, token string, expiresAt, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SupplierInvitation{}).
		Where("id = ? AND buyer_id = ? AND status IN ?",
			id, buyerID,
			[]enums.InvitationStatus{enums.InvitationStatusSent, enums.InvitationStatusOpened}).
		Updates(map[string]any{
			"invitation_token": token,
			"expires_at":       expiresAt,
			"sent_at":          now,
			"status":           enums.InvitationStatusSent,
			"opened_at":        nil,
		})
	return result.RowsAffected, result.Error
}

// LatestForSupplier resolves the most recent invitation attached to the
// supplier account, by registration binding or invited email.
func (r *Repository) LatestForSupplier(ctx context.Context, supplierUserID uuid.UUID, email string) (*models.SupplierInvitation, error) {
	var row models.SupplierInvitation
	query := r.db.WithContext(ctx).
		Where("supplier_user_id = ? OR invited_email = ?", supplierUserID, email).
		Order("sent_at DESC, id DESC")
	if err := query.First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// CompleteForSupplier marks every in-flight invitation for the supplier as
// completed. Idempotent: already completed rows are untouched.
func (r *Repository) CompleteForSupplier(ctx context.Context, supplierUserID uuid.UUID, email string, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SupplierInvitation{}).
		Where("(supplier_user_id = ? OR invited_email = ?) AND status IN ?",
			supplierUserID, email,
			[]enums.InvitationStatus{enums.InvitationStatusSent, enums.InvitationStatusOpened, enums.InvitationStatusRegistered}).
		Updates(map[string]any{"status": enums.InvitationStatusCompleted, "completed_at": now})
	return result.RowsAffected, result.Error
}

// CreateLink inserts a pending buyer-supplier link when none exists yet.
func (r *Repository) CreateLink(ctx context.Context, link *models.BuyerSupplierLink) error {
	return r.db.WithContext(ctx).Create(link).Error
}

// FindLinkByPair loads the link for a buyer/supplier pair.
func (r *Repository) FindLinkByPair(ctx context.Context, buyerID, supplierUserID uuid.UUID) (*models.BuyerSupplierLink, error) {
	var link models.BuyerSupplierLink
	if err := r.db.WithContext(ctx).
		First(&link, "buyer_id = ? AND supplier_user_id = ?", buyerID, supplierUserID).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// ActivateLinkByID flips a pending link to active.
func (r *Repository) ActivateLinkByID(ctx context.Context, linkID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.BuyerSupplierLink{}).
		Where("id = ? AND status = ?", linkID, enums.LinkStatusPending).
		Updates(map[string]any{"status": enums.LinkStatusActive, "activated_at": now})
	return result.RowsAffected, result.Error
}

// ActivateLinkByPair flips the pending link for a buyer/supplier pair to active.
func (r *Repository) ActivateLinkByPair(ctx context.Context, buyerID, supplierUserID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.BuyerSupplierLink{}).
		Where("buyer_id = ? AND supplier_user_id = ? AND status = ?", buyerID, supplierUserID, enums.LinkStatusPending).
		Updates(map[string]any{"status": enums.LinkStatusActive, "activated_at": now})
	return result.RowsAffected, result.Error
}
