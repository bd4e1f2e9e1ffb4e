package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/finleap/scf-onboarding-backend/pkg/enums"
)

// SupplierInvitation tracks a buyer's invitation to a supplier company.
// The persisted status never holds "expired"; expiry is derived from
// ExpiresAt when the row is read.
type SupplierInvitation struct {
	ID                 uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID            uuid.UUID              `gorm:"column:buyer_id;type:uuid;not null;index"`
	InvitedCompanyName string                 `gorm:"column:invited_company_name;not null"`
	InvitedEmail       string                 `gorm:"column:invited_email;not null;index"`
	InvitationToken    string                 `gorm:"column:invitation_token;not null;uniqueIndex"`
	Status             enums.InvitationStatus `gorm:"column:status;type:invitation_status;not null;default:'sent'"`
	SupplierUserID     *uuid.UUID             `gorm:"column:supplier_user_id;type:uuid;index"`
	ExpiresAt          time.Time              `gorm:"column:expires_at;not null"`
	SentAt             time.Time              `gorm:"column:sent_at;not null"`
	OpenedAt           *time.Time             `gorm:"column:opened_at"`
	RegisteredAt       *time.Time             `gorm:"column:registered_at"`
	CompletedAt        *time.Time             `gorm:"column:completed_at"`
	CreatedAt          time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectiveStatus folds the derived expired state into the persisted status.
func (s SupplierInvitation) EffectiveStatus(now time.Time) enums.InvitationStatus {
	if !s.Status.IsTerminal() && now.After(s.ExpiresAt) {
		return enums.InvitationStatusExpired
	}
	return s.Status
}
