package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/finleap/scf-onboarding-backend/pkg/enums"
)

// Agreement is a legal document presented to (and eventually signed by) a
// user. At most one presented/signed agreement may exist per
// (user, type, counterparty) triple; rows are never deleted.
type Agreement struct {
	ID                  uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID              uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	AgreementType       enums.AgreementType   `gorm:"column:agreement_type;type:agreement_type;not null"`
	AgreementVersion    string                `gorm:"column:agreement_version;not null"`
	TemplateID          *uuid.UUID            `gorm:"column:template_id;type:uuid"`
	AgreementContent    string                `gorm:"column:agreement_content;not null"`
	Status              enums.AgreementStatus `gorm:"column:status;type:agreement_status;not null;default:'pending'"`
	PresentedAt         *time.Time            `gorm:"column:presented_at"`
	SignedAt            *time.Time            `gorm:"column:signed_at"`
	ExpiryDate          *time.Time            `gorm:"column:expiry_date"`
	CounterpartyUserID  *uuid.UUID            `gorm:"column:counterparty_user_id;type:uuid"`
	BuyerSupplierLinkID *uuid.UUID            `gorm:"column:buyer_supplier_link_id;type:uuid"`
	SignatoryName       *string               `gorm:"column:signatory_name"`
	SignatoryTitle      *string               `gorm:"column:signatory_title"`
	SignatureMethod     *string               `gorm:"column:signature_method"`
	SignatoryIPAddress  *string               `gorm:"column:signatory_ip_address"`
	SignatureData       *string               `gorm:"column:signature_data"`
	CreatedAt           time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
