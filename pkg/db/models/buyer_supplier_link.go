package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/finleap/scf-onboarding-backend/pkg/enums"
)

// BuyerSupplierLink connects a buyer to a supplier account. Links start
// pending and activate when the supplier signs an agreement referencing them.
type BuyerSupplierLink struct {
	ID             uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID        uuid.UUID        `gorm:"column:buyer_id;type:uuid;not null;index"`
	SupplierUserID uuid.UUID        `gorm:"column:supplier_user_id;type:uuid;not null;index"`
	Status         enums.LinkStatus `gorm:"column:status;type:link_status;not null;default:'pending'"`
	ActivatedAt    *time.Time       `gorm:"column:activated_at"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
