package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finleap/scf-onboarding-backend/pkg/enums"
)

// PaymentQueueItem is a scheduled supplier disbursement managed by the
// finance team. Amounts are exact decimals; status moves forward only.
type PaymentQueueItem struct {
	ID               uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SupplierUserID   uuid.UUID           `gorm:"column:supplier_user_id;type:uuid;not null;index"`
	BuyerID          uuid.UUID           `gorm:"column:buyer_id;type:uuid;not null;index"`
	InvoiceReference string              `gorm:"column:invoice_reference;not null"`
	Amount           decimal.Decimal     `gorm:"column:amount;type:numeric(18,2);not null"`
	Currency         string              `gorm:"column:currency;not null;default:'USD'"`
	Status           enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'pending'"`
	ScheduledFor     *time.Time          `gorm:"column:scheduled_for"`
	PaidAt           *time.Time          `gorm:"column:paid_at"`
	FailureReason    *string             `gorm:"column:failure_reason"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
