package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/finleap/scf-onboarding-backend/pkg/enums"
)

// BankingDetails holds a user's payout account submission awaiting admin
// verification.
type BankingDetails struct {
	ID              uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	BankName        string              `gorm:"column:bank_name;not null"`
	AccountName     string              `gorm:"column:account_name;not null"`
	AccountNumber   string              `gorm:"column:account_number;not null"`
	RoutingNumber   string              `gorm:"column:routing_number;not null"`
	Currency        string              `gorm:"column:currency;not null;default:'USD'"`
	Status          enums.BankingStatus `gorm:"column:status;type:banking_status;not null;default:'pending'"`
	SubmittedAt     time.Time           `gorm:"column:submitted_at;not null"`
	VerifiedAt      *time.Time          `gorm:"column:verified_at"`
	VerifierID      *uuid.UUID          `gorm:"column:verifier_id;type:uuid"`
	RejectionReason *string             `gorm:"column:rejection_reason"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
