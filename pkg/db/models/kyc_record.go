package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/finleap/scf-onboarding-backend/pkg/enums"
)

// KYCRecord tracks a company's compliance application. One row is created
// alongside each Company (draft or claimed) and follows the company through
// the claim. A rejected record resets to pending when the applicant resubmits.
type KYCRecord struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        *uuid.UUID      `gorm:"column:user_id;type:uuid;index"`
	CompanyID     uuid.UUID       `gorm:"column:company_id;type:uuid;not null;index"`
	Status        enums.KYCStatus `gorm:"column:status;type:kyc_status;not null;default:'pending'"`
	SubmittedAt   time.Time       `gorm:"column:submitted_at;not null"`
	ReviewedAt    *time.Time      `gorm:"column:reviewed_at"`
	DecidedAt     *time.Time      `gorm:"column:decided_at"`
	ReviewerID    *uuid.UUID      `gorm:"column:reviewer_id;type:uuid"`
	DecisionNotes *string         `gorm:"column:decision_notes"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
