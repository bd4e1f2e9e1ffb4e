package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/finleap/scf-onboarding-backend/pkg/enums"
)

// DashboardAccess is the per-user onboarding state row. Multiple historical
// rows may exist for one user; the current one is the most recently created.
// The access level only moves forward under normal flow.
type DashboardAccess struct {
	ID                      uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID                  uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	KYCRecordID             *uuid.UUID        `gorm:"column:kyc_record_id;type:uuid"`
	AccessLevel             enums.AccessLevel `gorm:"column:access_level;type:access_level;not null;default:'pre_kyc'"`
	DashboardFeatures       pq.StringArray    `gorm:"type:text[];column:dashboard_features;not null;default:ARRAY[]::text[]"`
	AgreementID             *uuid.UUID        `gorm:"column:agreement_id;type:uuid"`
	AgreementSigningDate    *time.Time        `gorm:"column:agreement_signing_date"`
	BankingSubmissionDate   *time.Time        `gorm:"column:banking_submission_date"`
	BankingVerificationDate *time.Time        `gorm:"column:banking_verification_date"`
	LastLevelChange         time.Time         `gorm:"column:last_level_change;not null"`
	CreatedAt               time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
