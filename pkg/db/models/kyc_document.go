package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/finleap/scf-onboarding-backend/pkg/enums"
)

// KYCDocument records metadata for a document submitted with a KYC
// application. File contents live in external storage; only the review
// state is tracked here.
type KYCDocument struct {
	ID           uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	KYCRecordID  uuid.UUID            `gorm:"column:kyc_record_id;type:uuid;not null;index"`
	DocumentType string               `gorm:"column:document_type;not null"`
	FileName     string               `gorm:"column:file_name;not null"`
	Status       enums.DocumentStatus `gorm:"column:status;type:document_status;not null;default:'uploaded'"`
	ReviewNotes  *string              `gorm:"column:review_notes"`
	ReviewerID   *uuid.UUID           `gorm:"column:reviewer_id;type:uuid"`
	ReviewedAt   *time.Time           `gorm:"column:reviewed_at"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
