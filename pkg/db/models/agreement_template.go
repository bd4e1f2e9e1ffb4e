package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/finleap/scf-onboarding-backend/pkg/enums"
)

// AgreementTemplate holds the versioned legal text agreements are rendered
// from. A missing active template for a required type is seeded with a
// hardcoded default on first use.
type AgreementTemplate struct {
	ID              uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	TemplateType    enums.AgreementType `gorm:"column:template_type;type:agreement_type;not null;index"`
	Version         string              `gorm:"column:version;not null"`
	ContentTemplate string              `gorm:"column:content_template;not null"`
	IsActive        bool                `gorm:"column:is_active;not null;default:true"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
