package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/finleap/scf-onboarding-backend/pkg/enums"
)

// Company records the legal entity behind a buyer or supplier account.
// A nil UserID marks an unclaimed draft created before the applicant
// registered; the (registration_number, company_type) pair is unique among
// claimed companies only.
type Company struct {
	ID                 uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID             *uuid.UUID        `gorm:"column:user_id;type:uuid;index"`
	CompanyName        string            `gorm:"column:company_name;not null"`
	RegistrationNumber string            `gorm:"column:registration_number;not null;index"`
	TaxNumber          *string           `gorm:"column:tax_number"`
	Email              string            `gorm:"column:email;not null"`
	Phone              *string           `gorm:"column:phone"`
	Address            *string           `gorm:"column:address"`
	CompanyType        enums.CompanyType `gorm:"column:company_type;type:company_type;not null"`
	Status             string            `gorm:"column:status;not null;default:'active'"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// IsDraft reports whether the company is still waiting to be claimed.
func (c Company) IsDraft() bool {
	return c.UserID == nil
}
