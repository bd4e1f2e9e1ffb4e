package applications

import (
	"time"

	"github.com/finleap/scf-onboarding-backend/pkg/db/models"
	"github.com/finleap/scf-onboarding-backend/pkg/enums"
	"github.com/google/uuid"
)

// SubmitApplicationRequest carries the company details for a KYC application.
// Anonymous callers may submit it before an account exists.
type SubmitApplicationRequest struct {
	CompanyName        string  `json:"company_name" validate:"required"`
	RegistrationNumber string  `json:"registration_number" validate:"required"`
	TaxNumber          *string `json:"tax_number,omitempty"`
	Email              string  `json:"email" validate:"required,email"`
	Phone              *string `json:"phone,omitempty"`
	Address            *string `json:"address,omitempty"`
	CompanyType        string  `json:"company_type,omitempty"`
}

// SubmitApplicationResponse reports the resulting record ids. ShouldLogin is
// set for anonymous submissions colliding with an already claimed company.
type SubmitApplicationResponse struct {
	CompanyID   uuid.UUID       `json:"company_id,omitempty"`
	KYCRecordID uuid.UUID       `json:"kyc_record_id,omitempty"`
	Status      enums.KYCStatus `json:"status,omitempty"`
	Draft       bool            `json:"draft"`
	ShouldLogin bool            `json:"should_login,omitempty"`
}

// ApplicationDTO is the combined company + KYC view of an application.
type ApplicationDTO struct {
	CompanyID          uuid.UUID         `json:"company_id"`
	CompanyName        string            `json:"company_name"`
	RegistrationNumber string            `json:"registration_number"`
	TaxNumber          *string           `json:"tax_number,omitempty"`
	Email              string            `json:"email"`
	Phone              *string           `json:"phone,omitempty"`
	Address            *string           `json:"address,omitempty"`
	CompanyType        enums.CompanyType `json:"company_type"`
	KYCRecordID        uuid.UUID         `json:"kyc_record_id"`
	KYCStatus          enums.KYCStatus   `json:"kyc_status"`
	SubmittedAt        time.Time         `json:"submitted_at"`
	DecidedAt          *time.Time        `json:"decided_at,omitempty"`
	DecisionNotes      *string           `json:"decision_notes,omitempty"`
}

func applicationFromModels(company models.Company, record models.KYCRecord) ApplicationDTO {
	return ApplicationDTO{
		CompanyID:          company.ID,
		CompanyName:        company.CompanyName,
		RegistrationNumber: company.RegistrationNumber,
		TaxNumber:          company.TaxNumber,
		Email:              company.Email,
		Phone:              company.Phone,
		Address:            company.Address,
		CompanyType:        company.CompanyType,
		KYCRecordID:        record.ID,
		KYCStatus:          record.Status,
		SubmittedAt:        record.SubmittedAt,
		DecidedAt:          record.DecidedAt,
		DecisionNotes:      record.DecisionNotes,
	}
}
