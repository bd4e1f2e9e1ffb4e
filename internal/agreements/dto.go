package agreements

import (
	"time"

	"github.com/finleap/scf-onboarding-backend/pkg/db/models"
	"github.com/finleap/scf-onboarding-backend/pkg/enums"
	"github.com/google/uuid"
)

// AgreementDTO is the transport shape for agreement rows.
type AgreementDTO struct {
	ID                 uuid.UUID             `json:"id"`
	AgreementType      enums.AgreementType   `json:"agreement_type"`
	AgreementVersion   string                `json:"agreement_version"`
	Content            string                `json:"content"`
	Status             enums.AgreementStatus `json:"status"`
	PresentedAt        *time.Time            `json:"presented_at,omitempty"`
	SignedAt           *time.Time            `json:"signed_at,omitempty"`
	ExpiryDate         *time.Time            `json:"expiry_date,omitempty"`
	CounterpartyUserID *uuid.UUID            `json:"counterparty_user_id,omitempty"`
	SignatoryName      *string               `json:"signatory_name,omitempty"`
	SignatoryTitle     *string               `json:"signatory_title,omitempty"`
}

// CreateAgreementRequest is the explicit user-initiated creation payload.
type CreateAgreementRequest struct {
	AgreementType string `json:"agreement_type" validate:"required"`
}

// SignAgreementRequest carries the signatory metadata for signing.
type SignAgreementRequest struct {
	SignatoryName   string  `json:"signatory_name" validate:"required"`
	SignatoryTitle  *string `json:"signatory_title,omitempty"`
	SignatureMethod string  `json:"signature_method,omitempty"`
}

// SignAgreementResponse confirms the durable signing fact. Side effects are
// best-effort and not reflected here.
type SignAgreementResponse struct {
	AgreementID uuid.UUID `json:"agreement_id"`
	SignedAt    time.Time `json:"signed_at"`
}

func fromModel(row models.Agreement) AgreementDTO {
	return AgreementDTO{
		ID:                 row.ID,
		AgreementType:      row.AgreementType,
		AgreementVersion:   row.AgreementVersion,
		Content:            row.AgreementContent,
		Status:             row.Status,
		PresentedAt:        row.PresentedAt,
		SignedAt:           row.SignedAt,
		ExpiryDate:         row.ExpiryDate,
		CounterpartyUserID: row.CounterpartyUserID,
		SignatoryName:      row.SignatoryName,
		SignatoryTitle:     row.SignatoryTitle,
	}
}
