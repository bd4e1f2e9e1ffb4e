package invitations

import (
	"time"

	"github.com/finleap/scf-onboarding-backend/pkg/db/models"
	"github.com/finleap/scf-onboarding-backend/pkg/enums"
	"github.com/google/uuid"
)

// CreateInvitationRequest is the buyer-facing payload for inviting a supplier.
type CreateInvitationRequest struct {
	CompanyName string `json:"company_name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
}

// OpenInvitationRequest carries the token from the public invitation landing page.
type OpenInvitationRequest struct {
	Token string `json:"token" validate:"required"`
}

// InvitationDTO is the transport shape with the derived expired status folded in.
type InvitationDTO struct {
	ID           uuid.UUID              `json:"id"`
	CompanyName  string                 `json:"company_name"`
	Email        string                 `json:"email"`
	Status       enums.InvitationStatus `json:"status"`
	ExpiresAt    time.Time              `json:"expires_at"`
	SentAt       time.Time              `json:"sent_at"`
	OpenedAt     *time.Time             `json:"opened_at,omitempty"`
	RegisteredAt *time.Time             `json:"registered_at,omitempty"`
	CompletedAt  *time.Time             `json:"completed_at,omitempty"`
}

// OpenInvitationResponse tells the landing page what to show.
type OpenInvitationResponse struct {
	CompanyName string                 `json:"company_name"`
	Email       string                 `json:"email"`
	Status      enums.InvitationStatus `json:"status"`
}

func fromModel(row models.SupplierInvitation, now time.Time) InvitationDTO {
	return InvitationDTO{
		ID:           row.ID,
		CompanyName:  row.InvitedCompanyName,
		Email:        row.InvitedEmail,
		Status:       row.EffectiveStatus(now),
		ExpiresAt:    row.ExpiresAt,
		SentAt:       row.SentAt,
		OpenedAt:     row.OpenedAt,
		RegisteredAt: row.RegisteredAt,
		CompletedAt:  row.CompletedAt,
	}
}
