package banking

import (
	"strings"
	"time"

	"github.com/finleap/scf-onboarding-backend/pkg/db/models"
	"github.com/finleap/scf-onboarding-backend/pkg/enums"
	"github.com/google/uuid"
)

// SubmitBankingRequest carries a supplier's banking details.
type SubmitBankingRequest struct {
	BankName      string `json:"bank_name" validate:"required"`
	AccountName   string `json:"account_name" validate:"required"`
	AccountNumber string `json:"account_number" validate:"required,min=4"`
	RoutingNumber string `json:"routing_number" validate:"required"`
	Currency      string `json:"currency,omitempty" validate:"omitempty,len=3"`
}

// BankingDTO is the transport shape for a submission. The account number is
// always masked on the way out.
type BankingDTO struct {
	ID              uuid.UUID           `json:"id"`
	BankName        string              `json:"bank_name"`
	AccountName     string              `json:"account_name"`
	AccountNumber   string              `json:"account_number"`
	RoutingNumber   string              `json:"routing_number"`
	Currency        string              `json:"currency"`
	Status          enums.BankingStatus `json:"status"`
	SubmittedAt     time.Time           `json:"submitted_at"`
	VerifiedAt      *time.Time          `json:"verified_at,omitempty"`
	RejectionReason *string             `json:"rejection_reason,omitempty"`
}

func fromModel(row models.BankingDetails) BankingDTO {
	return BankingDTO{
		ID:              row.ID,
		BankName:        row.BankName,
		AccountName:     row.AccountName,
		AccountNumber:   maskAccountNumber(row.AccountNumber),
		RoutingNumber:   row.RoutingNumber,
		Currency:        row.Currency,
		Status:          row.Status,
		SubmittedAt:     row.SubmittedAt,
		VerifiedAt:      row.VerifiedAt,
		RejectionReason: row.RejectionReason,
	}
}

func maskAccountNumber(number string) string {
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}
