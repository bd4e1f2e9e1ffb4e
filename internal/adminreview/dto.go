package adminreview

import (
	"time"

	"github.com/finleap/scf-onboarding-backend/pkg/db/models"
	"github.com/finleap/scf-onboarding-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// KYCRecordDTO is the admin queue view of a KYC record.
type KYCRecordDTO struct {
	ID            uuid.UUID       `json:"id"`
	UserID        *uuid.UUID      `json:"user_id,omitempty"`
	CompanyID     uuid.UUID       `json:"company_id"`
	Status        enums.KYCStatus `json:"status"`
	SubmittedAt   time.Time       `json:"submitted_at"`
	ReviewedAt    *time.Time      `json:"reviewed_at,omitempty"`
	DecidedAt     *time.Time      `json:"decided_at,omitempty"`
	ReviewerID    *uuid.UUID      `json:"reviewer_id,omitempty"`
	DecisionNotes *string         `json:"decision_notes,omitempty"`
}

// DecideKYCRequest carries an approve/reject decision.
type DecideKYCRequest struct {
	Approve bool    `json:"approve"`
	Notes   *string `json:"notes,omitempty"`
}

// ReviewDocumentRequest carries an accept/reject document decision.
type ReviewDocumentRequest struct {
	Accept bool    `json:"accept"`
	Notes  *string `json:"notes,omitempty"`
}

// DocumentDTO is the admin view of an uploaded KYC document.
type DocumentDTO struct {
	ID           uuid.UUID            `json:"id"`
	KYCRecordID  uuid.UUID            `json:"kyc_record_id"`
	DocumentType string               `json:"document_type"`
	FileName     string               `json:"file_name"`
	Status       enums.DocumentStatus `json:"status"`
	ReviewNotes  *string              `json:"review_notes,omitempty"`
	ReviewedAt   *time.Time           `json:"reviewed_at,omitempty"`
}

// BankingSubmissionDTO is the admin verification view. Unlike the
// user-facing shape, the account number is not masked here.
type BankingSubmissionDTO struct {
	ID            uuid.UUID           `json:"id"`
	UserID        uuid.UUID           `json:"user_id"`
	BankName      string              `json:"bank_name"`
	AccountName   string              `json:"account_name"`
	AccountNumber string              `json:"account_number"`
	RoutingNumber string              `json:"routing_number"`
	Currency      string              `json:"currency"`
	Status        enums.BankingStatus `json:"status"`
	SubmittedAt   time.Time           `json:"submitted_at"`
}

// RejectBankingRequest carries the rejection reason.
type RejectBankingRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// ProgressPaymentRequest advances a payment queue item one step.
type ProgressPaymentRequest struct {
	Status        string     `json:"status" validate:"required"`
	ScheduledFor  *time.Time `json:"scheduled_for,omitempty"`
	FailureReason *string    `json:"failure_reason,omitempty"`
}

// PaymentDTO is the admin view of a payment queue item.
type PaymentDTO struct {
	ID               uuid.UUID           `json:"id"`
	SupplierUserID   uuid.UUID           `json:"supplier_user_id"`
	BuyerID          uuid.UUID           `json:"buyer_id"`
	InvoiceReference string              `json:"invoice_reference"`
	Amount           decimal.Decimal     `json:"amount"`
	Currency         string              `json:"currency"`
	Status           enums.PaymentStatus `json:"status"`
	ScheduledFor     *time.Time          `json:"scheduled_for,omitempty"`
	PaidAt           *time.Time          `json:"paid_at,omitempty"`
	FailureReason    *string             `json:"failure_reason,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
}

func kycFromModel(row models.KYCRecord) KYCRecordDTO {
	return KYCRecordDTO{
		ID:            row.ID,
		UserID:        row.UserID,
		CompanyID:     row.CompanyID,
		Status:        row.Status,
		SubmittedAt:   row.SubmittedAt,
		ReviewedAt:    row.ReviewedAt,
		DecidedAt:     row.DecidedAt,
		ReviewerID:    row.ReviewerID,
		DecisionNotes: row.DecisionNotes,
	}
}

func documentFromModel(row models.KYCDocument) DocumentDTO {
	return DocumentDTO{
		ID:           row.ID,
		KYCRecordID:  row.KYCRecordID,
		DocumentType: row.DocumentType,
		FileName:     row.FileName,
		Status:       row.Status,
		ReviewNotes:  row.ReviewNotes,
		ReviewedAt:   row.ReviewedAt,
	}
}

func bankingFromModel(row models.BankingDetails) BankingSubmissionDTO {
	return BankingSubmissionDTO{
		ID:            row.ID,
		UserID:        row.UserID,
		BankName:      row.BankName,
		AccountName:   row.AccountName,
		AccountNumber: row.AccountNumber,
		RoutingNumber: row.RoutingNumber,
		Currency:      row.Currency,
		Status:        row.Status,
		SubmittedAt:   row.SubmittedAt,
	}
}

func paymentFromModel(row models.PaymentQueueItem) PaymentDTO {
	return PaymentDTO{
		ID:               row.ID,
		SupplierUserID:   row.SupplierUserID,
		BuyerID:          row.BuyerID,
		InvoiceReference: row.InvoiceReference,
		Amount:           row.Amount,
		Currency:         row.Currency,
		Status:           row.Status,
		ScheduledFor:     row.ScheduledFor,
		PaidAt:           row.PaidAt,
		FailureReason:    row.FailureReason,
		CreatedAt:        row.CreatedAt,
	}
}
