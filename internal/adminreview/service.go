package adminreview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finleap/scf-onboarding-backend/internal/access"
	"github.com/finleap/scf-onboarding-backend/internal/notifications"
	"github.com/finleap/scf-onboarding-backend/pkg/db/models"
	"github.com/finleap/scf-onboarding-backend/pkg/enums"
	pkgerrors "github.com/finleap/scf-onboarding-backend/pkg/errors"
	"github.com/finleap/scf-onboarding-backend/pkg/logger"
	"github.com/finleap/scf-onboarding-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultQueueLimit = 100

// Service exposes the admin review workflows: KYC decisioning, document
// review, banking verification and the payment queue.
type Service interface {
	ListKYC(ctx context.Context, reviewer types.Identity, status *enums.KYCStatus) ([]KYCRecordDTO, error)
	ClaimKYC(ctx context.Context, reviewer types.Identity, recordID uuid.UUID) error
	MarkKYCReady(ctx context.Context, reviewer types.Identity, recordID uuid.UUID) error
	DecideKYC(ctx context.Context, reviewer types.Identity, recordID uuid.UUID, req DecideKYCRequest) error
	ListDocuments(ctx context.Context, reviewer types.Identity, kycRecordID uuid.UUID) ([]DocumentDTO, error)
	ReviewDocument(ctx context.Context, reviewer types.Identity, documentID uuid.UUID, req ReviewDocumentRequest) error
	ListPendingBanking(ctx context.Context, reviewer types.Identity) ([]BankingSubmissionDTO, error)
	VerifyBanking(ctx context.Context, reviewer types.Identity, id uuid.UUID) error
	RejectBanking(ctx context.Context, reviewer types.Identity, id uuid.UUID, req RejectBankingRequest) error
	ListPayments(ctx context.Context, reviewer types.Identity, status *enums.PaymentStatus) ([]PaymentDTO, error)
	ProgressPayment(ctx context.Context, reviewer types.Identity, id uuid.UUID, req ProgressPaymentRequest) (*PaymentDTO, error)
}

type repository interface {
	ListKYC(ctx context.Context, status *enums.KYCStatus, limit int) ([]models.KYCRecord, error)
	FindKYCByID(ctx context.Context, id uuid.UUID) (*models.KYCRecord, error)
	ClaimKYC(ctx context.Context, id, reviewerID uuid.UUID, now time.Time) (int64, error)
	MarkKYCReady(ctx context.Context, id, reviewerID uuid.UUID) (int64, error)
	DecideKYC(ctx context.Context, id, reviewerID uuid.UUID, decision enums.KYCStatus, notes *string, now time.Time) (int64, error)
	FindDocumentByID(ctx context.Context, id uuid.UUID) (*models.KYCDocument, error)
	ListDocumentsForRecord(ctx context.Context, kycRecordID uuid.UUID) ([]models.KYCDocument, error)
	ReviewDocument(ctx context.Context, id, reviewerID uuid.UUID, status enums.DocumentStatus, notes *string, now time.Time) (int64, error)
	ListPayments(ctx context.Context, status *enums.PaymentStatus, limit int) ([]models.PaymentQueueItem, error)
	FindPaymentByID(ctx context.Context, id uuid.UUID) (*models.PaymentQueueItem, error)
	ProgressPayment(ctx context.Context, id uuid.UUID, from, to enums.PaymentStatus, updates map[string]any) (int64, error)
}

type bankingStore interface {
	ListPending(ctx context.Context, limit int) ([]models.BankingDetails, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.BankingDetails, error)
	MarkVerified(ctx context.Context, id, verifierID uuid.UUID, now time.Time) (int64, error)
	MarkRejected(ctx context.Context, id, verifierID uuid.UUID, reason string, now time.Time) (int64, error)
}

type accessMachine interface {
	AdvanceLevel(ctx context.Context, userID uuid.UUID, level enums.AccessLevel, opts access.AdvanceOptions) error
}

type userReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type service struct {
	repo       repository
	banking    bankingStore
	access     accessMachine
	users      userReader
	dispatcher *notifications.Dispatcher
	log        *logger.Logger
}

// ServiceParams bundles the admin review dependencies.
type ServiceParams struct {
	Repo       repository
	Banking    bankingStore
	Access     accessMachine
	Users      userReader
	Dispatcher *notifications.Dispatcher
	Logger     *logger.Logger
}

// NewService wires the admin review service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("admin review repository is required")
	}
	if params.Banking == nil {
		return nil, fmt.Errorf("banking store is required")
	}
	if params.Access == nil {
		return nil, fmt.Errorf("access machine is required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user reader is required")
	}
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("notification dispatcher is required")
	}
	return &service{
		repo:       params.Repo,
		banking:    params.Banking,
		access:     params.Access,
		users:      params.Users,
		dispatcher: params.Dispatcher,
		log:        params.Logger,
	}, nil
}

func requireAdmin(reviewer types.Identity) error {
	if !reviewer.Role.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	return nil
}

// ListKYC returns the review queue, optionally filtered by status.
func (s *service) ListKYC(ctx context.Context, reviewer types.Identity, status *enums.KYCStatus) ([]KYCRecordDTO, error) {
	if err := requireAdmin(reviewer); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListKYC(ctx, status, defaultQueueLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list kyc records")
	}
	items := make([]KYCRecordDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, kycFromModel(row))
	}
	return items, nil
}

// ClaimKYC takes a pending record under review for this reviewer.
func (s *service) ClaimKYC(ctx context.Context, reviewer types.Identity, recordID uuid.UUID) error {
	if err := requireAdmin(reviewer); err != nil {
		return err
	}
	claimed, err := s.repo.ClaimKYC(ctx, recordID, reviewer.UserID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claim kyc record")
	}
	if claimed == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "kyc record is not pending")
	}
	return nil
}

// MarkKYCReady flags the reviewer's record as ready for a decision.
func (s *service) MarkKYCReady(ctx context.Context, reviewer types.Identity, recordID uuid.UUID) error {
	if err := requireAdmin(reviewer); err != nil {
		return err
	}
	updated, err := s.repo.MarkKYCReady(ctx, recordID, reviewer.UserID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark kyc record ready")
	}
	if updated == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "kyc record is not under review by you")
	}
	return nil
}

// DecideKYC approves or rejects the record. Approval advances the applicant's
// access level; both outcomes notify the applicant, best-effort.
func (s *service) DecideKYC(ctx context.Context, reviewer types.Identity, recordID uuid.UUID, req DecideKYCRequest) error {
	if err := requireAdmin(reviewer); err != nil {
		return err
	}
	if !req.Approve && (req.Notes == nil || *req.Notes == "") {
		return pkgerrors.New(pkgerrors.CodeValidation, "rejection requires notes")
	}

	record, err := s.repo.FindKYCByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "kyc record not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load kyc record")
	}

	decision := enums.KYCStatusRejected
	if req.Approve {
		decision = enums.KYCStatusApproved
	}
	now := time.Now().UTC()
	updated, err := s.repo.DecideKYC(ctx, recordID, reviewer.UserID, decision, req.Notes, now)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decide kyc record")
	}
	if updated == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "kyc record is not open for a decision")
	}

	// Drafts carry no user yet; their level bump happens after claiming.
	if record.UserID == nil {
		return nil
	}

	if req.Approve {
		err := s.access.AdvanceLevel(ctx, *record.UserID, enums.AccessLevelKYCApproved, access.AdvanceOptions{})
		if err != nil {
			s.logError(ctx, "advance access level after kyc approval", err)
		}
	}
	s.notifyKYCDecision(ctx, *record.UserID, req.Approve, req.Notes)
	return nil
}

func (s *service) notifyKYCDecision(ctx context.Context, userID uuid.UUID, approved bool, notes *string) {
	applicant, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.logError(ctx, "resolve applicant for kyc notification", err)
		return
	}

	params := notifications.MilestoneParams{
		UserID:  applicant.ID,
		Email:   applicant.Email,
		Role:    applicant.Role,
		Kind:    enums.NotificationKindKYCApproved,
		Title:   "KYC Application Approved",
		Message: "Your KYC application has been approved.",
		Subject: "Your KYC application was approved",
		Body: []string{
			"Your company verification is complete.",
			"Log in to continue with banking details and agreements.",
		},
	}
	if !approved {
		params.Kind = enums.NotificationKindKYCRejected
		params.Title = "KYC Application Rejected"
		params.Message = "Your KYC application was rejected."
		params.Subject = "Your KYC application needs attention"
		params.Body = []string{"Your KYC application was rejected. You can update and resubmit it."}
		if notes != nil && *notes != "" {
			params.Body = append(params.Body, "Reviewer notes: "+*notes)
		}
	}
	s.dispatcher.Milestone(ctx, params)
}

// ListDocuments returns the documents attached to a KYC record.
func (s *service) ListDocuments(ctx context.Context, reviewer types.Identity, kycRecordID uuid.UUID) ([]DocumentDTO, error) {
	if err := requireAdmin(reviewer); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListDocumentsForRecord(ctx, kycRecordID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list kyc documents")
	}
	items := make([]DocumentDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, documentFromModel(row))
	}
	return items, nil
}

// ReviewDocument accepts or rejects an uploaded document.
func (s *service) ReviewDocument(ctx context.Context, reviewer types.Identity, documentID uuid.UUID, req ReviewDocumentRequest) error {
	if err := requireAdmin(reviewer); err != nil {
		return err
	}
	if !req.Accept && (req.Notes == nil || *req.Notes == "") {
		return pkgerrors.New(pkgerrors.CodeValidation, "rejection requires notes")
	}

	status := enums.DocumentStatusRejected
	if req.Accept {
		status = enums.DocumentStatusAccepted
	}
	updated, err := s.repo.ReviewDocument(ctx, documentID, reviewer.UserID, status, req.Notes, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "review document")
	}
	if updated == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "document is not open for review")
	}
	return nil
}

// ListPendingBanking returns the banking verification queue.
func (s *service) ListPendingBanking(ctx context.Context, reviewer types.Identity) ([]BankingSubmissionDTO, error) {
	if err := requireAdmin(reviewer); err != nil {
		return nil, err
	}
	rows, err := s.banking.ListPending(ctx, defaultQueueLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pending banking details")
	}
	items := make([]BankingSubmissionDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, bankingFromModel(row))
	}
	return items, nil
}

// VerifyBanking marks the submission verified and advances the supplier to
// the final onboarding level.
func (s *service) VerifyBanking(ctx context.Context, reviewer types.Identity, id uuid.UUID) error {
	if err := requireAdmin(reviewer); err != nil {
		return err
	}

	details, err := s.banking.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "banking details not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load banking details")
	}

	verified, err := s.banking.MarkVerified(ctx, id, reviewer.UserID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify banking details")
	}
	if verified == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "banking details are not pending")
	}

	err = s.access.AdvanceLevel(ctx, details.UserID, enums.AccessLevelBankingVerified, access.AdvanceOptions{})
	if err != nil {
		s.logError(ctx, "advance access level after banking verification", err)
	}
	s.notifyBankingVerified(ctx, details.UserID)
	return nil
}

func (s *service) notifyBankingVerified(ctx context.Context, userID uuid.UUID) {
	supplier, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.logError(ctx, "resolve supplier for banking notification", err)
		return
	}
	s.dispatcher.Milestone(ctx, notifications.MilestoneParams{
		UserID:  supplier.ID,
		Email:   supplier.Email,
		Role:    supplier.Role,
		Kind:    enums.NotificationKindBankingVerified,
		Title:   "Banking Details Verified",
		Message: "Your banking details have been verified.",
		Subject: "Your banking details were verified",
		Body: []string{
			"Your banking details passed verification.",
			"You now have full access to payments and financing.",
		},
	})
}

// RejectBanking marks the submission rejected with a reason.
func (s *service) RejectBanking(ctx context.Context, reviewer types.Identity, id uuid.UUID, req RejectBankingRequest) error {
	if err := requireAdmin(reviewer); err != nil {
		return err
	}
	if req.Reason == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "rejection requires a reason")
	}
	rejected, err := s.banking.MarkRejected(ctx, id, reviewer.UserID, req.Reason, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reject banking details")
	}
	if rejected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "banking details are not pending")
	}
	return nil
}

// ListPayments returns the payment queue, optionally filtered by status.
func (s *service) ListPayments(ctx context.Context, reviewer types.Identity, status *enums.PaymentStatus) ([]PaymentDTO, error) {
	if err := requireAdmin(reviewer); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListPayments(ctx, status, defaultQueueLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list payment queue")
	}
	items := make([]PaymentDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, paymentFromModel(row))
	}
	return items, nil
}

// ProgressPayment moves a queue item one legal step forward. The transition
// is a conditional update keyed on the status the caller observed.
func (s *service) ProgressPayment(ctx context.Context, reviewer types.Identity, id uuid.UUID, req ProgressPaymentRequest) (*PaymentDTO, error) {
	if err := requireAdmin(reviewer); err != nil {
		return nil, err
	}
	next, err := enums.ParsePaymentStatus(req.Status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}
	if next == enums.PaymentStatusFailed && (req.FailureReason == nil || *req.FailureReason == "") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "failure requires a reason")
	}

	item, err := s.repo.FindPaymentByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment")
	}
	if !item.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(
			pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move payment from %s to %s", item.Status, next),
		)
	}

	now := time.Now().UTC()
	updates := map[string]any{}
	switch next {
	case enums.PaymentStatusScheduled:
		scheduledFor := now
		if req.ScheduledFor != nil {
			scheduledFor = *req.ScheduledFor
		}
		updates["scheduled_for"] = scheduledFor
	case enums.PaymentStatusPaid:
		updates["paid_at"] = now
	case enums.PaymentStatusFailed:
		updates["failure_reason"] = *req.FailureReason
	}

	moved, err := s.repo.ProgressPayment(ctx, id, item.Status, next, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "progress payment")
	}
	if moved == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment status changed concurrently")
	}

	item, err = s.repo.FindPaymentByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload payment")
	}
	dto := paymentFromModel(*item)
	return &dto, nil
}

func (s *service) logError(ctx context.Context, msg string, err error) {
	if s.log == nil {
		return
	}
	s.log.Error(ctx, msg, err)
}
