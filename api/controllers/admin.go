package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/finleap/scf-onboarding-backend/api/middleware"
	"github.com/finleap/scf-onboarding-backend/api/responses"
	"github.com/finleap/scf-onboarding-backend/api/validators"
	"github.com/finleap/scf-onboarding-backend/internal/adminreview"
	"github.com/finleap/scf-onboarding-backend/pkg/enums"
	pkgerrors "github.com/finleap/scf-onboarding-backend/pkg/errors"
	"github.com/finleap/scf-onboarding-backend/pkg/logger"
)

// AdminListKYC lists the KYC review queue, oldest submissions first.
// An optional ?status= filter narrows the queue.
func AdminListKYC(svc adminreview.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		var status *enums.KYCStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseKYCStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kyc status"))
				return
			}
			status = &parsed
		}

		reviewer := middleware.IdentityFromContext(r.Context())
		items, err := svc.ListKYC(r.Context(), reviewer, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// AdminClaimKYC moves a pending record to under_review for this reviewer.
func AdminClaimKYC(svc adminreview.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		recordID, err := uuid.Parse(chi.URLParam(r, "recordId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid record id"))
			return
		}

		reviewer := middleware.IdentityFromContext(r.Context())
		if err := svc.ClaimKYC(r.Context(), reviewer, recordID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "under_review"})
	}
}

// AdminMarkKYCReady flags the record as ready for a decision. Only the
// claiming reviewer may do this.
func AdminMarkKYCReady(svc adminreview.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		recordID, err := uuid.Parse(chi.URLParam(r, "recordId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid record id"))
			return
		}

		reviewer := middleware.IdentityFromContext(r.Context())
		if err := svc.MarkKYCReady(r.Context(), reviewer, recordID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready_for_decision"})
	}
}

// AdminDecideKYC approves or rejects a record and unlocks the applicant's
// dashboard on approval.
func AdminDecideKYC(svc adminreview.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		recordID, err := uuid.Parse(chi.URLParam(r, "recordId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid record id"))
			return
		}

		var body adminreview.DecideKYCRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reviewer := middleware.IdentityFromContext(r.Context())
		if err := svc.DecideKYC(r.Context(), reviewer, recordID, body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "decided"})
	}
}

// AdminListDocuments lists the documents attached to a KYC record.
func AdminListDocuments(svc adminreview.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		recordID, err := uuid.Parse(chi.URLParam(r, "recordId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid record id"))
			return
		}

		reviewer := middleware.IdentityFromContext(r.Context())
		items, err := svc.ListDocuments(r.Context(), reviewer, recordID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// AdminReviewDocument accepts or rejects a single uploaded document.
func AdminReviewDocument(svc adminreview.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		documentID, err := uuid.Parse(chi.URLParam(r, "documentId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid document id"))
			return
		}

		var body adminreview.ReviewDocumentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reviewer := middleware.IdentityFromContext(r.Context())
		if err := svc.ReviewDocument(r.Context(), reviewer, documentID, body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "reviewed"})
	}
}

// AdminListPendingBanking lists banking submissions awaiting verification.
func AdminListPendingBanking(svc adminreview.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		reviewer := middleware.IdentityFromContext(r.Context())
		items, err := svc.ListPendingBanking(r.Context(), reviewer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// AdminVerifyBanking confirms a banking submission and unlocks the supplier's
// final onboarding step.
func AdminVerifyBanking(svc adminreview.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		bankingID, err := uuid.Parse(chi.URLParam(r, "bankingId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid banking id"))
			return
		}

		reviewer := middleware.IdentityFromContext(r.Context())
		if err := svc.VerifyBanking(r.Context(), reviewer, bankingID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "verified"})
	}
}

// AdminRejectBanking rejects a banking submission so the supplier can resubmit.
func AdminRejectBanking(svc adminreview.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		bankingID, err := uuid.Parse(chi.URLParam(r, "bankingId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid banking id"))
			return
		}

		var body adminreview.RejectBankingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reviewer := middleware.IdentityFromContext(r.Context())
		if err := svc.RejectBanking(r.Context(), reviewer, bankingID, body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "rejected"})
	}
}

// AdminListPayments lists the payment queue, optionally filtered by status.
func AdminListPayments(svc adminreview.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		var status *enums.PaymentStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParsePaymentStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status"))
				return
			}
			status = &parsed
		}

		reviewer := middleware.IdentityFromContext(r.Context())
		items, err := svc.ListPayments(r.Context(), reviewer, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// AdminProgressPayment moves a payment one step forward in its lifecycle.
func AdminProgressPayment(svc adminreview.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		paymentID, err := uuid.Parse(chi.URLParam(r, "paymentId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment id"))
			return
		}

		var body adminreview.ProgressPaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reviewer := middleware.IdentityFromContext(r.Context())
		result, err := svc.ProgressPayment(r.Context(), reviewer, paymentID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
