package controllers

import (
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/finleap/scf-onboarding-backend/api/middleware"
	"github.com/finleap/scf-onboarding-backend/api/responses"
	"github.com/finleap/scf-onboarding-backend/api/validators"
	"github.com/finleap/scf-onboarding-backend/internal/agreements"
	pkgerrors "github.com/finleap/scf-onboarding-backend/pkg/errors"
	"github.com/finleap/scf-onboarding-backend/pkg/logger"
)

// ListAgreements returns the caller's agreements, presenting any that are
// due as a side effect of the read.
func ListAgreements(svc agreements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "agreements service unavailable"))
			return
		}

		identity := middleware.IdentityFromContext(r.Context())
		items, err := svc.List(r.Context(), identity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// CreateAgreement explicitly presents an agreement of the requested type.
func CreateAgreement(svc agreements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "agreements service unavailable"))
			return
		}

		var body agreements.CreateAgreementRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		identity := middleware.IdentityFromContext(r.Context())
		result, err := svc.Create(r.Context(), identity, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// SignAgreement records the signature with the caller's IP for the audit trail.
func SignAgreement(svc agreements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "agreements service unavailable"))
			return
		}

		agreementID, err := uuid.Parse(chi.URLParam(r, "agreementId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid agreement id"))
			return
		}

		var body agreements.SignAgreementRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		identity := middleware.IdentityFromContext(r.Context())
		result, err := svc.Sign(r.Context(), identity, agreementID, body, requestIP(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func requestIP(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		if first := strings.TrimSpace(strings.SplitN(header, ",", 2)[0]); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
