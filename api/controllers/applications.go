package controllers

import (
	"net/http"

	"github.com/finleap/scf-onboarding-backend/api/middleware"
	"github.com/finleap/scf-onboarding-backend/api/responses"
	"github.com/finleap/scf-onboarding-backend/api/validators"
	"github.com/finleap/scf-onboarding-backend/internal/applications"
	pkgerrors "github.com/finleap/scf-onboarding-backend/pkg/errors"
	"github.com/finleap/scf-onboarding-backend/pkg/logger"
)

// SubmitApplication accepts company + KYC details. It sits behind optional
// auth: anonymous submissions become claimable drafts.
func SubmitApplication(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "applications service unavailable"))
			return
		}

		var body applications.SubmitApplicationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		identity := middleware.IdentityFromContext(r.Context())
		result, err := svc.Submit(r.Context(), identity, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// GetMyApplication returns the caller's company and KYC state, or an empty
// body when nothing has been submitted yet.
func GetMyApplication(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "applications service unavailable"))
			return
		}

		identity := middleware.IdentityFromContext(r.Context())
		result, err := svc.Get(r.Context(), identity.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
