package controllers

import (
	"net/http"

	"github.com/finleap/scf-onboarding-backend/api/middleware"
	"github.com/finleap/scf-onboarding-backend/api/responses"
	"github.com/finleap/scf-onboarding-backend/internal/access"
	pkgerrors "github.com/finleap/scf-onboarding-backend/pkg/errors"
	"github.com/finleap/scf-onboarding-backend/pkg/logger"
)

// AccessStatus computes whether the caller may enter the dashboard and which
// onboarding step is still outstanding.
func AccessStatus(svc access.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "access service unavailable"))
			return
		}

		identity := middleware.IdentityFromContext(r.Context())
		decision, err := svc.ComputeAccess(r.Context(), identity.UserID, identity.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, decision)
	}
}

// AccessFeatures lists the dashboard features unlocked at the caller's level.
func AccessFeatures(svc access.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "access service unavailable"))
			return
		}

		identity := middleware.IdentityFromContext(r.Context())
		features, err := svc.Features(r.Context(), identity.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string][]string{"features": features})
	}
}
