package controllers

import (
	"net/http"

	"github.com/sibusisodev/campusmart-backend/api/responses"
	"github.com/sibusisodev/campusmart-backend/api/validators"
	"github.com/sibusisodev/campusmart-backend/internal/auth"
	pkgerrors "github.com/sibusisodev/campusmart-backend/pkg/errors"
	"github.com/sibusisodev/campusmart-backend/pkg/logger"
)

// AuthLogin adapts the login service to the HTTP layer.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("X-CM-Token", result.AccessToken)
		responses.WriteSuccess(w, result)
	}
}
