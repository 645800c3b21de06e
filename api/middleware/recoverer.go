package middleware

import (
	"fmt"
	"net/http"

	"github.com/sibusisodev/campusmart-backend/api/responses"
	pkgerrors "github.com/sibusisodev/campusmart-backend/pkg/errors"
	"github.com/sibusisodev/campusmart-backend/pkg/logger"
)

// Recoverer converts handler panics into 500 responses instead of
// letting one request tear down the server.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				err := fmt.Errorf("panic: %v", recovered)
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithField(ctx, "panic", recovered)
					logg.Error(ctx, "panic.recovered", err)
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
