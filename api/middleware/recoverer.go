package middleware

import (
	"fmt"
	"net/http"

	"github.com/wishlify/wishlify-backend/api/responses"
	pkgerrors "github.com/wishlify/wishlify-backend/pkg/errors"
	"github.com/wishlify/wishlify-backend/pkg/logger"
)

// Recoverer turns a panic into a JSON 500 envelope.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return recoverWith(logg, func(w http.ResponseWriter, r *http.Request, err error) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
	})
}

// RecoverToRedirect turns a panic into a 302 to target. Routes that must always
// send the visitor somewhere use it instead of the JSON error.
func RecoverToRedirect(logg *logger.Logger, target string) func(http.Handler) http.Handler {
	return recoverWith(logg, func(w http.ResponseWriter, r *http.Request, _ error) {
		w.Header().Set("Cache-Control", "no-store")
		http.Redirect(w, r, target, http.StatusFound)
	})
}

func recoverWith(logg *logger.Logger, respond func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				err := fmt.Errorf("panic: %v", rec)
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{"panic": rec})
					logg.Error(ctx, "panic.recovered", err)
				}
				respond(w, r.WithContext(ctx), err)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
