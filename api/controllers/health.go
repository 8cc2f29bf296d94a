package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/wishlify/wishlify-backend/api/responses"
	pkgerrors "github.com/wishlify/wishlify-backend/pkg/errors"
	"github.com/wishlify/wishlify-backend/pkg/logger"
	"github.com/wishlify/wishlify-backend/pkg/types"
)

const (
	envHeader        = "X-Wishlify-Env"
	readinessTimeout = 2 * time.Second
)

// Pinger is satisfied by the db and redis clients.
type Pinger interface {
	Ping(context.Context) error
}

func HealthLive(env string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, env)
		responses.WriteSuccess(w, types.HealthReport{Status: "live"})
	}
}

// HealthReady pings every named dependency. Nil pingers are skipped so optional
// dependencies such as redis can be left out.
func HealthReady(env string, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		report := types.HealthReport{Status: "ready", Checks: map[string]string{}}
		failed := false
		for name, p := range deps {
			if p == nil {
				continue
			}
			if err := p.Ping(ctx); err != nil {
				failed = true
				report.Checks[name] = "error"
				if logg != nil {
					logg.Warn(logg.WithFields(r.Context(), map[string]any{"dependency": name, "error": err.Error()}), "health.dependency_down")
				}
				continue
			}
			report.Checks[name] = "ok"
		}

		if failed {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeUnavailable, "dependencies unavailable").WithDetails(report))
			return
		}
		responses.WriteSuccess(w, report)
	}
}
