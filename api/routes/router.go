package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wishlify/wishlify-backend/api/controllers"
	"github.com/wishlify/wishlify-backend/api/middleware"
	"github.com/wishlify/wishlify-backend/internal/outbound"
	"github.com/wishlify/wishlify-backend/pkg/config"
	"github.com/wishlify/wishlify-backend/pkg/db"
	"github.com/wishlify/wishlify-backend/pkg/logger"
	"github.com/wishlify/wishlify-backend/pkg/metrics"
	"github.com/wishlify/wishlify-backend/pkg/redis"
)

// NewRouter wires the public redirect, the JSON API and the operational routes.
// redisP may be nil when the lookup cache is disabled; gatherer may be nil to skip
// /metrics.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	outboundService outbound.Service,
	previewer controllers.Previewer,
	dbP db.Pinger,
	redisP redis.Pinger,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.With(middleware.RecoverToRedirect(logg, cfg.Outbound.SiteRoot)).
		Get("/go", controllers.OutboundRedirect(outboundService, logg))

	deps := map[string]controllers.Pinger{}
	if dbP != nil {
		deps["db"] = dbP
	}
	if redisP != nil {
		deps["redis"] = redisP
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, logg, deps))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.API.CORSOrigins))
		r.Get("/outbound/preview", controllers.OutboundPreview(previewer, logg))
	})

	return r
}
