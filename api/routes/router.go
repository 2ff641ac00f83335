package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/helix-rec/helix-backend/api/controllers"
	"github.com/helix-rec/helix-backend/api/middleware"
	"github.com/helix-rec/helix-backend/internal/features"
	"github.com/helix-rec/helix-backend/internal/serving"
	"github.com/helix-rec/helix-backend/pkg/config"
	"github.com/helix-rec/helix-backend/pkg/db"
	"github.com/helix-rec/helix-backend/pkg/logger"
	"github.com/helix-rec/helix-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	registry *prometheus.Registry,
	featureService features.Service,
	servingService serving.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/healthz", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/users/{userId}/recommendations", controllers.UserRecommendations(servingService, logg))
		r.Post("/batch-inference", controllers.BatchInference(servingService, logg))
		r.Get("/batch-inference/{runId}/failures", controllers.BatchFailures(servingService, logg))
		r.Get("/features/stats", controllers.FeatureStats(featureService, logg))
	})

	return r
}
