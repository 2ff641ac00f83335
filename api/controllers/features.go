package controllers

import (
	"net/http"

	"github.com/helix-rec/helix-backend/api/responses"
	"github.com/helix-rec/helix-backend/internal/features"
	"github.com/helix-rec/helix-backend/pkg/logger"
)

func FeatureStats(featureService features.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		stats, err := featureService.Stats(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
