package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/helix-rec/helix-backend/api/responses"
	"github.com/helix-rec/helix-backend/api/validators"
	"github.com/helix-rec/helix-backend/internal/serving"
	pkgerrors "github.com/helix-rec/helix-backend/pkg/errors"
	"github.com/helix-rec/helix-backend/pkg/logger"
)

const maxTopK = 100

func UserRecommendations(servingService serving.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID := strings.TrimSpace(chi.URLParam(r, "userId"))
		if userID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "user id is required"))
			return
		}
		ctx = logg.WithUserID(ctx, userID)

		topK, err := validators.ParseQueryInt(r, "top_k", 0, 1, maxTopK)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		prediction, err := servingService.Predict(ctx, userID, topK)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, prediction)
	}
}
