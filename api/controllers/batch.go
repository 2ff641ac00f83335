package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/helix-rec/helix-backend/api/responses"
	"github.com/helix-rec/helix-backend/api/validators"
	"github.com/helix-rec/helix-backend/internal/serving"
	pkgerrors "github.com/helix-rec/helix-backend/pkg/errors"
	"github.com/helix-rec/helix-backend/pkg/logger"
)

type batchInferenceRequest struct {
	CustomerIDs []string `json:"customer_ids" validate:"required,min=1,max=10000,dive,required"`
}

func BatchInference(servingService serving.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req batchInferenceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		report, err := servingService.PredictBatch(ctx, req.CustomerIDs)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

func BatchFailures(servingService serving.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		runID, err := uuid.Parse(chi.URLParam(r, "runId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "run id must be a uuid"))
			return
		}

		customerIDs, err := servingService.FailedCustomers(ctx, runID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"run_id":       runID,
			"customer_ids": customerIDs,
		})
	}
}
