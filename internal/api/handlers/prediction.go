package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/indexpulse/backend/internal/contracts"
	"github.com/wonny/indexpulse/backend/internal/forecast"
	"github.com/wonny/indexpulse/backend/pkg/logger"
)

// PredictionHandler serves the 48-hour forecasts.
// ⭐ SSOT: 예측 API 핸들러는 이 구조체에서만
type PredictionHandler struct {
	repo      *forecast.Repository
	predictor *forecast.Predictor
	evaluator *forecast.Evaluator
	logger    *logger.Logger
}

// NewPredictionHandler creates a prediction handler.
func NewPredictionHandler(repo *forecast.Repository, predictor *forecast.Predictor, evaluator *forecast.Evaluator, log *logger.Logger) *PredictionHandler {
	return &PredictionHandler{
		repo:      repo,
		predictor: predictor,
		evaluator: evaluator,
		logger:    log,
	}
}

// All returns the latest unexpired prediction per subject.
// GET /api/prediction
func (h *PredictionHandler) All(w http.ResponseWriter, r *http.Request) {
	predictions, err := h.repo.AllLatest(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get predictions")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve predictions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":       len(predictions),
		"predictions": predictions,
	})
}

// ByCode returns one subject's unexpired prediction.
// GET /api/prediction/{code}
func (h *PredictionHandler) ByCode(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if _, ok := contracts.IndexMapping[code]; !ok {
		respondError(w, http.StatusNotFound, "Unknown index code")
		return
	}

	prediction, err := h.repo.LatestFor(r.Context(), code)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get prediction")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve prediction")
		return
	}
	if prediction == nil {
		respondError(w, http.StatusNotFound, "No prediction data")
		return
	}

	respondJSON(w, http.StatusOK, prediction)
}

// Refresh recomputes every subject's prediction synchronously.
// POST /api/prediction/refresh
func (h *PredictionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	predictions, err := h.predictor.GenerateAll(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Prediction refresh failed")
		respondError(w, http.StatusInternalServerError, "Failed to generate predictions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "success",
		"count":       len(predictions),
		"predictions": predictions,
	})
}

// Accuracy settles recently expired predictions against the realized
// moves and reports hit rate and error stats.
// GET /api/prediction/accuracy?days=
func (h *PredictionHandler) Accuracy(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 7, 1, 90)

	evaluations, err := h.evaluator.EvaluateRecent(r.Context(), days)
	if err != nil {
		h.logger.WithError(err).Error("Prediction evaluation failed")
		respondError(w, http.StatusInternalServerError, "Failed to evaluate predictions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"days":        days,
		"count":       len(evaluations),
		"overall":     h.evaluator.Accuracy(evaluations),
		"by_subject":  h.evaluator.AccuracyBySubject(evaluations),
		"evaluations": evaluations,
	})
}
