package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/indexpulse/backend/internal/alert"
	"github.com/wonny/indexpulse/backend/internal/contracts"
	"github.com/wonny/indexpulse/backend/internal/ingest"
	"github.com/wonny/indexpulse/backend/pkg/logger"
)

// IndicesHandler serves index quote snapshots and history.
// ⭐ SSOT: 지수 API 핸들러는 이 구조체에서만
type IndicesHandler struct {
	ingest *ingest.Service
	repo   *alert.Repository
	logger *logger.Logger
}

// NewIndicesHandler creates an indices handler.
func NewIndicesHandler(svc *ingest.Service, repo *alert.Repository, log *logger.Logger) *IndicesHandler {
	return &IndicesHandler{
		ingest: svc,
		repo:   repo,
		logger: log,
	}
}

// Snapshot returns the live quote per subject, in canonical order.
// GET /api/indices
func (h *IndicesHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.ingest.CachedIndices(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch index snapshot")
		respondError(w, http.StatusBadGateway, "Failed to fetch index data")
		return
	}

	indices := make([]contracts.Quote, 0, len(quotes))
	for _, code := range contracts.IndexOrder {
		if q, ok := quotes[code]; ok {
			indices = append(indices, q)
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":      len(indices),
		"indices":    indices,
		"updated_at": time.Now(),
	})
}

// Detail returns one subject's live quote.
// GET /api/indices/{code}
func (h *IndicesHandler) Detail(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if _, ok := contracts.IndexMapping[code]; !ok {
		respondError(w, http.StatusNotFound, "Unknown index code")
		return
	}

	quotes, err := h.ingest.CachedIndices(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch index snapshot")
		respondError(w, http.StatusBadGateway, "Failed to fetch index data")
		return
	}

	quote, ok := quotes[code]
	if !ok {
		respondError(w, http.StatusServiceUnavailable, "Index quote currently unavailable")
		return
	}

	respondJSON(w, http.StatusOK, quote)
}

// History returns one subject's persisted quote history.
// GET /api/indices/{code}/history?days=
func (h *IndicesHandler) History(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if _, ok := contracts.IndexMapping[code]; !ok {
		respondError(w, http.StatusNotFound, "Unknown index code")
		return
	}
	days := queryInt(r, "days", 30, 1, 90)

	history, err := h.repo.IndexHistory(r.Context(), code, days)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get index history")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve index history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"index_code": code,
		"index_name": contracts.IndexMapping[code].Name,
		"days":       days,
		"count":      len(history),
		"history":    history,
	})
}

// Mapping returns the monitored subject configuration.
// GET /api/indices/config/mapping
func (h *IndicesHandler) Mapping(w http.ResponseWriter, r *http.Request) {
	subjects := make([]map[string]interface{}, 0, len(contracts.IndexOrder))
	for _, code := range contracts.IndexOrder {
		info := contracts.IndexMapping[code]
		subjects = append(subjects, map[string]interface{}{
			"index_code": code,
			"name":       info.Name,
			"sina_code":  info.SinaCode,
			"yahoo_code": info.YahooCode,
			"funds":      contracts.TrackedFunds[code],
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(subjects),
		"indices": subjects,
	})
}
