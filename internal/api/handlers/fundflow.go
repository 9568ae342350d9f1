package handlers

import (
	"net/http"

	"github.com/wonny/indexpulse/backend/internal/alert"
	"github.com/wonny/indexpulse/backend/internal/contracts"
	"github.com/wonny/indexpulse/backend/internal/ingest"
	"github.com/wonny/indexpulse/backend/pkg/logger"
)

// FundFlowHandler serves connect-program flow snapshots and history.
// ⭐ SSOT: 자금 흐름 API 핸들러는 이 구조체에서만
type FundFlowHandler struct {
	ingest *ingest.Service
	repo   *alert.Repository
	logger *logger.Logger
}

// NewFundFlowHandler creates a fund flow handler.
func NewFundFlowHandler(svc *ingest.Service, repo *alert.Repository, log *logger.Logger) *FundFlowHandler {
	return &FundFlowHandler{
		ingest: svc,
		repo:   repo,
		logger: log,
	}
}

// Realtime returns both directions of the live snapshot.
// GET /api/fund-flow/realtime
func (h *FundFlowHandler) Realtime(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.ingest.CachedFlows(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch flow snapshot")
		respondError(w, http.StatusBadGateway, "Failed to fetch fund flow data")
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

// North returns the live northbound reading.
// GET /api/fund-flow/north
func (h *FundFlowHandler) North(w http.ResponseWriter, r *http.Request) {
	h.direction(w, r, contracts.FlowNorth)
}

// South returns the live southbound reading.
// GET /api/fund-flow/south
func (h *FundFlowHandler) South(w http.ResponseWriter, r *http.Request) {
	h.direction(w, r, contracts.FlowSouth)
}

func (h *FundFlowHandler) direction(w http.ResponseWriter, r *http.Request, flowType string) {
	snapshot, err := h.ingest.CachedFlows(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch flow snapshot")
		respondError(w, http.StatusBadGateway, "Failed to fetch fund flow data")
		return
	}

	record := snapshot.North
	if flowType == contracts.FlowSouth {
		record = snapshot.South
	}
	if record == nil {
		respondError(w, http.StatusServiceUnavailable, "Flow direction currently unavailable")
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// NorthHistory returns the upstream daily northbound kline.
// GET /api/fund-flow/north/history?days=
func (h *FundFlowHandler) NorthHistory(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 20, 1, 60)

	history, err := h.ingest.NorthFlowHistory(r.Context(), days)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch north flow history")
		respondError(w, http.StatusBadGateway, "Failed to fetch north flow history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"days":    days,
		"count":   len(history),
		"history": history,
	})
}

// History returns the persisted flow history.
// GET /api/fund-flow/history?flow_type=&days=
func (h *FundFlowHandler) History(w http.ResponseWriter, r *http.Request) {
	flowType := r.URL.Query().Get("flow_type")
	if flowType == "" {
		flowType = contracts.FlowNorth
	}
	if flowType != contracts.FlowNorth && flowType != contracts.FlowSouth {
		respondError(w, http.StatusBadRequest, "flow_type must be north or south")
		return
	}
	days := queryInt(r, "days", 30, 1, 90)

	history, err := h.repo.FlowHistory(r.Context(), flowType, days)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get flow history")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve flow history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"flow_type": flowType,
		"days":      days,
		"count":     len(history),
		"history":   history,
	})
}

// Stats returns the 7-day flow aggregates.
// GET /api/fund-flow/stats
func (h *FundFlowHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.GetFlowStats(r.Context(), 7)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get flow stats")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve flow stats")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}
