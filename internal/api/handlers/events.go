package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/indexpulse/backend/internal/alert"
	"github.com/wonny/indexpulse/backend/pkg/logger"
)

// EventsHandler serves the persisted alert events.
// ⭐ SSOT: 이벤트 API 핸들러는 이 구조체에서만
type EventsHandler struct {
	repo   *alert.Repository
	logger *logger.Logger
}

// NewEventsHandler creates an events handler.
func NewEventsHandler(repo *alert.Repository, log *logger.Logger) *EventsHandler {
	return &EventsHandler{
		repo:   repo,
		logger: log,
	}
}

// List returns recent events, newest first.
// GET /api/events?limit&offset&event_type&target_index&min_importance
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := alert.EventFilter{
		Limit:         queryInt(r, "limit", 50, 1, 200),
		Offset:        queryInt(r, "offset", 0, 0, 1<<30),
		EventType:     r.URL.Query().Get("event_type"),
		TargetIndex:   r.URL.Query().Get("target_index"),
		MinImportance: queryInt(r, "min_importance", 1, 1, 5),
	}

	events, total, err := h.repo.ListEvents(r.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list events")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve events")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// Get returns one event by id.
// GET /api/events/{id}
func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid event id")
		return
	}

	event, err := h.repo.GetEvent(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get event")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve event")
		return
	}
	if event == nil {
		respondError(w, http.StatusNotFound, "Event not found")
		return
	}

	respondJSON(w, http.StatusOK, event)
}

// StatsSummary returns 24 h event counts grouped by type and subject.
// GET /api/events/stats/summary
func (h *EventsHandler) StatsSummary(w http.ResponseWriter, r *http.Request) {
	since := time.Now().Add(-24 * time.Hour)

	stats, err := h.repo.GetEventStats(r.Context(), since)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get event stats")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve event stats")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"since":     since,
		"total":     stats.Total,
		"by_type":   stats.ByType,
		"by_target": stats.ByTarget,
	})
}
