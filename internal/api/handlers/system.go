package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/indexpulse/backend/internal/contracts"
	"github.com/wonny/indexpulse/backend/internal/scheduler"
	"github.com/wonny/indexpulse/backend/pkg/config"
	"github.com/wonny/indexpulse/backend/pkg/logger"
)

// SystemHandler serves the banner, health and scheduler control routes.
// ⭐ SSOT: 시스템 API 핸들러는 이 구조체에서만
type SystemHandler struct {
	config    *config.Config
	scheduler *scheduler.Scheduler
	version   string
	startedAt time.Time
	logger    *logger.Logger
}

// NewSystemHandler creates a system handler.
func NewSystemHandler(cfg *config.Config, sched *scheduler.Scheduler, version string, log *logger.Logger) *SystemHandler {
	return &SystemHandler{
		config:    cfg,
		scheduler: sched,
		version:   version,
		startedAt: time.Now(),
		logger:    log,
	}
}

// Banner returns the service front page.
// GET /
func (h *SystemHandler) Banner(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "IndexPulse API",
		"version": h.version,
		"docs":    "/api/status",
	})
}

// Health returns liveness plus the scheduler state.
// GET /api/health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ok",
		"scheduler_running": h.scheduler.Running(),
		"uptime":            time.Since(h.startedAt).String(),
		"time":              time.Now(),
	})
}

// Status returns the full operational snapshot.
// GET /api/status
func (h *SystemHandler) Status(w http.ResponseWriter, r *http.Request) {
	indices := make([]map[string]string, 0, len(contracts.IndexOrder))
	for _, code := range contracts.IndexOrder {
		indices = append(indices, map[string]string{
			"index_code": code,
			"name":       contracts.IndexMapping[code].Name,
		})
	}

	fundCounts := make(map[string]int, len(contracts.TrackedFunds))
	for code, funds := range contracts.TrackedFunds {
		fundCounts[code] = len(funds)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "IndexPulse",
		"version": h.version,
		"env":     h.config.Env,
		"scheduler": map[string]interface{}{
			"running": h.scheduler.Running(),
			"jobs":    h.scheduler.GetJobStats(),
		},
		"monitored_indices": indices,
		"tracked_funds":     fundCounts,
		"market_sessions":   contracts.MarketSessions(time.Now()),
	})
}

// jobAliases maps the short route names onto the registered job names.
var jobAliases = map[string]string{
	"indices":   "update_indices",
	"premium":   "update_premium",
	"fund_flow": "update_fund_flow",
}

// Trigger runs one job synchronously.
// POST /api/trigger/{jobName}
func (h *SystemHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	jobName := mux.Vars(r)["jobName"]
	if full, ok := jobAliases[jobName]; ok {
		jobName = full
	}

	start := time.Now()
	err := h.scheduler.Trigger(jobName)
	switch {
	case errors.Is(err, scheduler.ErrJobNotFound):
		respondError(w, http.StatusNotFound, "Unknown job")
		return
	case errors.Is(err, scheduler.ErrJobRunning):
		respondError(w, http.StatusConflict, "Job already running")
		return
	case err != nil:
		h.logger.WithError(err).WithField("job", jobName).Error("Manual trigger failed")
		respondJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"status": "failed",
			"job":    jobName,
			"error":  err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "success",
		"job":      jobName,
		"duration": time.Since(start).String(),
	})
}

// SchedulerStatus returns the job table.
// GET /api/scheduler/status
func (h *SystemHandler) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"running": h.scheduler.Running(),
		"jobs":    h.scheduler.GetJobStats(),
	})
}

// SchedulerStart starts the scheduler. Idempotent.
// POST /api/scheduler/start
func (h *SystemHandler) SchedulerStart(w http.ResponseWriter, r *http.Request) {
	h.scheduler.Start()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"running": true,
	})
}

// SchedulerStop stops the scheduler. Idempotent.
// POST /api/scheduler/stop
func (h *SystemHandler) SchedulerStop(w http.ResponseWriter, r *http.Request) {
	h.scheduler.Stop()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"running": false,
	})
}
