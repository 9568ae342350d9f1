package handlers

import (
	"net/http"

	"github.com/wonny/indexpulse/backend/internal/ingest"
	"github.com/wonny/indexpulse/backend/pkg/logger"
)

// CatalogHandler serves the scraped ETF catalog.
// ⭐ SSOT: 카탈로그 API 핸들러는 이 구조체에서만
type CatalogHandler struct {
	ingest *ingest.Service
	repo   *ingest.CatalogRepository
	logger *logger.Logger
}

// NewCatalogHandler creates a catalog handler.
func NewCatalogHandler(svc *ingest.Service, repo *ingest.CatalogRepository, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		ingest: svc,
		repo:   repo,
		logger: log,
	}
}

// List returns the persisted catalog rows.
// GET /api/catalog
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	funds, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list catalog")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve catalog")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(funds),
		"funds": funds,
	})
}

// Sync re-scrapes every tracked fund's profile page and upserts the
// results.
// POST /api/catalog/sync
func (h *CatalogHandler) Sync(w http.ResponseWriter, r *http.Request) {
	synced, err := h.ingest.SyncCatalog(r.Context(), h.repo)
	if err != nil {
		h.logger.WithError(err).Error("Catalog sync failed")
		respondError(w, http.StatusBadGateway, "Failed to sync catalog")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"synced": synced,
	})
}
