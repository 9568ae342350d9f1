package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/indexpulse/backend/internal/alert"
	"github.com/wonny/indexpulse/backend/internal/contracts"
	"github.com/wonny/indexpulse/backend/internal/ingest"
	"github.com/wonny/indexpulse/backend/pkg/logger"
)

// PremiumHandler serves QDII premium snapshots, history and stats.
// ⭐ SSOT: 프리미엄 API 핸들러는 이 구조체에서만
type PremiumHandler struct {
	ingest *ingest.Service
	repo   *alert.Repository
	logger *logger.Logger
}

// NewPremiumHandler creates a premium handler.
func NewPremiumHandler(svc *ingest.Service, repo *alert.Repository, log *logger.Logger) *PremiumHandler {
	return &PremiumHandler{
		ingest: svc,
		repo:   repo,
		logger: log,
	}
}

type premiumGroup struct {
	IndexType string                    `json:"index_type"`
	IndexName string                    `json:"index_name"`
	Funds     []contracts.PremiumRecord `json:"funds"`
}

// Snapshot returns the live premium table grouped by index family.
// GET /api/premium?index_type=
func (h *PremiumHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	indexType := r.URL.Query().Get("index_type")

	records, err := h.ingest.CachedPremium(r.Context(), indexType)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch premium snapshot")
		respondError(w, http.StatusBadGateway, "Failed to fetch premium data")
		return
	}

	byType := make(map[string][]contracts.PremiumRecord)
	for _, rec := range records {
		byType[rec.IndexType] = append(byType[rec.IndexType], rec)
	}

	groups := make([]premiumGroup, 0, len(byType))
	for _, code := range contracts.TrackedFundOrder {
		funds, ok := byType[code]
		if !ok {
			continue
		}
		groups = append(groups, premiumGroup{
			IndexType: code,
			IndexName: contracts.IndexMapping[code].Name,
			Funds:     funds,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"index_type": indexType,
		"count":      len(records),
		"groups":     groups,
		"updated_at": time.Now(),
	})
}

// History returns one fund's persisted premium history.
// GET /api/premium/history/{fundCode}?days=
func (h *PremiumHandler) History(w http.ResponseWriter, r *http.Request) {
	fundCode := mux.Vars(r)["fundCode"]
	if !contracts.IsTrackedFund(fundCode) {
		respondError(w, http.StatusNotFound, "Unknown fund code")
		return
	}
	days := queryInt(r, "days", 30, 1, 90)

	history, err := h.repo.PremiumHistory(r.Context(), fundCode, days)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get premium history")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve premium history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"fund_code":  fundCode,
		"index_type": contracts.IndexTypeForFund(fundCode),
		"days":       days,
		"count":      len(history),
		"history":    history,
	})
}

// Stats returns the current high-premium and discount leaders.
// GET /api/premium/stats
func (h *PremiumHandler) Stats(w http.ResponseWriter, r *http.Request) {
	records, err := h.ingest.CachedPremium(r.Context(), "")
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch premium snapshot")
		respondError(w, http.StatusBadGateway, "Failed to fetch premium data")
		return
	}

	var high, discount []contracts.PremiumRecord
	for _, rec := range records {
		switch {
		case rec.PremiumRate > 1.5:
			high = append(high, rec)
		case rec.PremiumRate < -1:
			discount = append(discount, rec)
		}
	}
	sort.Slice(high, func(i, j int) bool { return high[i].PremiumRate > high[j].PremiumRate })
	sort.Slice(discount, func(i, j int) bool { return discount[i].PremiumRate < discount[j].PremiumRate })

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"total":        len(records),
		"high_premium": high,
		"discount":     discount,
	})
}

// TrackedFunds returns the static fund mapping.
// GET /api/premium/tracked-funds
func (h *PremiumHandler) TrackedFunds(w http.ResponseWriter, r *http.Request) {
	groups := make([]map[string]interface{}, 0, len(contracts.TrackedFundOrder))
	total := 0
	for _, code := range contracts.TrackedFundOrder {
		funds := contracts.TrackedFunds[code]
		total += len(funds)
		groups = append(groups, map[string]interface{}{
			"index_type": code,
			"index_name": contracts.IndexMapping[code].Name,
			"funds":      funds,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"total":  total,
		"groups": groups,
	})
}
