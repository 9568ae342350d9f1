package handlers

import (
	"net/http"

	"github.com/wonny/indexpulse/backend/internal/ingest"
	"github.com/wonny/indexpulse/backend/pkg/logger"
)

// MarketHandler serves the macro indicator bundle.
// ⭐ SSOT: 시장 지표 API 핸들러는 이 구조체에서만
type MarketHandler struct {
	ingest *ingest.Service
	logger *logger.Logger
}

// NewMarketHandler creates a market indicators handler.
func NewMarketHandler(svc *ingest.Service, log *logger.Logger) *MarketHandler {
	return &MarketHandler{
		ingest: svc,
		logger: log,
	}
}

// All returns the full indicator bundle.
// GET /api/market
func (h *MarketHandler) All(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.ingest.CachedIndicators(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch market indicators")
		respondError(w, http.StatusBadGateway, "Failed to fetch market indicators")
		return
	}

	respondJSON(w, http.StatusOK, bundle)
}

// VIX returns the volatility index reading.
// GET /api/market/vix
func (h *MarketHandler) VIX(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.ingest.CachedIndicators(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "Failed to fetch market indicators")
		return
	}
	if bundle.VIX == nil {
		respondError(w, http.StatusServiceUnavailable, "VIX currently unavailable")
		return
	}
	respondJSON(w, http.StatusOK, bundle.VIX)
}

// DXY returns the dollar index reading.
// GET /api/market/dxy
func (h *MarketHandler) DXY(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.ingest.CachedIndicators(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "Failed to fetch market indicators")
		return
	}
	if bundle.DXY == nil {
		respondError(w, http.StatusServiceUnavailable, "DXY currently unavailable")
		return
	}
	respondJSON(w, http.StatusOK, bundle.DXY)
}

// Treasury returns the yield curve points plus the 10Y-2Y spread.
// GET /api/market/treasury
func (h *MarketHandler) Treasury(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.ingest.CachedIndicators(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "Failed to fetch market indicators")
		return
	}
	if bundle.Treasury10Y == nil && bundle.Treasury2Y == nil {
		respondError(w, http.StatusServiceUnavailable, "Treasury yields currently unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"treasury_10y": bundle.Treasury10Y,
		"treasury_2y":  bundle.Treasury2Y,
		"yield_curve":  bundle.YieldCurve,
	})
}

// Sentiment returns the fear/greed ladder reading.
// GET /api/market/sentiment
func (h *MarketHandler) Sentiment(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.ingest.CachedIndicators(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "Failed to fetch market indicators")
		return
	}
	if bundle.FearGreed == nil {
		respondError(w, http.StatusServiceUnavailable, "Sentiment currently unavailable")
		return
	}
	respondJSON(w, http.StatusOK, bundle.FearGreed)
}
