// Package jisilu fetches QDII fund premium/discount rates from the
// Jisilu tabular JSON endpoint.
package jisilu

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wonny/indexpulse/backend/internal/contracts"
	"github.com/wonny/indexpulse/backend/internal/external/coerce"
	"github.com/wonny/indexpulse/backend/pkg/config"
	"github.com/wonny/indexpulse/backend/pkg/httputil"
	"github.com/wonny/indexpulse/backend/pkg/logger"
)

// Client fetches the QDII premium table.
// ⭐ SSOT: Jisilu 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Jisilu client.
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    cfg.Sources.JisiluBaseURL,
	}
}

// qdiiResponse is the tabular payload. Cells are loosely typed: numbers
// arrive as numbers, strings, "-" placeholders or percent strings, so
// everything funnels through coerce.Float.
type qdiiResponse struct {
	Rows []struct {
		Cell map[string]json.RawMessage `json:"cell"`
	} `json:"rows"`
}

// FetchPremium fetches premium records for every tracked QDII fund.
// Funds outside the allow-list are ignored; a malformed row is logged
// and skipped.
func (c *Client) FetchPremium(ctx context.Context) ([]contracts.PremiumRecord, error) {
	url := fmt.Sprintf("%s/data/qdii/qdii_list/?___jsl=LST___t=%d&rp=25&page=1",
		c.baseURL, time.Now().UnixMilli())

	var payload qdiiResponse
	err := c.httpClient.GetJSON(ctx, url, map[string]string{
		"Referer":          "https://www.jisilu.cn/data/qdii/",
		"X-Requested-With": "XMLHttpRequest",
	}, &payload)
	if err != nil {
		return nil, fmt.Errorf("jisilu qdii request failed: %w", err)
	}

	now := time.Now()
	results := make([]contracts.PremiumRecord, 0, len(payload.Rows))
	for _, row := range payload.Rows {
		code := cellString(row.Cell, "fund_id")
		if !contracts.IsTrackedFund(code) {
			continue
		}

		record, err := parseFundCell(code, row.Cell)
		if err != nil {
			c.logger.WithFields(map[string]interface{}{
				"fund_code": code,
				"error":     err.Error(),
			}).Warn("Skipping unparseable premium row")
			continue
		}
		record.RecordedAt = now
		results = append(results, *record)
	}

	c.logger.WithField("count", len(results)).Debug("Fetched qdii premium rows")
	return results, nil
}

// parseFundCell normalizes one tabular row. The intraday NAV estimate
// wins over the official NAV when present and positive.
func parseFundCell(code string, cell map[string]json.RawMessage) (*contracts.PremiumRecord, error) {
	if code == "" {
		return nil, fmt.Errorf("row has no fund_id")
	}

	nav := cellFloat(cell, "nav")
	if estimate := cellFloat(cell, "estimate_nav"); estimate > 0 {
		nav = estimate
	}

	return &contracts.PremiumRecord{
		FundCode:     code,
		FundName:     cellString(cell, "fund_nm"),
		IndexType:    contracts.IndexTypeForFund(code),
		Price:        cellFloat(cell, "price"),
		NAV:          nav,
		NavDate:      cellString(cell, "nav_dt"),
		PremiumRate:  cellFloat(cell, "premium_rt"),
		Volume:       cellFloat(cell, "volume"),
		IncreaseRate: cellFloat(cell, "increase_rt"),
		ApplyStatus:  cellString(cell, "apply_st"),
		RedeemStatus: cellString(cell, "redeem_st"),
	}, nil
}

func cellString(cell map[string]json.RawMessage, key string) string {
	raw, ok := cell[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func cellFloat(cell map[string]json.RawMessage, key string) float64 {
	raw, ok := cell[key]
	if !ok {
		return 0
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0
	}
	return coerce.Float(v)
}
