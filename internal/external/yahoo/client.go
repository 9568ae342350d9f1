package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/wonny/indexpulse/backend/internal/contracts"
	"github.com/wonny/indexpulse/backend/internal/external/coerce"
	"github.com/wonny/indexpulse/backend/pkg/config"
	"github.com/wonny/indexpulse/backend/pkg/httputil"
	"github.com/wonny/indexpulse/backend/pkg/logger"
)

// Client fetches quotes and macro indicators from the Yahoo Finance
// chart API.
// ⭐ SSOT: Yahoo 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Yahoo chart client.
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    cfg.Sources.YahooBaseURL,
	}
}

// chartResponse mirrors the subset of the v8 chart payload we read.
// Quote construction only needs the meta block.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta chartMeta `json:"meta"`
		} `json:"result"`
		Error *chartError `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartMeta struct {
	Symbol               string  `json:"symbol"`
	ShortName            string  `json:"shortName"`
	MarketState          string  `json:"marketState"`
	RegularMarketPrice   float64 `json:"regularMarketPrice"`
	PreviousClose        float64 `json:"previousClose"`
	RegularMarketOpen    float64 `json:"regularMarketOpen"`
	RegularMarketDayHigh float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow  float64 `json:"regularMarketDayLow"`
	RegularMarketVolume  float64 `json:"regularMarketVolume"`
}

// fetchMeta fetches the chart meta block for one symbol.
func (c *Client) fetchMeta(ctx context.Context, symbol, dataRange string) (*chartMeta, error) {
	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		c.baseURL, url.PathEscape(symbol), dataRange)

	var payload chartResponse
	if err := c.httpClient.GetJSON(ctx, reqURL, nil, &payload); err != nil {
		return nil, fmt.Errorf("yahoo chart request failed for %s: %w", symbol, err)
	}

	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart error for %s: %s (%s)",
			symbol, payload.Chart.Error.Description, payload.Chart.Error.Code)
	}
	if len(payload.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo chart returned no result for %s", symbol)
	}

	return &payload.Chart.Result[0].Meta, nil
}

// FetchQuote fetches a single US index quote. Change and percent are
// derived locally from the regular price against the previous close.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*contracts.Quote, error) {
	meta, err := c.fetchMeta(ctx, symbol, "1d")
	if err != nil {
		return nil, err
	}

	current := meta.RegularMarketPrice
	prevClose := meta.PreviousClose
	change := current - prevClose
	changePercent := 0.0
	if prevClose != 0 {
		changePercent = coerce.Round(change/prevClose*100, 2)
	}

	name := meta.ShortName
	if name == "" {
		name = symbol
	}

	return &contracts.Quote{
		Name:          name,
		Price:         current,
		Change:        coerce.Round(change, 2),
		ChangePercent: changePercent,
		Open:          meta.RegularMarketOpen,
		High:          meta.RegularMarketDayHigh,
		Low:           meta.RegularMarketDayLow,
		Volume:        meta.RegularMarketVolume,
		MarketState:   meta.MarketState,
		RecordedAt:    time.Now(),
	}, nil
}

// FetchIndexQuotes fetches all Yahoo-sourced monitored subjects, keyed
// by the subject code. A failing subject is logged and skipped so one
// bad symbol never takes down the sweep.
func (c *Client) FetchIndexQuotes(ctx context.Context) (map[string]contracts.Quote, error) {
	results := make(map[string]contracts.Quote)
	for _, indexCode := range contracts.IndexOrder {
		info := contracts.IndexMapping[indexCode]
		if info.YahooCode == "" {
			continue
		}

		quote, err := c.FetchQuote(ctx, info.YahooCode)
		if err != nil {
			c.logger.WithFields(map[string]interface{}{
				"index_code": indexCode,
				"symbol":     info.YahooCode,
				"error":      err.Error(),
			}).Warn("Skipping failed yahoo quote")
			continue
		}
		quote.IndexCode = indexCode
		results[indexCode] = *quote
	}
	return results, nil
}
