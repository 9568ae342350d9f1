package eastmoney

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/indexpulse/backend/internal/contracts"
	"github.com/wonny/indexpulse/backend/internal/external/coerce"
)

// sentimentResponse carries the Shanghai Composite snapshot. f170 is
// the day change in percent scaled by 100.
type sentimentResponse struct {
	Data *struct {
		F170 float64 `json:"f170"`
	} `json:"data"`
}

// FetchSentiment derives the 0-100 market sentiment ladder from the
// Shanghai Composite day change.
func (c *Client) FetchSentiment(ctx context.Context) (*contracts.SentimentIndicator, error) {
	url := fmt.Sprintf("%s/api/qt/stock/get?secid=1.000001"+
		"&fields=f43,f44,f45,f46,f47,f169,f170,f171", c.baseURL)

	var payload sentimentResponse
	if err := c.httpClient.GetJSON(ctx, url, c.headers(), &payload); err != nil {
		return nil, fmt.Errorf("sentiment request failed: %w", err)
	}
	if payload.Data == nil {
		return nil, fmt.Errorf("sentiment response has no data block")
	}

	changePercent := payload.Data.F170 / 100

	var score int
	var level, description string
	switch {
	case changePercent > 2:
		score, level, description = 80, "extreme_greed", "极度贪婪"
	case changePercent > 1:
		score, level, description = 65, "greed", "贪婪"
	case changePercent > 0:
		score, level, description = 55, "neutral", "中性偏多"
	case changePercent > -1:
		score, level, description = 45, "neutral", "中性偏空"
	case changePercent > -2:
		score, level, description = 35, "fear", "恐惧"
	default:
		score, level, description = 20, "extreme_fear", "极度恐惧"
	}

	return &contracts.SentimentIndicator{
		Score:        score,
		Level:        level,
		Description:  description,
		MarketChange: coerce.Round(changePercent, 2),
		UpdatedAt:    time.Now(),
	}, nil
}
