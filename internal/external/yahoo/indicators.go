package yahoo

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/indexpulse/backend/internal/contracts"
	"github.com/wonny/indexpulse/backend/internal/external/coerce"
)

// 매크로 지표 심볼. 2Y는 ^IRX(13주 단기물)를 프록시로 씀
var treasurySymbols = map[string]string{
	"2Y":  "^IRX",
	"5Y":  "^FVX",
	"10Y": "^TNX",
	"30Y": "^TYX",
}

// FetchVIX fetches the volatility index and classifies its level.
func (c *Client) FetchVIX(ctx context.Context) (*contracts.VIXIndicator, error) {
	meta, err := c.fetchMeta(ctx, "^VIX", "5d")
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

	var level, sentiment string
	switch {
	case current < 15:
		level, sentiment = "low", "贪婪"
	case current < 20:
		level, sentiment = "normal", "平稳"
	case current < 30:
		level, sentiment = "elevated", "谨慎"
	default:
		level, sentiment = "high", "恐慌"
	}

	return &contracts.VIXIndicator{
		Value:         coerce.Round(current, 2),
		Change:        coerce.Round(change, 2),
		ChangePercent: changePercent,
		PreviousClose: coerce.Round(prevClose, 2),
		Level:         level,
		Sentiment:     sentiment,
		UpdatedAt:     time.Now(),
	}, nil
}

// FetchDXY fetches the dollar index and classifies its trend.
func (c *Client) FetchDXY(ctx context.Context) (*contracts.DXYIndicator, error) {
	meta, err := c.fetchMeta(ctx, "DX-Y.NYB", "5d")
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

	var trend, description string
	switch {
	case current > 105:
		trend, description = "strong", "美元走强"
	case current > 100:
		trend, description = "neutral", "美元平稳"
	default:
		trend, description = "weak", "美元走弱"
	}

	return &contracts.DXYIndicator{
		Value:         coerce.Round(current, 3),
		Change:        coerce.Round(change, 3),
		ChangePercent: changePercent,
		PreviousClose: coerce.Round(prevClose, 3),
		Trend:         trend,
		Description:   description,
		UpdatedAt:     time.Now(),
	}, nil
}

// FetchTreasuryYield fetches one treasury yield curve point. Yahoo
// reports the bond symbols scaled by 10, except the short-rate proxy.
func (c *Client) FetchTreasuryYield(ctx context.Context, maturity string) (*contracts.TreasuryYield, error) {
	symbol, ok := treasurySymbols[maturity]
	if !ok {
		return nil, fmt.Errorf("unsupported treasury maturity %q", maturity)
	}

	meta, err := c.fetchMeta(ctx, symbol, "5d")
	if err != nil {
		return nil, err
	}

	current := meta.RegularMarketPrice
	prevClose := meta.PreviousClose
	if maturity != "2Y" {
		current /= 10
		prevClose /= 10
	}

	return &contracts.TreasuryYield{
		Maturity:      maturity,
		Yield:         coerce.Round(current, 3),
		Change:        coerce.Round(current-prevClose, 3),
		PreviousClose: coerce.Round(prevClose, 3),
		UpdatedAt:     time.Now(),
	}, nil
}

// BuildYieldCurve derives the 10Y-2Y spread from two fetched points.
func BuildYieldCurve(long, short *contracts.TreasuryYield) *contracts.YieldCurve {
	if long == nil || short == nil {
		return nil
	}

	spread := coerce.Round(long.Yield-short.Yield, 3)
	description := "收益率曲线正常"
	if spread < 0 {
		description = "收益率曲线倒挂"
	}
	return &contracts.YieldCurve{
		Spread:      spread,
		Inverted:    spread < 0,
		Description: description,
	}
}
