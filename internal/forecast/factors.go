package forecast

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/indexpulse/backend/internal/contracts"
)

// FactorInput is everything one subject's scoring pass reads: the live
// snapshot plus the recent history slices the repository fetched.
type FactorInput struct {
	IndexCode string
	IndexName string

	Quote       *contracts.Quote            // live quote, nil when the feed failed
	TrendQuotes []contracts.Quote           // last 7 days, ascending
	NorthFlows  []contracts.FlowRecord      // last 10 north rows within 3 days
	Premiums    []contracts.PremiumRecord   // all premium rows within 24 h
	Indicators  *contracts.MarketIndicators // may be nil
}

// 요소별 가중치. 합산 전에 각 요소 점수에 곱함
const (
	weightTrend    = 0.30
	weightFlow     = 0.25
	weightPremium  = 0.20
	weightMomentum = 0.15
	weightVIX      = 0.15
	weightDXY      = 0.10
	weightTreasury = 0.10
)

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// analyzeTrend scores the 7-day first-vs-last price move.
func analyzeTrend(input FactorInput) (float64, *contracts.PredictionFactor) {
	if len(input.TrendQuotes) < 2 {
		return 0, nil
	}

	first := input.TrendQuotes[0].Price
	last := input.TrendQuotes[len(input.TrendQuotes)-1].Price
	if first <= 0 {
		return 0, nil
	}

	changePct := (last - first) / first * 100
	score := clamp(changePct*10, -30, 30)

	if changePct > 0.5 || changePct < -0.5 {
		direction, impact := "上涨", contracts.ImpactPositive
		if changePct <= 0 {
			direction, impact = "下跌", contracts.ImpactNegative
		}
		return score, &contracts.PredictionFactor{
			Type:   "trend",
			Label:  "近期趋势" + direction,
			Value:  fmt.Sprintf("%+.2f%%", changePct),
			Impact: impact,
		}
	}
	return score, nil
}

// analyzeFlow scores the recent northbound flow average. Only called
// for the A-share subjects.
func analyzeFlow(input FactorInput) (float64, *contracts.PredictionFactor) {
	if len(input.NorthFlows) == 0 {
		return 0, nil
	}

	totals := make([]float64, len(input.NorthFlows))
	for i, rec := range input.NorthFlows {
		totals[i] = rec.Total
	}
	avg := stat.Mean(totals, nil)

	score := clamp(avg*2, -25, 25)

	if avg > 5 || avg < -5 {
		direction, impact := "净流入", contracts.ImpactPositive
		if avg <= 0 {
			direction, impact = "净流出", contracts.ImpactNegative
		}
		return score, &contracts.PredictionFactor{
			Type:   "fund_flow",
			Label:  "北向资金" + direction,
			Value:  fmt.Sprintf("%+.1f亿", avg),
			Impact: impact,
		}
	}
	return score, nil
}

// analyzePremium scores the 24 h premium average inversely: a hot
// premium signals pullback risk, a discount leaves room to rebound.
// The average counts every row in the denominator but only nonzero
// rates in the numerator.
func analyzePremium(input FactorInput) (float64, *contracts.PredictionFactor) {
	if !contracts.HasPremiumFunds(input.IndexCode) {
		return 0, nil
	}
	if len(input.Premiums) == 0 {
		return 0, nil
	}

	rates := make([]float64, 0, len(input.Premiums))
	for _, rec := range input.Premiums {
		if rec.PremiumRate != 0 {
			rates = append(rates, rec.PremiumRate)
		}
	}
	avg := floats.Sum(rates) / float64(len(input.Premiums))

	score := clamp(-avg*5, -20, 20)

	if avg > 1 || avg < -1 {
		status := "高溢价"
		if avg <= 0 {
			status = "折价"
		}
		impact := contracts.ImpactNeutral
		if avg > 2 {
			impact = contracts.ImpactNegative
		} else if avg < -1 {
			impact = contracts.ImpactPositive
		}
		return score, &contracts.PredictionFactor{
			Type:   "premium",
			Label:  "QDII" + status,
			Value:  fmt.Sprintf("%+.2f%%", avg),
			Impact: impact,
		}
	}
	return score, nil
}

// analyzeMomentum scores the live quote's day change continuation.
func analyzeMomentum(input FactorInput) (float64, *contracts.PredictionFactor) {
	if input.Quote == nil {
		return 0, nil
	}

	changePct := input.Quote.ChangePercent
	score := clamp(changePct*8, -25, 25)

	if changePct > 0.5 || changePct < -0.5 {
		direction, impact := "上涨", contracts.ImpactPositive
		if changePct <= 0 {
			direction, impact = "下跌", contracts.ImpactNegative
		}
		return score, &contracts.PredictionFactor{
			Type:   "momentum",
			Label:  "今日" + direction + "动量",
			Value:  fmt.Sprintf("%+.2f%%", changePct),
			Impact: impact,
		}
	}
	return score, nil
}

// analyzeVIX scores the volatility ladder. Extreme highs read as
// oversold (positive), mild elevation as caution, extreme lows as
// complacency. Only called for the US subjects.
func analyzeVIX(input FactorInput) (float64, *contracts.PredictionFactor) {
	if input.Indicators == nil || input.Indicators.VIX == nil {
		return 0, nil
	}
	vix := input.Indicators.VIX

	var score float64
	var label, impact string
	switch {
	case vix.Value > 30:
		score, label, impact = 15, "VIX极高(超卖)", contracts.ImpactPositive
	case vix.Value > 25:
		score, label, impact = -10, "VIX偏高(恐慌)", contracts.ImpactNegative
	case vix.Value > 20:
		score, label, impact = -5, "VIX升高(谨慎)", contracts.ImpactNegative
	case vix.Value < 12:
		score, label, impact = -10, "VIX极低(自满)", contracts.ImpactNegative
	default:
		score, label, impact = 5, "VIX正常", contracts.ImpactPositive
	}

	// 급변하는 VIX는 수준 자체만큼 중요함
	if vix.ChangePercent > 10 {
		score -= 10
	} else if vix.ChangePercent < -10 {
		score += 10
	}

	return score, &contracts.PredictionFactor{
		Type:   "vix",
		Label:  label,
		Value:  fmt.Sprintf("%.1f", vix.Value),
		Impact: impact,
	}
}

// analyzeDXY scores dollar strength per market: US subjects feel it
// hardest, Hong Kong next, A-shares least.
func analyzeDXY(input FactorInput) (float64, *contracts.PredictionFactor) {
	if input.Indicators == nil || input.Indicators.DXY == nil {
		return 0, nil
	}
	dxy := input.Indicators.DXY
	changePct := dxy.ChangePercent

	if changePct <= 0.5 && changePct >= -0.5 {
		return 0, nil
	}

	magnitude := 5.0
	switch {
	case contracts.IsUSIndex(input.IndexCode):
		magnitude = 10
	case contracts.IsHKIndex(input.IndexCode):
		magnitude = 8
	}

	score, label, impact := magnitude, "美元走弱", contracts.ImpactPositive
	if changePct > 0 {
		score, label, impact = -magnitude, "美元走强", contracts.ImpactNegative
	}

	return score, &contracts.PredictionFactor{
		Type:   "dxy",
		Label:  label,
		Value:  fmt.Sprintf("%.2f", dxy.Value),
		Impact: impact,
	}
}

// analyzeTreasury scores the 10Y yield move plus the curve inversion.
// Both can contribute to the score, but only the first populated
// factor is surfaced. Only called for the US subjects.
func analyzeTreasury(input FactorInput) (float64, *contracts.PredictionFactor) {
	if input.Indicators == nil || input.Indicators.Treasury10Y == nil {
		return 0, nil
	}
	treasury := input.Indicators.Treasury10Y
	curve := input.Indicators.YieldCurve

	var score float64
	var factors []contracts.PredictionFactor

	if treasury.Change > 0.05 {
		score -= 15
		factors = append(factors, contracts.PredictionFactor{
			Type:   "treasury",
			Label:  "10Y收益率上升",
			Value:  fmt.Sprintf("%.2f%%", treasury.Yield),
			Impact: contracts.ImpactNegative,
		})
	} else if treasury.Change < -0.05 {
		score += 10
		factors = append(factors, contracts.PredictionFactor{
			Type:   "treasury",
			Label:  "10Y收益率下降",
			Value:  fmt.Sprintf("%.2f%%", treasury.Yield),
			Impact: contracts.ImpactPositive,
		})
	}

	if curve != nil && curve.Inverted {
		score -= 10
		factors = append(factors, contracts.PredictionFactor{
			Type:   "yield_curve",
			Label:  "收益率曲线倒挂",
			Value:  fmt.Sprintf("%.2f%%", curve.Spread),
			Impact: contracts.ImpactNegative,
		})
	}

	if len(factors) == 0 {
		return 0, nil
	}
	return score, &factors[0]
}
