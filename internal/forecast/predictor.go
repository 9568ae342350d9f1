package forecast

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/indexpulse/backend/internal/contracts"
	"github.com/wonny/indexpulse/backend/internal/external/coerce"
	"github.com/wonny/indexpulse/backend/pkg/logger"
	"github.com/wonny/indexpulse/backend/pkg/metrics"
)

// MarketSource provides the live snapshots the scoring pass reads.
// Satisfied by the ingest service.
type MarketSource interface {
	Indices(ctx context.Context) (map[string]contracts.Quote, error)
	Indicators(ctx context.Context) (*contracts.MarketIndicators, error)
}

// Predictor generates the 48-hour directional forecasts.
// ⭐ SSOT: 예측 생성은 여기서만
type Predictor struct {
	repo    *Repository
	source  MarketSource
	logger  *logger.Logger
	metrics *metrics.Recorder
	horizon time.Duration
}

// NewPredictor creates a predictor with the given validity horizon.
func NewPredictor(repo *Repository, source MarketSource, log *logger.Logger, rec *metrics.Recorder, horizon time.Duration) *Predictor {
	if horizon <= 0 {
		horizon = 48 * time.Hour
	}
	return &Predictor{
		repo:    repo,
		source:  source,
		logger:  log.WithComponent("predictor"),
		metrics: rec,
		horizon: horizon,
	}
}

// GenerateAll produces and persists one prediction per tracked subject.
// A per-subject failure is logged and skipped; the other subjects
// still get their prediction.
func (p *Predictor) GenerateAll(ctx context.Context) ([]contracts.Prediction, error) {
	quotes, err := p.source.Indices(ctx)
	if err != nil {
		// 히스토리 기반 요소만으로도 예측은 가능함
		p.logger.WithError(err).Warn("Live quotes unavailable, predicting from history only")
		quotes = map[string]contracts.Quote{}
	}

	indicators, err := p.source.Indicators(ctx)
	if err != nil {
		p.logger.WithError(err).Warn("Market indicators unavailable")
		indicators = nil
	}

	predictions := make([]contracts.Prediction, 0, len(contracts.IndexOrder))
	for _, indexCode := range contracts.IndexOrder {
		var quote *contracts.Quote
		if q, ok := quotes[indexCode]; ok {
			quote = &q
		}

		prediction, err := p.generateOne(ctx, indexCode, quote, indicators)
		if err != nil {
			p.logger.WithFields(map[string]interface{}{
				"index_code": indexCode,
				"error":      err.Error(),
			}).Error("Prediction failed for subject")
			continue
		}
		predictions = append(predictions, *prediction)
	}

	p.logger.WithField("count", len(predictions)).Info("Predictions generated")
	return predictions, nil
}

// generateOne runs the weighted factor pass for one subject and
// persists the result. Even an all-silent pass produces a neutral
// prediction row.
func (p *Predictor) generateOne(ctx context.Context, indexCode string, quote *contracts.Quote, indicators *contracts.MarketIndicators) (*contracts.Prediction, error) {
	info := contracts.IndexMapping[indexCode]
	indexName := info.Name
	if indexName == "" {
		indexName = indexCode
	}

	input := FactorInput{
		IndexCode:  indexCode,
		IndexName:  indexName,
		Quote:      quote,
		Indicators: indicators,
	}

	trendQuotes, err := p.repo.RecentQuotes(ctx, indexCode, 7)
	if err != nil {
		return nil, err
	}
	input.TrendQuotes = trendQuotes

	if contracts.IsDomesticIndex(indexCode) {
		flows, err := p.repo.RecentNorthFlows(ctx)
		if err != nil {
			return nil, err
		}
		input.NorthFlows = flows
	}

	if contracts.HasPremiumFunds(indexCode) {
		premiums, err := p.repo.RecentPremiums(ctx)
		if err != nil {
			return nil, err
		}
		input.Premiums = premiums
	}

	score, factors := p.composeScore(input)

	now := time.Now()
	prediction := &contracts.Prediction{
		IndexCode:       indexCode,
		IndexName:       indexName,
		PredictedChange: coerce.Round(score/20, 2),
		Direction:       directionFor(score),
		Confidence:      confidenceFor(score),
		Factors:         factors,
		PredictedAt:     now,
		ExpiresAt:       now.Add(p.horizon),
	}
	if quote != nil {
		prediction.CurrentPrice = quote.Price
	}
	prediction.Summary = buildSummary(indexName, prediction.PredictedChange, prediction.Direction, factors)

	if err := p.repo.Save(ctx, prediction); err != nil {
		return nil, err
	}
	if p.metrics != nil {
		p.metrics.RecordPrediction(indexCode)
	}

	p.logger.WithFields(map[string]interface{}{
		"index_code":       indexCode,
		"predicted_change": prediction.PredictedChange,
		"direction":        prediction.Direction,
	}).Info("Prediction saved")
	return prediction, nil
}

// composeScore runs the ordered factor functions and sums their
// weighted scores. Factors surface in computation order.
func (p *Predictor) composeScore(input FactorInput) (float64, []contracts.PredictionFactor) {
	var score float64
	var factors []contracts.PredictionFactor

	collect := func(s float64, f *contracts.PredictionFactor, weight float64) {
		score += s * weight
		if f != nil {
			factors = append(factors, *f)
		}
	}

	s, f := analyzeTrend(input)
	collect(s, f, weightTrend)

	if contracts.IsDomesticIndex(input.IndexCode) {
		s, f = analyzeFlow(input)
		collect(s, f, weightFlow)
	}

	s, f = analyzePremium(input)
	collect(s, f, weightPremium)

	if input.Quote != nil {
		s, f = analyzeMomentum(input)
		collect(s, f, weightMomentum)
	}

	if contracts.IsUSIndex(input.IndexCode) {
		s, f = analyzeVIX(input)
		collect(s, f, weightVIX)
	}

	s, f = analyzeDXY(input)
	collect(s, f, weightDXY)

	if contracts.IsUSIndex(input.IndexCode) {
		s, f = analyzeTreasury(input)
		collect(s, f, weightTreasury)
	}

	return score, factors
}

func directionFor(score float64) string {
	if score > 10 {
		return contracts.DirectionBullish
	}
	if score < -10 {
		return contracts.DirectionBearish
	}
	return contracts.DirectionNeutral
}

func confidenceFor(score float64) string {
	abs := score
	if abs < 0 {
		abs = -abs
	}
	if abs > 40 {
		return contracts.ConfidenceHigh
	}
	if abs > 20 {
		return contracts.ConfidenceMedium
	}
	return contracts.ConfidenceLow
}

// buildSummary renders the Chinese one-liner shown on dashboards.
func buildSummary(indexName string, predictedChange float64, direction string, factors []contracts.PredictionFactor) string {
	directionText := "震荡"
	switch direction {
	case contracts.DirectionBullish:
		directionText = "看涨"
	case contracts.DirectionBearish:
		directionText = "看跌"
	}

	summary := fmt.Sprintf("%s未来48小时预计%s", indexName, directionText)
	if predictedChange != 0 {
		summary += fmt.Sprintf("，预测涨跌幅 %+.2f%%", predictedChange)
	}

	if len(factors) > 0 {
		labels := make([]string, 0, 2)
		for _, f := range factors {
			labels = append(labels, f.Label)
			if len(labels) == 2 {
				break
			}
		}
		summary += "。主要因素：" + strings.Join(labels, ", ")
	}
	return summary
}
