package forecast

import (
	"context"
	"math"
	"time"

	"github.com/wonny/indexpulse/backend/internal/external/coerce"
	"github.com/wonny/indexpulse/backend/pkg/logger"
)

// Evaluation compares one expired prediction against the realized move
// over its horizon.
type Evaluation struct {
	IndexCode       string    `json:"index_code"`
	IndexName       string    `json:"index_name"`
	PredictedChange float64   `json:"predicted_change"`
	ActualChange    float64   `json:"actual_change"`
	Error           float64   `json:"error"`
	DirectionHit    bool      `json:"direction_hit"`
	PredictedAt     time.Time `json:"predicted_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// AccuracyReport summarizes how the scoring pass has been doing.
type AccuracyReport struct {
	SampleCount int     `json:"sample_count"`
	MAE         float64 `json:"mae"`
	RMSE        float64 `json:"rmse"`
	HitRate     float64 `json:"hit_rate"`
	MeanError   float64 `json:"mean_error"` // 편향
}

// Evaluator settles expired predictions against the quote history.
// ⭐ SSOT: 예측 vs 실제 검증 로직
type Evaluator struct {
	repo   *Repository
	logger *logger.Logger
}

// NewEvaluator creates an accuracy evaluator.
func NewEvaluator(repo *Repository, log *logger.Logger) *Evaluator {
	return &Evaluator{
		repo:   repo,
		logger: log.WithComponent("forecast-evaluator"),
	}
}

// EvaluateRecent settles every prediction that expired within the last
// days. Predictions without enough quote history to settle are skipped.
func (e *Evaluator) EvaluateRecent(ctx context.Context, days int) ([]Evaluation, error) {
	if days <= 0 {
		days = 7
	}

	predictions, err := e.repo.ExpiredPredictions(ctx, days)
	if err != nil {
		return nil, err
	}

	var evaluations []Evaluation
	for _, p := range predictions {
		base := p.CurrentPrice
		if base <= 0 {
			base, err = e.repo.PriceAt(ctx, p.IndexCode, p.PredictedAt)
			if err != nil {
				return nil, err
			}
		}
		settle, err := e.repo.PriceAt(ctx, p.IndexCode, p.ExpiresAt)
		if err != nil {
			return nil, err
		}
		if base <= 0 || settle <= 0 {
			continue
		}

		actual := coerce.Round((settle-base)/base*100, 2)
		evaluations = append(evaluations, Evaluation{
			IndexCode:       p.IndexCode,
			IndexName:       p.IndexName,
			PredictedChange: p.PredictedChange,
			ActualChange:    actual,
			Error:           actual - p.PredictedChange,
			DirectionHit:    sameDirection(p.PredictedChange, actual),
			PredictedAt:     p.PredictedAt,
			ExpiresAt:       p.ExpiresAt,
		})
	}

	e.logger.WithFields(map[string]interface{}{
		"expired": len(predictions),
		"settled": len(evaluations),
	}).Info("Predictions evaluated")
	return evaluations, nil
}

// Accuracy aggregates the evaluations into one report. Returns nil when
// there is nothing to report.
func (e *Evaluator) Accuracy(evaluations []Evaluation) *AccuracyReport {
	if len(evaluations) == 0 {
		return nil
	}

	var sumAbs, sumSq, sumErr float64
	var hits int
	for _, ev := range evaluations {
		sumAbs += math.Abs(ev.Error)
		sumSq += ev.Error * ev.Error
		sumErr += ev.Error
		if ev.DirectionHit {
			hits++
		}
	}

	n := float64(len(evaluations))
	return &AccuracyReport{
		SampleCount: len(evaluations),
		MAE:         coerce.Round(sumAbs/n, 4),
		RMSE:        coerce.Round(math.Sqrt(sumSq/n), 4),
		HitRate:     coerce.Round(float64(hits)/n, 4),
		MeanError:   coerce.Round(sumErr/n, 4),
	}
}

// AccuracyBySubject groups the report per subject, in canonical order
// where present.
func (e *Evaluator) AccuracyBySubject(evaluations []Evaluation) map[string]*AccuracyReport {
	groups := make(map[string][]Evaluation)
	for _, ev := range evaluations {
		groups[ev.IndexCode] = append(groups[ev.IndexCode], ev)
	}

	reports := make(map[string]*AccuracyReport, len(groups))
	for code, group := range groups {
		if report := e.Accuracy(group); report != nil {
			reports[code] = report
		}
	}
	return reports
}

func sameDirection(predicted, actual float64) bool {
	return (predicted >= 0 && actual >= 0) || (predicted < 0 && actual < 0)
}
