package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/indexpulse/backend/internal/contracts"
	"github.com/wonny/indexpulse/backend/pkg/logger"
)

// Repository persists predictions and reads the history slices the
// scoring pass consumes.
// ⭐ SSOT: index_predictions 테이블 접근은 여기서만
type Repository struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewRepository creates a forecast repository.
func NewRepository(pool *pgxpool.Pool, log *logger.Logger) *Repository {
	return &Repository{
		pool:   pool,
		logger: log.WithComponent("forecast-repository"),
	}
}

// Save inserts one prediction and fills in its generated id.
func (r *Repository) Save(ctx context.Context, p *contracts.Prediction) error {
	factors, err := json.Marshal(p.Factors)
	if err != nil {
		return fmt.Errorf("failed to marshal prediction factors: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		INSERT INTO index_predictions
			(index_code, index_name, current_price, predicted_change, direction, confidence, factors, summary, predicted_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		p.IndexCode, p.IndexName, p.CurrentPrice, p.PredictedChange,
		p.Direction, p.Confidence, factors, p.Summary, p.PredictedAt, p.ExpiresAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}
	return nil
}

// LatestFor returns the newest unexpired prediction for one subject,
// or nil when none is current. An expired row behaves exactly like no
// row at all.
func (r *Repository) LatestFor(ctx context.Context, indexCode string) (*contracts.Prediction, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, index_code, COALESCE(index_name, ''), COALESCE(current_price, 0),
		       COALESCE(predicted_change, 0), COALESCE(direction, ''), COALESCE(confidence, ''),
		       factors, COALESCE(summary, ''), predicted_at, expires_at
		FROM index_predictions
		WHERE index_code = $1 AND expires_at > now()
		ORDER BY predicted_at DESC
		LIMIT 1`, indexCode)

	var p contracts.Prediction
	var factors []byte
	err := row.Scan(&p.ID, &p.IndexCode, &p.IndexName, &p.CurrentPrice,
		&p.PredictedChange, &p.Direction, &p.Confidence, &factors,
		&p.Summary, &p.PredictedAt, &p.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest prediction: %w", err)
	}

	if len(factors) > 0 {
		if err := json.Unmarshal(factors, &p.Factors); err != nil {
			return nil, fmt.Errorf("failed to decode prediction factors: %w", err)
		}
	}
	return &p, nil
}

// AllLatest returns the newest unexpired prediction per subject, in
// the canonical subject order. Subjects without a current prediction
// are omitted.
func (r *Repository) AllLatest(ctx context.Context) ([]contracts.Prediction, error) {
	predictions := make([]contracts.Prediction, 0, len(contracts.IndexOrder))
	for _, indexCode := range contracts.IndexOrder {
		p, err := r.LatestFor(ctx, indexCode)
		if err != nil {
			return nil, err
		}
		if p != nil {
			predictions = append(predictions, *p)
		}
	}
	return predictions, nil
}

// ExpiredPredictions returns predictions that expired within the last
// days, oldest first, for accuracy settlement.
func (r *Repository) ExpiredPredictions(ctx context.Context, days int) ([]contracts.Prediction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, index_code, COALESCE(index_name, ''), COALESCE(current_price, 0),
		       COALESCE(predicted_change, 0), COALESCE(direction, ''), COALESCE(confidence, ''),
		       COALESCE(summary, ''), predicted_at, expires_at
		FROM index_predictions
		WHERE expires_at <= now() AND expires_at >= now() - $1::interval
		ORDER BY expires_at ASC`,
		fmt.Sprintf("%d days", days))
	if err != nil {
		return nil, fmt.Errorf("failed to query expired predictions: %w", err)
	}
	defer rows.Close()

	var predictions []contracts.Prediction
	for rows.Next() {
		var p contracts.Prediction
		if err := rows.Scan(&p.ID, &p.IndexCode, &p.IndexName, &p.CurrentPrice,
			&p.PredictedChange, &p.Direction, &p.Confidence,
			&p.Summary, &p.PredictedAt, &p.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan expired prediction: %w", err)
		}
		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}

// PriceAt returns the subject's last recorded price at or before the
// given instant, or 0 when no quote exists yet.
func (r *Repository) PriceAt(ctx context.Context, indexCode string, at time.Time) (float64, error) {
	var price float64
	err := r.pool.QueryRow(ctx, `
		SELECT price FROM index_quotes
		WHERE index_code = $1 AND recorded_at <= $2
		ORDER BY recorded_at DESC
		LIMIT 1`, indexCode, at).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query price at instant: %w", err)
	}
	return price, nil
}

// RecentQuotes returns the subject's quote history over the last days,
// oldest first, the order the trend factor expects.
func (r *Repository) RecentQuotes(ctx context.Context, indexCode string, days int) ([]contracts.Quote, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT index_code, COALESCE(index_name, ''), COALESCE(price, 0), COALESCE(change, 0),
		       COALESCE(change_percent, 0), recorded_at
		FROM index_quotes
		WHERE index_code = $1 AND recorded_at >= now() - $2::interval
		ORDER BY recorded_at ASC`,
		indexCode, fmt.Sprintf("%d days", days))
	if err != nil {
		return nil, fmt.Errorf("failed to query trend quotes: %w", err)
	}
	defer rows.Close()

	var quotes []contracts.Quote
	for rows.Next() {
		var q contracts.Quote
		if err := rows.Scan(&q.IndexCode, &q.Name, &q.Price, &q.Change, &q.ChangePercent, &q.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trend quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

// RecentNorthFlows returns the latest north flow rows (at most 10)
// from the last 3 days, newest first.
func (r *Repository) RecentNorthFlows(ctx context.Context) ([]contracts.FlowRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT flow_type, COALESCE(sh_connect, 0), COALESCE(sz_connect, 0), COALESCE(total, 0), recorded_at
		FROM fund_flow_history
		WHERE flow_type = 'north' AND recorded_at >= now() - interval '3 days'
		ORDER BY recorded_at DESC
		LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent north flows: %w", err)
	}
	defer rows.Close()

	var records []contracts.FlowRecord
	for rows.Next() {
		var rec contracts.FlowRecord
		if err := rows.Scan(&rec.FlowType, &rec.SHConnect, &rec.SZConnect, &rec.Total, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan north flow: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// RecentPremiums returns every premium row from the last 24 hours.
func (r *Repository) RecentPremiums(ctx context.Context) ([]contracts.PremiumRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT fund_code, COALESCE(fund_name, ''), COALESCE(premium_rate, 0), recorded_at
		FROM premium_history
		WHERE recorded_at >= now() - interval '24 hours'`)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent premiums: %w", err)
	}
	defer rows.Close()

	var records []contracts.PremiumRecord
	for rows.Next() {
		var rec contracts.PremiumRecord
		if err := rows.Scan(&rec.FundCode, &rec.FundName, &rec.PremiumRate, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan premium row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
