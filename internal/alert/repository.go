package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/indexpulse/backend/internal/contracts"
	"github.com/wonny/indexpulse/backend/pkg/logger"
)

// Repository persists history rows and alert events.
// ⭐ SSOT: events/history 테이블 접근은 여기서만
type Repository struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewRepository creates an alert repository.
func NewRepository(pool *pgxpool.Pool, log *logger.Logger) *Repository {
	return &Repository{
		pool:   pool,
		logger: log.WithComponent("alert-repository"),
	}
}

// insertEvents writes events inside the given transaction and fills in
// the generated IDs and timestamps.
func insertEvents(ctx context.Context, tx pgx.Tx, events []contracts.Event) error {
	for i := range events {
		payload, err := json.Marshal(events[i].Data)
		if err != nil {
			return fmt.Errorf("failed to marshal event data: %w", err)
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO events (event_type, target_index, title, summary, impact, importance, source_url, data)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, created_at`,
			events[i].EventType, events[i].TargetIndex, events[i].Title, events[i].Summary,
			events[i].Impact, events[i].Importance, events[i].SourceURL, payload,
		).Scan(&events[i].ID, &events[i].CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}
	}
	return nil
}

// CommitPremiumBatch writes one premium sweep — every record as a
// history row plus the generated events — in a single transaction.
func (r *Repository) CommitPremiumBatch(ctx context.Context, records []contracts.PremiumRecord, events []contracts.Event) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin premium batch: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(`
			INSERT INTO premium_history (fund_code, fund_name, price, nav, nav_date, premium_rate, volume, recorded_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			rec.FundCode, rec.FundName, rec.Price, rec.NAV, rec.NavDate,
			rec.PremiumRate, rec.Volume, rec.RecordedAt)
	}
	if err := execBatch(ctx, tx, batch, len(records)); err != nil {
		return fmt.Errorf("failed to insert premium history: %w", err)
	}

	if err := insertEvents(ctx, tx, events); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CommitFlowBatch writes flow snapshots plus their events in a single
// transaction.
func (r *Repository) CommitFlowBatch(ctx context.Context, records []contracts.FlowRecord, events []contracts.Event) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin flow batch: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(`
			INSERT INTO fund_flow_history (flow_type, sh_connect, sz_connect, total, recorded_at)
			VALUES ($1, $2, $3, $4, $5)`,
			rec.FlowType, rec.SHConnect, rec.SZConnect, rec.Total, rec.RecordedAt)
	}
	if err := execBatch(ctx, tx, batch, len(records)); err != nil {
		return fmt.Errorf("failed to insert flow history: %w", err)
	}

	if err := insertEvents(ctx, tx, events); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CommitIndexBatch writes quote snapshots plus their events in a single
// transaction.
func (r *Repository) CommitIndexBatch(ctx context.Context, quotes []contracts.Quote, events []contracts.Event) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin index batch: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, q := range quotes {
		batch.Queue(`
			INSERT INTO index_quotes (index_code, index_name, price, change, change_percent, volume, turnover, recorded_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			q.IndexCode, q.Name, q.Price, q.Change, q.ChangePercent, q.Volume, q.Amount, q.RecordedAt)
	}
	if err := execBatch(ctx, tx, batch, len(quotes)); err != nil {
		return fmt.Errorf("failed to insert index quotes: %w", err)
	}

	if err := insertEvents(ctx, tx, events); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func execBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch, n int) error {
	if n == 0 {
		return nil
	}
	results := tx.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < n; i++ {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return results.Close()
}

// EventFilter narrows ListEvents.
type EventFilter struct {
	Limit         int
	Offset        int
	EventType     string
	TargetIndex   string
	MinImportance int
}

// ListEvents returns recent events newest first plus the total count
// matching the filter.
func (r *Repository) ListEvents(ctx context.Context, filter EventFilter) ([]contracts.Event, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.MinImportance <= 0 {
		filter.MinImportance = 1
	}

	where := "WHERE importance >= $1"
	args := []interface{}{filter.MinImportance}
	if filter.EventType != "" {
		args = append(args, filter.EventType)
		where += fmt.Sprintf(" AND event_type = $%d", len(args))
	}
	if filter.TargetIndex != "" {
		args = append(args, filter.TargetIndex)
		where += fmt.Sprintf(" AND target_index = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM events "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT id, event_type, COALESCE(target_index, ''), title, COALESCE(summary, ''),
		       COALESCE(impact, ''), importance, COALESCE(source_url, ''), data, created_at
		FROM events %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// GetEvent returns one event by id; pgx.ErrNoRows when absent.
func (r *Repository) GetEvent(ctx context.Context, id int64) (*contracts.Event, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, event_type, COALESCE(target_index, ''), title, COALESCE(summary, ''),
		       COALESCE(impact, ''), importance, COALESCE(source_url, ''), data, created_at
		FROM events WHERE id = $1`, id)

	event, err := scanEvent(row)
	if err != nil {
		return nil, err
	}
	return event, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*contracts.Event, error) {
	var e contracts.Event
	var payload []byte
	err := row.Scan(&e.ID, &e.EventType, &e.TargetIndex, &e.Title, &e.Summary,
		&e.Impact, &e.Importance, &e.SourceURL, &payload, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &e.Data); err != nil {
			return nil, fmt.Errorf("failed to decode event data: %w", err)
		}
	}
	return &e, nil
}

func scanEvents(rows pgx.Rows) ([]contracts.Event, error) {
	var events []contracts.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// EventStats aggregates event counts since the given time.
type EventStats struct {
	Total    int            `json:"total"`
	ByType   map[string]int `json:"by_type"`
	ByTarget map[string]int `json:"by_target"`
}

// GetEventStats returns counts by type and target since `since`.
func (r *Repository) GetEventStats(ctx context.Context, since time.Time) (*EventStats, error) {
	stats := &EventStats{
		ByType:   make(map[string]int),
		ByTarget: make(map[string]int),
	}

	rows, err := r.pool.Query(ctx, `
		SELECT event_type, COALESCE(target_index, ''), COUNT(*)
		FROM events
		WHERE created_at >= $1
		GROUP BY event_type, target_index`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query event stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var eventType, target string
		var count int
		if err := rows.Scan(&eventType, &target, &count); err != nil {
			return nil, fmt.Errorf("failed to scan event stats: %w", err)
		}
		stats.Total += count
		stats.ByType[eventType] += count
		if target != "" {
			stats.ByTarget[target] += count
		}
	}
	return stats, rows.Err()
}

// PremiumHistory returns premium rows for one fund over the last days,
// newest first.
func (r *Repository) PremiumHistory(ctx context.Context, fundCode string, days int) ([]contracts.PremiumRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT fund_code, COALESCE(fund_name, ''), COALESCE(price, 0), COALESCE(nav, 0),
		       COALESCE(nav_date, ''), COALESCE(premium_rate, 0), COALESCE(volume, 0), recorded_at
		FROM premium_history
		WHERE fund_code = $1 AND recorded_at >= now() - $2::interval
		ORDER BY recorded_at DESC`,
		fundCode, fmt.Sprintf("%d days", days))
	if err != nil {
		return nil, fmt.Errorf("failed to query premium history: %w", err)
	}
	defer rows.Close()

	var records []contracts.PremiumRecord
	for rows.Next() {
		var rec contracts.PremiumRecord
		err := rows.Scan(&rec.FundCode, &rec.FundName, &rec.Price, &rec.NAV,
			&rec.NavDate, &rec.PremiumRate, &rec.Volume, &rec.RecordedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan premium history: %w", err)
		}
		rec.IndexType = contracts.IndexTypeForFund(rec.FundCode)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// FlowHistory returns flow rows of one direction over the last days,
// newest first.
func (r *Repository) FlowHistory(ctx context.Context, flowType string, days int) ([]contracts.FlowRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT flow_type, COALESCE(sh_connect, 0), COALESCE(sz_connect, 0), COALESCE(total, 0), recorded_at
		FROM fund_flow_history
		WHERE flow_type = $1 AND recorded_at >= now() - $2::interval
		ORDER BY recorded_at DESC`,
		flowType, fmt.Sprintf("%d days", days))
	if err != nil {
		return nil, fmt.Errorf("failed to query flow history: %w", err)
	}
	defer rows.Close()

	var records []contracts.FlowRecord
	for rows.Next() {
		var rec contracts.FlowRecord
		if err := rows.Scan(&rec.FlowType, &rec.SHConnect, &rec.SZConnect, &rec.Total, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan flow history: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// FlowStats holds the aggregate view of the recent flow history.
type FlowStats struct {
	Days       int     `json:"days"`
	NorthSum   float64 `json:"north_sum"`
	NorthAvg   float64 `json:"north_avg"`
	NorthMax   float64 `json:"north_max"`
	NorthMin   float64 `json:"north_min"`
	SouthSum   float64 `json:"south_sum"`
	SouthAvg   float64 `json:"south_avg"`
	NorthCount int     `json:"north_count"`
	SouthCount int     `json:"south_count"`
}

// GetFlowStats aggregates both directions over the last days.
func (r *Repository) GetFlowStats(ctx context.Context, days int) (*FlowStats, error) {
	stats := &FlowStats{Days: days}
	interval := fmt.Sprintf("%d days", days)

	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total), 0), COALESCE(AVG(total), 0),
		       COALESCE(MAX(total), 0), COALESCE(MIN(total), 0), COUNT(*)
		FROM fund_flow_history
		WHERE flow_type = 'north' AND recorded_at >= now() - $1::interval`, interval,
	).Scan(&stats.NorthSum, &stats.NorthAvg, &stats.NorthMax, &stats.NorthMin, &stats.NorthCount)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate north flow: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total), 0), COALESCE(AVG(total), 0), COUNT(*)
		FROM fund_flow_history
		WHERE flow_type = 'south' AND recorded_at >= now() - $1::interval`, interval,
	).Scan(&stats.SouthSum, &stats.SouthAvg, &stats.SouthCount)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate south flow: %w", err)
	}

	return stats, nil
}

// IndexHistory returns quote snapshots for one subject over the last
// days, newest first.
func (r *Repository) IndexHistory(ctx context.Context, indexCode string, days int) ([]contracts.Quote, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT index_code, COALESCE(index_name, ''), COALESCE(price, 0), COALESCE(change, 0),
		       COALESCE(change_percent, 0), COALESCE(volume, 0), COALESCE(turnover, 0), recorded_at
		FROM index_quotes
		WHERE index_code = $1 AND recorded_at >= now() - $2::interval
		ORDER BY recorded_at DESC`,
		indexCode, fmt.Sprintf("%d days", days))
	if err != nil {
		return nil, fmt.Errorf("failed to query index history: %w", err)
	}
	defer rows.Close()

	var quotes []contracts.Quote
	for rows.Next() {
		var q contracts.Quote
		err := rows.Scan(&q.IndexCode, &q.Name, &q.Price, &q.Change,
			&q.ChangePercent, &q.Volume, &q.Amount, &q.RecordedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan index history: %w", err)
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

// LoadThresholdOverrides reads enabled alert_config rows keyed by
// alert_type.
func (r *Repository) LoadThresholdOverrides(ctx context.Context) (map[string]float64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT alert_type, threshold FROM alert_config WHERE enabled`)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert config: %w", err)
	}
	defer rows.Close()

	overrides := make(map[string]float64)
	for rows.Next() {
		var alertType string
		var threshold float64
		if err := rows.Scan(&alertType, &threshold); err != nil {
			return nil, fmt.Errorf("failed to scan alert config: %w", err)
		}
		overrides[alertType] = threshold
	}
	return overrides, rows.Err()
}
