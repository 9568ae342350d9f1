package database

import (
	"context"
	"fmt"
)

// Schema holds the full DDL for the service tables.
// ⭐ SSOT: 테이블 정의는 여기 한 곳에서만 관리
//
// Every statement is idempotent so InitSchema can run on every startup.
const Schema = `
CREATE TABLE IF NOT EXISTS events (
    id BIGSERIAL PRIMARY KEY,
    event_type VARCHAR(50) NOT NULL,
    target_index VARCHAR(20),
    title VARCHAR(500) NOT NULL,
    summary TEXT,
    impact VARCHAR(20),
    importance INTEGER NOT NULL DEFAULT 1,
    source_url VARCHAR(1000),
    data JSONB,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_events_event_type ON events(event_type);
CREATE INDEX IF NOT EXISTS idx_events_target_index ON events(target_index);
CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at);

CREATE TABLE IF NOT EXISTS premium_history (
    id BIGSERIAL PRIMARY KEY,
    fund_code VARCHAR(10) NOT NULL,
    fund_name VARCHAR(100),
    price DOUBLE PRECISION,
    nav DOUBLE PRECISION,
    nav_date VARCHAR(20),
    premium_rate DOUBLE PRECISION,
    volume DOUBLE PRECISION,
    recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_premium_history_fund_code ON premium_history(fund_code);
CREATE INDEX IF NOT EXISTS idx_premium_history_recorded_at ON premium_history(recorded_at);

CREATE TABLE IF NOT EXISTS fund_flow_history (
    id BIGSERIAL PRIMARY KEY,
    flow_type VARCHAR(20) NOT NULL,
    sh_connect DOUBLE PRECISION,
    sz_connect DOUBLE PRECISION,
    total DOUBLE PRECISION,
    recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_fund_flow_history_flow_type ON fund_flow_history(flow_type);
CREATE INDEX IF NOT EXISTS idx_fund_flow_history_recorded_at ON fund_flow_history(recorded_at);

CREATE TABLE IF NOT EXISTS index_quotes (
    id BIGSERIAL PRIMARY KEY,
    index_code VARCHAR(20) NOT NULL,
    index_name VARCHAR(50),
    price DOUBLE PRECISION,
    change DOUBLE PRECISION,
    change_percent DOUBLE PRECISION,
    volume DOUBLE PRECISION,
    turnover DOUBLE PRECISION,
    recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_index_quotes_index_code ON index_quotes(index_code);
CREATE INDEX IF NOT EXISTS idx_index_quotes_recorded_at ON index_quotes(recorded_at);

CREATE TABLE IF NOT EXISTS index_predictions (
    id BIGSERIAL PRIMARY KEY,
    index_code VARCHAR(20) NOT NULL,
    index_name VARCHAR(50),
    current_price DOUBLE PRECISION,
    direction VARCHAR(10),
    predicted_change DOUBLE PRECISION,
    confidence VARCHAR(10),
    factors JSONB,
    summary TEXT,
    predicted_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    expires_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_index_predictions_index_code ON index_predictions(index_code);
CREATE INDEX IF NOT EXISTS idx_index_predictions_predicted_at ON index_predictions(predicted_at);

CREATE TABLE IF NOT EXISTS etf_info (
    code VARCHAR(10) PRIMARY KEY,
    name VARCHAR(100),
    index_type VARCHAR(20),
    fund_company VARCHAR(100),
    is_qdii BOOLEAN NOT NULL DEFAULT FALSE,
    track_index VARCHAR(50),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_etf_info_index_type ON etf_info(index_type);

CREATE TABLE IF NOT EXISTS alert_config (
    id BIGSERIAL PRIMARY KEY,
    alert_type VARCHAR(50) NOT NULL UNIQUE,
    threshold DOUBLE PRECISION NOT NULL,
    enabled BOOLEAN NOT NULL DEFAULT TRUE,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// InitSchema creates all service tables if they do not exist yet.
// pgx runs argument-free Exec through the simple protocol, so the
// multi-statement DDL above executes in a single round trip.
func (db *DB) InitSchema(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}
