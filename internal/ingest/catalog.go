package ingest

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/indexpulse/backend/internal/contracts"
	"github.com/wonny/indexpulse/backend/pkg/logger"
)

// CatalogRepository persists the scraped ETF catalog.
type CatalogRepository struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewCatalogRepository creates a catalog repository.
func NewCatalogRepository(pool *pgxpool.Pool, log *logger.Logger) *CatalogRepository {
	return &CatalogRepository{
		pool:   pool,
		logger: log.WithComponent("catalog"),
	}
}

// UpsertProfiles writes the scraped profiles in one batch, updating
// rows that already exist.
func (r *CatalogRepository) UpsertProfiles(ctx context.Context, profiles []contracts.FundProfile) error {
	if len(profiles) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range profiles {
		batch.Queue(`
			INSERT INTO etf_info (code, name, index_type, fund_company, is_qdii, track_index, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now())
			ON CONFLICT (code) DO UPDATE SET
				name = EXCLUDED.name,
				index_type = EXCLUDED.index_type,
				fund_company = EXCLUDED.fund_company,
				is_qdii = EXCLUDED.is_qdii,
				track_index = EXCLUDED.track_index,
				updated_at = now()`,
			p.Code, p.Name, p.IndexType, p.Company, p.IsQDII, p.TrackIndex)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range profiles {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert etf catalog row: %w", err)
		}
	}

	r.logger.WithField("count", len(profiles)).Info("ETF catalog updated")
	return nil
}

// List returns the stored catalog ordered by fund code.
func (r *CatalogRepository) List(ctx context.Context) ([]contracts.FundProfile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT code, name, index_type, fund_company, is_qdii, track_index, updated_at
		FROM etf_info
		ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query etf catalog: %w", err)
	}
	defer rows.Close()

	var profiles []contracts.FundProfile
	for rows.Next() {
		var p contracts.FundProfile
		if err := rows.Scan(&p.Code, &p.Name, &p.IndexType, &p.Company, &p.IsQDII, &p.TrackIndex, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan etf catalog row: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// SyncCatalog scrapes all tracked fund profiles and upserts them.
func (s *Service) SyncCatalog(ctx context.Context, repo *CatalogRepository) (int, error) {
	profiles, err := s.FundProfiles(ctx)
	if err != nil {
		return 0, err
	}
	if err := repo.UpsertProfiles(ctx, profiles); err != nil {
		return 0, err
	}
	return len(profiles), nil
}
