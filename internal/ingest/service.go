// Package ingest composes the source adapters into the live-fetch
// surface the jobs, API handlers and predictor all share. It owns the
// redis snapshot cache and the fetch metrics; callers never talk to an
// adapter directly.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/indexpulse/backend/internal/contracts"
	"github.com/wonny/indexpulse/backend/internal/external/eastmoney"
	"github.com/wonny/indexpulse/backend/internal/external/jisilu"
	"github.com/wonny/indexpulse/backend/internal/external/sina"
	"github.com/wonny/indexpulse/backend/internal/external/yahoo"
	"github.com/wonny/indexpulse/backend/pkg/config"
	"github.com/wonny/indexpulse/backend/pkg/httputil"
	"github.com/wonny/indexpulse/backend/pkg/logger"
	"github.com/wonny/indexpulse/backend/pkg/metrics"
	"github.com/wonny/indexpulse/backend/pkg/redis"
)

// FlowSnapshot bundles both flow directions. Either side may be nil
// when its upstream failed; at least one is always set.
type FlowSnapshot struct {
	North *contracts.FlowRecord `json:"north"`
	South *contracts.FlowRecord `json:"south"`
}

// Service is the single entry point for live upstream data.
// ⭐ SSOT: 업스트림 수집은 이 서비스에서만 조합
type Service struct {
	sina      *sina.Client
	yahoo     *yahoo.Client
	eastmoney *eastmoney.Client
	jisilu    *jisilu.Client

	cache   *redis.Cache
	metrics *metrics.Recorder
	logger  *logger.Logger
}

// NewService wires the four adapters behind one throttled HTTP client.
func NewService(cfg *config.Config, log *logger.Logger, cache *redis.Cache, rec *metrics.Recorder) *Service {
	httpClient := httputil.New(cfg, log).
		WithThrottle(cfg.Sources.ThrottleMin, cfg.Sources.ThrottleMax)

	return &Service{
		sina:      sina.NewClient(cfg, httpClient, log),
		yahoo:     yahoo.NewClient(cfg, httpClient, log),
		eastmoney: eastmoney.NewClient(cfg, httpClient, log),
		jisilu:    jisilu.NewClient(cfg, httpClient, log),
		cache:     cache,
		metrics:   rec,
		logger:    log.WithComponent("ingest"),
	}
}

func (s *Service) recordFetch(source string, err error) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.RecordFetch(source, status)
}

// Indices fetches all monitored index quotes, merging the Sina and
// Yahoo sweeps. One failing source degrades the snapshot instead of
// failing it; only both sources failing is an error.
func (s *Service) Indices(ctx context.Context) (map[string]contracts.Quote, error) {
	results := make(map[string]contracts.Quote)

	sinaQuotes, sinaErr := s.sina.FetchIndexQuotes(ctx)
	s.recordFetch("sina", sinaErr)
	if sinaErr != nil {
		s.logger.WithError(sinaErr).Warn("Sina index sweep failed")
	}
	for code, quote := range sinaQuotes {
		results[code] = quote
	}

	yahooQuotes, yahooErr := s.yahoo.FetchIndexQuotes(ctx)
	s.recordFetch("yahoo", yahooErr)
	if yahooErr != nil {
		s.logger.WithError(yahooErr).Warn("Yahoo index sweep failed")
	}
	for code, quote := range yahooQuotes {
		results[code] = quote
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("all index sources failed: sina=%v yahoo=%v", sinaErr, yahooErr)
	}
	return results, nil
}

// CachedIndices serves the index snapshot through the redis cache.
func (s *Service) CachedIndices(ctx context.Context) (map[string]contracts.Quote, error) {
	if s.cache == nil {
		return s.Indices(ctx)
	}

	var quotes map[string]contracts.Quote
	err := s.cache.GetOrSet(ctx, redis.IndicesSnapshotKey(), &quotes, redis.TTLIndices,
		func() (interface{}, error) {
			return s.Indices(ctx)
		})
	return quotes, err
}

// RefreshIndices fetches a fresh index snapshot and seeds the cache so
// API reads between ticks hit the fresh copy.
func (s *Service) RefreshIndices(ctx context.Context) (map[string]contracts.Quote, error) {
	quotes, err := s.Indices(ctx)
	if err != nil {
		return nil, err
	}
	s.seedCache(ctx, redis.IndicesSnapshotKey(), quotes, redis.TTLIndices)
	return quotes, nil
}

func (s *Service) seedCache(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, ttl); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cache seed failed")
	}
}

// Premium fetches the tracked QDII premium rows.
func (s *Service) Premium(ctx context.Context) ([]contracts.PremiumRecord, error) {
	records, err := s.jisilu.FetchPremium(ctx)
	s.recordFetch("jisilu", err)
	return records, err
}

// CachedPremium serves premium rows through the redis cache, optionally
// filtered to one index family.
func (s *Service) CachedPremium(ctx context.Context, indexType string) ([]contracts.PremiumRecord, error) {
	fetch := func() ([]contracts.PremiumRecord, error) {
		records, err := s.Premium(ctx)
		if err != nil {
			return nil, err
		}
		return filterPremium(records, indexType), nil
	}

	if s.cache == nil {
		return fetch()
	}

	var records []contracts.PremiumRecord
	err := s.cache.GetOrSet(ctx, redis.PremiumSnapshotKey(indexType), &records, redis.TTLPremium,
		func() (interface{}, error) {
			return fetch()
		})
	return records, err
}

// RefreshPremium fetches fresh premium rows and seeds the unfiltered
// cache entry.
func (s *Service) RefreshPremium(ctx context.Context) ([]contracts.PremiumRecord, error) {
	records, err := s.Premium(ctx)
	if err != nil {
		return nil, err
	}
	s.seedCache(ctx, redis.PremiumSnapshotKey(""), records, redis.TTLPremium)
	return records, nil
}

func filterPremium(records []contracts.PremiumRecord, indexType string) []contracts.PremiumRecord {
	if indexType == "" {
		return records
	}
	filtered := make([]contracts.PremiumRecord, 0, len(records))
	for _, r := range records {
		if r.IndexType == indexType {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// Flows fetches both connect-program directions. A single failing
// direction is logged and left nil.
func (s *Service) Flows(ctx context.Context) (*FlowSnapshot, error) {
	snapshot := &FlowSnapshot{}

	north, northErr := s.eastmoney.FetchNorthFlow(ctx)
	s.recordFetch("eastmoney", northErr)
	if northErr != nil {
		s.logger.WithError(northErr).Warn("North flow fetch failed")
	} else {
		snapshot.North = north
	}

	south, southErr := s.eastmoney.FetchSouthFlow(ctx)
	s.recordFetch("eastmoney", southErr)
	if southErr != nil {
		s.logger.WithError(southErr).Warn("South flow fetch failed")
	} else {
		snapshot.South = south
	}

	if snapshot.North == nil && snapshot.South == nil {
		return nil, fmt.Errorf("both flow directions failed: north=%v south=%v", northErr, southErr)
	}
	return snapshot, nil
}

// RefreshFlows fetches a fresh flow snapshot and seeds the cache.
func (s *Service) RefreshFlows(ctx context.Context) (*FlowSnapshot, error) {
	snapshot, err := s.Flows(ctx)
	if err != nil {
		return nil, err
	}
	s.seedCache(ctx, redis.FlowRealtimeKey(), snapshot, redis.TTLFlow)
	return snapshot, nil
}

// CachedFlows serves the flow snapshot through the redis cache.
func (s *Service) CachedFlows(ctx context.Context) (*FlowSnapshot, error) {
	if s.cache == nil {
		return s.Flows(ctx)
	}

	var snapshot FlowSnapshot
	err := s.cache.GetOrSet(ctx, redis.FlowRealtimeKey(), &snapshot, redis.TTLFlow,
		func() (interface{}, error) {
			return s.Flows(ctx)
		})
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// NorthFlowHistory fetches the northbound daily kline.
func (s *Service) NorthFlowHistory(ctx context.Context, days int) ([]contracts.DailyFlow, error) {
	history, err := s.eastmoney.FetchNorthFlowHistory(ctx, days)
	s.recordFetch("eastmoney", err)
	return history, err
}

// Indicators fetches the macro indicator bundle. Each member fails
// independently; the bundle errors only when nothing was fetched.
func (s *Service) Indicators(ctx context.Context) (*contracts.MarketIndicators, error) {
	bundle := &contracts.MarketIndicators{UpdatedAt: time.Now()}

	vix, err := s.yahoo.FetchVIX(ctx)
	s.recordFetch("yahoo", err)
	if err != nil {
		s.logger.WithError(err).Warn("VIX fetch failed")
	} else {
		bundle.VIX = vix
	}

	dxy, err := s.yahoo.FetchDXY(ctx)
	s.recordFetch("yahoo", err)
	if err != nil {
		s.logger.WithError(err).Warn("DXY fetch failed")
	} else {
		bundle.DXY = dxy
	}

	t10, err := s.yahoo.FetchTreasuryYield(ctx, "10Y")
	s.recordFetch("yahoo", err)
	if err != nil {
		s.logger.WithError(err).Warn("10Y treasury fetch failed")
	} else {
		bundle.Treasury10Y = t10
	}

	t2, err := s.yahoo.FetchTreasuryYield(ctx, "2Y")
	s.recordFetch("yahoo", err)
	if err != nil {
		s.logger.WithError(err).Warn("2Y treasury fetch failed")
	} else {
		bundle.Treasury2Y = t2
	}

	bundle.YieldCurve = yahoo.BuildYieldCurve(bundle.Treasury10Y, bundle.Treasury2Y)

	sentiment, err := s.eastmoney.FetchSentiment(ctx)
	s.recordFetch("eastmoney", err)
	if err != nil {
		s.logger.WithError(err).Warn("Sentiment fetch failed")
	} else {
		bundle.FearGreed = sentiment
	}

	if bundle.VIX == nil && bundle.DXY == nil && bundle.Treasury10Y == nil &&
		bundle.Treasury2Y == nil && bundle.FearGreed == nil {
		return nil, fmt.Errorf("all market indicator fetches failed")
	}
	return bundle, nil
}

// CachedIndicators serves the indicator bundle through the redis cache.
func (s *Service) CachedIndicators(ctx context.Context) (*contracts.MarketIndicators, error) {
	if s.cache == nil {
		return s.Indicators(ctx)
	}

	var bundle contracts.MarketIndicators
	err := s.cache.GetOrSet(ctx, redis.MarketIndicatorsKey(), &bundle, redis.TTLMarket,
		func() (interface{}, error) {
			return s.Indicators(ctx)
		})
	if err != nil {
		return nil, err
	}
	return &bundle, nil
}

// FundProfiles scrapes the catalog metadata for every tracked fund.
func (s *Service) FundProfiles(ctx context.Context) ([]contracts.FundProfile, error) {
	profiles, err := s.eastmoney.FetchFundProfiles(ctx)
	s.recordFetch("eastmoney", err)
	return profiles, err
}
