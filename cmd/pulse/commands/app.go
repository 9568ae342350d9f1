package commands

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"

	"github.com/wonny/indexpulse/backend/internal/alert"
	"github.com/wonny/indexpulse/backend/internal/forecast"
	"github.com/wonny/indexpulse/backend/internal/ingest"
	"github.com/wonny/indexpulse/backend/internal/scheduler"
	"github.com/wonny/indexpulse/backend/internal/scheduler/jobs"
	"github.com/wonny/indexpulse/backend/pkg/config"
	"github.com/wonny/indexpulse/backend/pkg/database"
	"github.com/wonny/indexpulse/backend/pkg/logger"
	"github.com/wonny/indexpulse/backend/pkg/metrics"
	"github.com/wonny/indexpulse/backend/pkg/redis"
)

// app bundles the shared wiring every command builds on.
// ⭐ SSOT: 컴포넌트 조립은 여기서만
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	db      *database.DB
	redis   *redis.Client
	cache   *redis.Cache
	metrics *metrics.Recorder

	ingest       *ingest.Service
	alertRepo    *alert.Repository
	engine       *alert.Engine
	catalogRepo  *ingest.CatalogRepository
	forecastRepo *forecast.Repository
	predictor    *forecast.Predictor
	evaluator    *forecast.Evaluator
	sched        *scheduler.Scheduler
}

// loadConfig loads the environment configuration, honoring the global
// --config and --log-level flags.
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

// newApp builds the full component graph. Every command that touches
// storage or upstream sources goes through here.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := db.InitSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, running without cache")
		redisClient = nil
	}
	var cache *redis.Cache
	if redisClient != nil {
		cache = redis.NewCache(redisClient, "pulse")
	}

	rec := metrics.New()

	ingestSvc := ingest.NewService(cfg, log, cache, rec)

	alertRepo := alert.NewRepository(db.Pool, log)
	engine := alert.NewEngine(alertRepo, cfg, log, rec)
	if err := engine.ReloadThresholds(ctx); err != nil {
		log.WithError(err).Warn("Failed to load threshold overrides, using defaults")
	}

	forecastRepo := forecast.NewRepository(db.Pool, log)
	predictor := forecast.NewPredictor(forecastRepo, ingestSvc, log, rec, cfg.Prediction.Horizon)
	evaluator := forecast.NewEvaluator(forecastRepo, log)

	sched := scheduler.New(log, rec)
	for _, job := range []scheduler.Job{
		jobs.NewIndicesJob(ingestSvc, engine, cfg, log),
		jobs.NewPremiumJob(ingestSvc, engine, cfg, log),
		jobs.NewFundFlowJob(ingestSvc, engine, cfg, log),
	} {
		if err := sched.AddJob(job); err != nil {
			db.Close()
			return nil, fmt.Errorf("register job: %w", err)
		}
	}

	return &app{
		cfg:          cfg,
		log:          log,
		db:           db,
		redis:        redisClient,
		cache:        cache,
		metrics:      rec,
		ingest:       ingestSvc,
		alertRepo:    alertRepo,
		engine:       engine,
		catalogRepo:  ingest.NewCatalogRepository(db.Pool, log),
		forecastRepo: forecastRepo,
		predictor:    predictor,
		evaluator:    evaluator,
		sched:        sched,
	}, nil
}

// Close releases the shared resources.
func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	a.db.Close()
}
