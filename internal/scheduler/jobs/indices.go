package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/indexpulse/backend/internal/alert"
	"github.com/wonny/indexpulse/backend/internal/ingest"
	"github.com/wonny/indexpulse/backend/pkg/config"
	"github.com/wonny/indexpulse/backend/pkg/logger"
)

// IndicesJob polls the index quote sources and feeds the alert engine.
// ⭐ SSOT: 지수 시세 수집 스케줄은 이 Job에서만
type IndicesJob struct {
	ingest *ingest.Service
	engine *alert.Engine
	config *config.Config
	logger *logger.Logger
}

// NewIndicesJob creates the index polling job.
func NewIndicesJob(svc *ingest.Service, engine *alert.Engine, cfg *config.Config, log *logger.Logger) *IndicesJob {
	return &IndicesJob{
		ingest: svc,
		engine: engine,
		config: cfg,
		logger: log.WithComponent("job-indices"),
	}
}

func (j *IndicesJob) Name() string {
	return "update_indices"
}

func (j *IndicesJob) DisplayName() string {
	return "更新指数行情"
}

func (j *IndicesJob) Schedule() string {
	return fmt.Sprintf("@every %s", j.config.Scheduler.IndicesInterval)
}

// Run fetches the index snapshot, refreshes the cache and runs the
// move-threshold pass.
func (j *IndicesJob) Run(ctx context.Context) error {
	quotes, err := j.ingest.RefreshIndices(ctx)
	if err != nil {
		return fmt.Errorf("fetch indices: %w", err)
	}

	events, err := j.engine.ProcessIndexBatch(ctx, quotes)
	if err != nil {
		return fmt.Errorf("process index batch: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"quotes": len(quotes),
		"events": len(events),
	}).Debug("Index sweep committed")
	return nil
}
