package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/indexpulse/backend/internal/alert"
	"github.com/wonny/indexpulse/backend/internal/ingest"
	"github.com/wonny/indexpulse/backend/pkg/config"
	"github.com/wonny/indexpulse/backend/pkg/logger"
)

// PremiumJob polls the QDII premium table and feeds the alert engine.
// ⭐ SSOT: 프리미엄 수집 스케줄은 이 Job에서만
type PremiumJob struct {
	ingest *ingest.Service
	engine *alert.Engine
	config *config.Config
	logger *logger.Logger
}

// NewPremiumJob creates the premium polling job.
func NewPremiumJob(svc *ingest.Service, engine *alert.Engine, cfg *config.Config, log *logger.Logger) *PremiumJob {
	return &PremiumJob{
		ingest: svc,
		engine: engine,
		config: cfg,
		logger: log.WithComponent("job-premium"),
	}
}

func (j *PremiumJob) Name() string {
	return "update_premium"
}

func (j *PremiumJob) DisplayName() string {
	return "更新QDII溢价率"
}

func (j *PremiumJob) Schedule() string {
	return fmt.Sprintf("@every %s", j.config.Scheduler.PremiumInterval)
}

// Run fetches the premium rows, refreshes the cache and runs the
// premium-threshold pass.
func (j *PremiumJob) Run(ctx context.Context) error {
	records, err := j.ingest.RefreshPremium(ctx)
	if err != nil {
		return fmt.Errorf("fetch premium: %w", err)
	}

	events, err := j.engine.ProcessPremiumBatch(ctx, records)
	if err != nil {
		return fmt.Errorf("process premium batch: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"funds":  len(records),
		"events": len(events),
	}).Debug("Premium sweep committed")
	return nil
}
