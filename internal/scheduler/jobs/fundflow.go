package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/indexpulse/backend/internal/alert"
	"github.com/wonny/indexpulse/backend/internal/ingest"
	"github.com/wonny/indexpulse/backend/pkg/config"
	"github.com/wonny/indexpulse/backend/pkg/logger"
)

// FundFlowJob polls both connect-program directions and feeds the
// alert engine.
// ⭐ SSOT: 자금 흐름 수집 스케줄은 이 Job에서만
type FundFlowJob struct {
	ingest *ingest.Service
	engine *alert.Engine
	config *config.Config
	logger *logger.Logger
}

// NewFundFlowJob creates the flow polling job.
func NewFundFlowJob(svc *ingest.Service, engine *alert.Engine, cfg *config.Config, log *logger.Logger) *FundFlowJob {
	return &FundFlowJob{
		ingest: svc,
		engine: engine,
		config: cfg,
		logger: log.WithComponent("job-fundflow"),
	}
}

func (j *FundFlowJob) Name() string {
	return "update_fund_flow"
}

func (j *FundFlowJob) DisplayName() string {
	return "更新资金流向"
}

func (j *FundFlowJob) Schedule() string {
	return fmt.Sprintf("@every %s", j.config.Scheduler.FlowInterval)
}

// Run fetches the flow snapshot, refreshes the cache and runs the
// flow-threshold pass. A single dead direction still alerts on the
// live one.
func (j *FundFlowJob) Run(ctx context.Context) error {
	snapshot, err := j.ingest.RefreshFlows(ctx)
	if err != nil {
		return fmt.Errorf("fetch flows: %w", err)
	}

	events, err := j.engine.ProcessFlowBatch(ctx, snapshot.North, snapshot.South)
	if err != nil {
		return fmt.Errorf("process flow batch: %w", err)
	}

	j.logger.WithField("events", len(events)).Debug("Flow sweep committed")
	return nil
}
