package alert

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/wonny/indexpulse/backend/internal/contracts"
	"github.com/wonny/indexpulse/backend/pkg/config"
	"github.com/wonny/indexpulse/backend/pkg/logger"
	"github.com/wonny/indexpulse/backend/pkg/metrics"
)

// alert_config row keys
const (
	thresholdPremiumHigh = "premium_high"
	thresholdPremiumLow  = "premium_low"
	thresholdFundFlow    = "fund_flow"
	thresholdIndexMove   = "index_move"
)

// Thresholds are the live alert boundaries. Values start from config
// defaults and may be overridden by enabled alert_config rows.
type Thresholds struct {
	PremiumHigh float64
	PremiumLow  float64
	FundFlow    float64
	IndexMove   float64
}

// Broadcaster pushes committed events to live stream subscribers.
type Broadcaster interface {
	BroadcastEvent(event contracts.Event)
}

// Engine evaluates record batches against the thresholds and persists
// history + events per batch in one transaction.
//
// 알림은 무억제(present tense): 조건이 유지되는 한 매 평가마다 다시 발생함
type Engine struct {
	repo        *Repository
	logger      *logger.Logger
	metrics     *metrics.Recorder
	broadcaster Broadcaster

	mu         sync.RWMutex
	thresholds Thresholds
}

// NewEngine creates an alert engine seeded with the config defaults.
func NewEngine(repo *Repository, cfg *config.Config, log *logger.Logger, rec *metrics.Recorder) *Engine {
	return &Engine{
		repo:    repo,
		logger:  log.WithComponent("alert-engine"),
		metrics: rec,
		thresholds: Thresholds{
			PremiumHigh: cfg.Alerts.PremiumHigh,
			PremiumLow:  cfg.Alerts.PremiumLow,
			FundFlow:    cfg.Alerts.FundFlow,
			IndexMove:   cfg.Alerts.IndexMove,
		},
	}
}

// SetBroadcaster attaches the live event stream. Optional; nil means
// events are only persisted.
func (e *Engine) SetBroadcaster(b Broadcaster) {
	e.broadcaster = b
}

// Thresholds returns a copy of the live thresholds.
func (e *Engine) Thresholds() Thresholds {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.thresholds
}

// ReloadThresholds re-applies alert_config overrides on top of the
// current values. Missing or disabled rows keep their current value.
func (e *Engine) ReloadThresholds(ctx context.Context) error {
	overrides, err := e.repo.LoadThresholdOverrides(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if v, ok := overrides[thresholdPremiumHigh]; ok {
		e.thresholds.PremiumHigh = v
	}
	if v, ok := overrides[thresholdPremiumLow]; ok {
		e.thresholds.PremiumLow = v
	}
	if v, ok := overrides[thresholdFundFlow]; ok {
		e.thresholds.FundFlow = v
	}
	if v, ok := overrides[thresholdIndexMove]; ok {
		e.thresholds.IndexMove = v
	}

	e.logger.WithField("overrides", len(overrides)).Info("Alert thresholds reloaded")
	return nil
}

// ProcessPremiumBatch persists every premium row and emits events for
// rows beyond the premium thresholds.
func (e *Engine) ProcessPremiumBatch(ctx context.Context, records []contracts.PremiumRecord) ([]contracts.Event, error) {
	th := e.Thresholds()

	var events []contracts.Event
	for _, rec := range records {
		if event := evaluatePremium(rec, th); event != nil {
			events = append(events, *event)
		}
	}

	if err := e.repo.CommitPremiumBatch(ctx, records, events); err != nil {
		return nil, fmt.Errorf("premium batch commit failed: %w", err)
	}
	e.publish(events)
	return events, nil
}

// ProcessFlowBatch persists both flow directions and emits threshold
// events. Either record may be nil when its fetch failed.
func (e *Engine) ProcessFlowBatch(ctx context.Context, north, south *contracts.FlowRecord) ([]contracts.Event, error) {
	th := e.Thresholds()

	var records []contracts.FlowRecord
	var events []contracts.Event

	if north != nil {
		records = append(records, *north)
		if event := evaluateNorthFlow(*north, th); event != nil {
			events = append(events, *event)
		}
	}
	if south != nil {
		records = append(records, *south)
		if event := evaluateSouthFlow(*south, th); event != nil {
			events = append(events, *event)
		}
	}

	if err := e.repo.CommitFlowBatch(ctx, records, events); err != nil {
		return nil, fmt.Errorf("flow batch commit failed: %w", err)
	}
	e.publish(events)
	return events, nil
}

// ProcessIndexBatch persists every quote snapshot and emits events for
// subjects moving beyond the index threshold.
func (e *Engine) ProcessIndexBatch(ctx context.Context, quotes map[string]contracts.Quote) ([]contracts.Event, error) {
	th := e.Thresholds()

	var records []contracts.Quote
	var events []contracts.Event
	for _, indexCode := range contracts.IndexOrder {
		quote, ok := quotes[indexCode]
		if !ok {
			continue
		}
		records = append(records, quote)
		if event := evaluateIndexMove(quote, th); event != nil {
			events = append(events, *event)
		}
	}

	if err := e.repo.CommitIndexBatch(ctx, records, events); err != nil {
		return nil, fmt.Errorf("index batch commit failed: %w", err)
	}
	e.publish(events)
	return events, nil
}

// publish pushes committed events to metrics and the live stream.
func (e *Engine) publish(events []contracts.Event) {
	for _, event := range events {
		if e.metrics != nil {
			e.metrics.RecordEvent(event.EventType)
		}
		if e.broadcaster != nil {
			e.broadcaster.BroadcastEvent(event)
		}
		e.logger.WithFields(map[string]interface{}{
			"event_type": event.EventType,
			"target":     event.TargetIndex,
			"importance": event.Importance,
		}).Info(event.Title)
	}
}

// evaluatePremium applies the premium thresholds to one fund row.
func evaluatePremium(rec contracts.PremiumRecord, th Thresholds) *contracts.Event {
	rate := rec.PremiumRate

	var impact, summary string
	var importance int
	switch {
	case rate >= th.PremiumHigh:
		// 고평가: 매수자에게 불리
		impact = contracts.ImpactNegative
		summary = fmt.Sprintf("溢价率 %.2f%% 偏高，注意风险", rate)
		importance = 3
		if rate > 3 {
			importance = 4
		}
	case rate <= th.PremiumLow:
		// 할인: 매수자에게 유리
		impact = contracts.ImpactPositive
		summary = fmt.Sprintf("折价率 %.2f%%，可能存在套利机会", math.Abs(rate))
		importance = 3
		if rate < -3 {
			importance = 4
		}
	default:
		return nil
	}

	return &contracts.Event{
		EventType:   contracts.EventPremiumAlert,
		TargetIndex: rec.IndexType,
		Title:       fmt.Sprintf("【%s】溢价率预警 %+.2f%%", rec.FundName, rate),
		Summary:     summary,
		Impact:      impact,
		Importance:  importance,
		Data: map[string]interface{}{
			"fund_code":    rec.FundCode,
			"fund_name":    rec.FundName,
			"premium_rate": rate,
			"price":        rec.Price,
			"nav":          rec.NAV,
		},
	}
}

// evaluateNorthFlow applies the flow threshold to the northbound total.
// North flow acts on the A-share market, so the event targets csi300.
func evaluateNorthFlow(rec contracts.FlowRecord, th Thresholds) *contracts.Event {
	total := rec.Total

	var title, impact string
	var importance int
	switch {
	case total >= th.FundFlow:
		title = fmt.Sprintf("北向资金大幅流入 %.2f亿", total)
		impact = contracts.ImpactPositive
		importance = 3
		if total > 80 {
			importance = 4
		}
	case total <= -th.FundFlow:
		title = fmt.Sprintf("北向资金大幅流出 %.2f亿", math.Abs(total))
		impact = contracts.ImpactNegative
		importance = 3
		if total < -80 {
			importance = 4
		}
	default:
		return nil
	}

	return &contracts.Event{
		EventType:   contracts.EventFundFlow,
		TargetIndex: "csi300",
		Title:       title,
		Summary:     fmt.Sprintf("沪股通 %.2f亿，深股通 %.2f亿", rec.SHConnect, rec.SZConnect),
		Impact:      impact,
		Importance:  importance,
		Data:        flowData(rec),
	}
}

// evaluateSouthFlow applies the flow threshold to the southbound total.
func evaluateSouthFlow(rec contracts.FlowRecord, th Thresholds) *contracts.Event {
	total := rec.Total
	if math.Abs(total) < th.FundFlow {
		return nil
	}

	direction := "流入"
	impact := contracts.ImpactPositive
	if total <= 0 {
		direction = "流出"
		impact = contracts.ImpactNegative
	}

	return &contracts.Event{
		EventType:   contracts.EventFundFlow,
		TargetIndex: "hsi",
		Title:       fmt.Sprintf("南向资金%s %.2f亿", direction, math.Abs(total)),
		Summary:     fmt.Sprintf("港股通(沪) %.2f亿，港股通(深) %.2f亿", rec.SHConnect, rec.SZConnect),
		Impact:      impact,
		Importance:  3,
		Data:        flowData(rec),
	}
}

// evaluateIndexMove applies the move threshold to one quote.
func evaluateIndexMove(q contracts.Quote, th Thresholds) *contracts.Event {
	pct := q.ChangePercent
	if math.Abs(pct) < th.IndexMove {
		return nil
	}

	direction := "上涨"
	impact := contracts.ImpactPositive
	if pct <= 0 {
		direction = "下跌"
		impact = contracts.ImpactNegative
	}

	importance := 3
	if math.Abs(pct) > 3 {
		importance = 4
	}

	name := q.Name
	if name == "" {
		name = q.IndexCode
	}

	return &contracts.Event{
		EventType:   contracts.EventIndexMove,
		TargetIndex: q.IndexCode,
		Title:       fmt.Sprintf("【%s】%s %.2f%%", name, direction, math.Abs(pct)),
		Summary:     fmt.Sprintf("当前点位 %.2f，涨跌 %+.2f", q.Price, q.Change),
		Impact:      impact,
		Importance:  importance,
		Data: map[string]interface{}{
			"index_code":     q.IndexCode,
			"name":           name,
			"price":          q.Price,
			"change":         q.Change,
			"change_percent": pct,
		},
	}
}

func flowData(rec contracts.FlowRecord) map[string]interface{} {
	return map[string]interface{}{
		"flow_type":   rec.FlowType,
		"sh_connect":  rec.SHConnect,
		"sz_connect":  rec.SZConnect,
		"total":       rec.Total,
		"update_time": rec.UpdateTime,
	}
}
