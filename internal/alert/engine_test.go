package alert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/indexpulse/backend/internal/contracts"
)

func defaultThresholds() Thresholds {
	return Thresholds{
		PremiumHigh: 1.5,
		PremiumLow:  -1.5,
		FundFlow:    50,
		IndexMove:   2.0,
	}
}

func TestEvaluatePremium(t *testing.T) {
	th := defaultThresholds()

	t.Run("moderate premium alerts at importance 3", func(t *testing.T) {
		event := evaluatePremium(contracts.PremiumRecord{
			FundCode:    "513500",
			FundName:    "标普500ETF",
			IndexType:   "sp500",
			PremiumRate: 2.0,
			Price:       2.05,
			NAV:         2.01,
		}, th)

		require.NotNil(t, event)
		assert.Equal(t, contracts.EventPremiumAlert, event.EventType)
		assert.Equal(t, "sp500", event.TargetIndex)
		assert.Equal(t, contracts.ImpactNegative, event.Impact)
		assert.Equal(t, 3, event.Importance)
		assert.Equal(t, "【标普500ETF】溢价率预警 +2.00%", event.Title)
		assert.Equal(t, "溢价率 2.00% 偏高，注意风险", event.Summary)
	})

	t.Run("extreme premium escalates to importance 4", func(t *testing.T) {
		event := evaluatePremium(contracts.PremiumRecord{
			FundName:    "纳指ETF",
			PremiumRate: 4.0,
		}, th)

		require.NotNil(t, event)
		assert.Equal(t, 4, event.Importance)
	})

	t.Run("discount alerts positive", func(t *testing.T) {
		event := evaluatePremium(contracts.PremiumRecord{
			FundName:    "恒生ETF",
			IndexType:   "hsi",
			PremiumRate: -1.8,
		}, th)

		require.NotNil(t, event)
		assert.Equal(t, contracts.ImpactPositive, event.Impact)
		assert.Equal(t, 3, event.Importance)
		assert.Equal(t, "【恒生ETF】溢价率预警 -1.80%", event.Title)
		assert.Equal(t, "折价率 1.80%，可能存在套利机会", event.Summary)
	})

	t.Run("deep discount escalates to importance 4", func(t *testing.T) {
		event := evaluatePremium(contracts.PremiumRecord{PremiumRate: -3.5}, th)
		require.NotNil(t, event)
		assert.Equal(t, 4, event.Importance)
	})

	t.Run("threshold boundaries are inclusive", func(t *testing.T) {
		assert.NotNil(t, evaluatePremium(contracts.PremiumRecord{PremiumRate: 1.5}, th))
		assert.NotNil(t, evaluatePremium(contracts.PremiumRecord{PremiumRate: -1.5}, th))
		assert.Nil(t, evaluatePremium(contracts.PremiumRecord{PremiumRate: 1.49}, th))
		assert.Nil(t, evaluatePremium(contracts.PremiumRecord{PremiumRate: -1.49}, th))
	})
}

func TestEvaluateNorthFlow(t *testing.T) {
	th := defaultThresholds()

	t.Run("strong inflow targets csi300", func(t *testing.T) {
		event := evaluateNorthFlow(contracts.FlowRecord{
			FlowType:  contracts.FlowNorth,
			SHConnect: 35.2,
			SZConnect: 26.9,
			Total:     62.1,
		}, th)

		require.NotNil(t, event)
		assert.Equal(t, contracts.EventFundFlow, event.EventType)
		assert.Equal(t, "csi300", event.TargetIndex)
		assert.Equal(t, contracts.ImpactPositive, event.Impact)
		assert.Equal(t, 3, event.Importance)
		assert.Equal(t, "北向资金大幅流入 62.10亿", event.Title)
		assert.Equal(t, "沪股通 35.20亿，深股通 26.90亿", event.Summary)
	})

	t.Run("massive inflow escalates", func(t *testing.T) {
		event := evaluateNorthFlow(contracts.FlowRecord{Total: 85}, th)
		require.NotNil(t, event)
		assert.Equal(t, 4, event.Importance)
	})

	t.Run("outflow is negative with absolute title", func(t *testing.T) {
		event := evaluateNorthFlow(contracts.FlowRecord{Total: -90}, th)
		require.NotNil(t, event)
		assert.Equal(t, contracts.ImpactNegative, event.Impact)
		assert.Equal(t, 4, event.Importance)
		assert.Equal(t, "北向资金大幅流出 90.00亿", event.Title)
	})

	t.Run("boundary 50 fires, 49.99 does not", func(t *testing.T) {
		assert.NotNil(t, evaluateNorthFlow(contracts.FlowRecord{Total: 50}, th))
		assert.NotNil(t, evaluateNorthFlow(contracts.FlowRecord{Total: -50}, th))
		assert.Nil(t, evaluateNorthFlow(contracts.FlowRecord{Total: 49.99}, th))
	})
}

func TestEvaluateSouthFlow(t *testing.T) {
	th := defaultThresholds()

	t.Run("targets hsi with fixed importance", func(t *testing.T) {
		event := evaluateSouthFlow(contracts.FlowRecord{
			FlowType:  contracts.FlowSouth,
			SHConnect: 40.0,
			SZConnect: 25.0,
			Total:     65.0,
		}, th)

		require.NotNil(t, event)
		assert.Equal(t, "hsi", event.TargetIndex)
		assert.Equal(t, 3, event.Importance)
		assert.Equal(t, "南向资金流入 65.00亿", event.Title)
		assert.Equal(t, "港股通(沪) 40.00亿，港股通(深) 25.00亿", event.Summary)
	})

	t.Run("abs threshold catches outflow, importance stays 3", func(t *testing.T) {
		event := evaluateSouthFlow(contracts.FlowRecord{Total: -120}, th)
		require.NotNil(t, event)
		assert.Equal(t, contracts.ImpactNegative, event.Impact)
		assert.Equal(t, 3, event.Importance)
		assert.Equal(t, "南向资金流出 120.00亿", event.Title)
	})

	t.Run("below threshold is silent", func(t *testing.T) {
		assert.Nil(t, evaluateSouthFlow(contracts.FlowRecord{Total: 30}, th))
		assert.Nil(t, evaluateSouthFlow(contracts.FlowRecord{Total: -30}, th))
	})
}

func TestEvaluateIndexMove(t *testing.T) {
	th := defaultThresholds()

	t.Run("rally fires positive", func(t *testing.T) {
		event := evaluateIndexMove(contracts.Quote{
			IndexCode:     "csi300",
			Name:          "沪深300",
			Price:         3978.0,
			Change:        78.0,
			ChangePercent: 2.0,
		}, th)

		require.NotNil(t, event)
		assert.Equal(t, contracts.EventIndexMove, event.EventType)
		assert.Equal(t, "csi300", event.TargetIndex)
		assert.Equal(t, contracts.ImpactPositive, event.Impact)
		assert.Equal(t, 3, event.Importance)
		assert.Equal(t, "【沪深300】上涨 2.00%", event.Title)
		assert.Equal(t, "当前点位 3978.00，涨跌 +78.00", event.Summary)
	})

	t.Run("selloff fires negative and escalates past 3 percent", func(t *testing.T) {
		event := evaluateIndexMove(contracts.Quote{
			IndexCode:     "hstech",
			Name:          "恒生科技",
			Price:         3500.0,
			Change:        -126.0,
			ChangePercent: -3.47,
		}, th)

		require.NotNil(t, event)
		assert.Equal(t, contracts.ImpactNegative, event.Impact)
		assert.Equal(t, 4, event.Importance)
		assert.Equal(t, "【恒生科技】下跌 3.47%", event.Title)
	})

	t.Run("quiet day is silent", func(t *testing.T) {
		assert.Nil(t, evaluateIndexMove(contracts.Quote{ChangePercent: 1.99}, th))
	})
}
