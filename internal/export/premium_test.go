package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/indexpulse/backend/internal/contracts"
)

func premiumHistory(n int) []contracts.PremiumRecord {
	base := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	records := make([]contracts.PremiumRecord, n)
	for i := range records {
		records[i] = contracts.PremiumRecord{
			FundCode:    "513500",
			FundName:    "标普500ETF",
			IndexType:   "sp500",
			Price:       2.05,
			NAV:         2.02,
			PremiumRate: 1.0 + float64(i)*0.01,
			RecordedAt:  base.Add(time.Duration(i) * 5 * time.Minute),
		}
	}
	return records
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, premiumHistory(3)))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4) // header + 3 rows

	assert.Equal(t, []string{"fund_code", "fund_name", "index_type", "price", "nav", "premium_rate", "recorded_at"}, rows[0])
	assert.Equal(t, "513500", rows[1][0])
	assert.Equal(t, "标普500ETF", rows[1][1])
	assert.Equal(t, "1.00", rows[1][5])
	assert.Equal(t, "1.02", rows[3][5])
}

func TestRenderChartProducesPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderChart(&buf, "513500 溢价率", premiumHistory(50)))

	// PNG magic bytes
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestRenderChartNeedsTwoRows(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, RenderChart(&buf, "x", premiumHistory(1)))
}

func TestDownsample(t *testing.T) {
	records := premiumHistory(2000)
	sampled := downsample(records, maxChartPoints)

	require.Len(t, sampled, maxChartPoints)
	assert.Equal(t, records[0].RecordedAt, sampled[0].RecordedAt)
	assert.Equal(t, records[len(records)-1].RecordedAt, sampled[len(sampled)-1].RecordedAt)

	short := premiumHistory(10)
	assert.Len(t, downsample(short, maxChartPoints), 10)

	for i, rec := range sampled {
		if i > 0 {
			assert.True(t, rec.RecordedAt.After(sampled[i-1].RecordedAt),
				fmt.Sprintf("sampled series must stay ordered at %d", i))
		}
	}
}
