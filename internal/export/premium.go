// Package export renders persisted premium history to CSV files and
// PNG line charts.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/wonny/indexpulse/backend/internal/contracts"
)

// maxChartPoints caps the series length; longer histories are
// downsampled to keep the PNG readable.
const maxChartPoints = 500

// WriteCSV streams the premium rows as CSV, oldest row first as given.
func WriteCSV(w io.Writer, records []contracts.PremiumRecord) error {
	cw := csv.NewWriter(w)

	header := []string{"fund_code", "fund_name", "index_type", "price", "nav", "premium_rate", "recorded_at"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.FundCode,
			rec.FundName,
			rec.IndexType,
			fmt.Sprintf("%.4f", rec.Price),
			fmt.Sprintf("%.4f", rec.NAV),
			fmt.Sprintf("%.2f", rec.PremiumRate),
			rec.RecordedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the premium rows to a CSV file at path.
func WriteCSVFile(path string, records []contracts.PremiumRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer f.Close()
	return WriteCSV(f, records)
}

// RenderChart draws the premium-rate time series as a PNG.
func RenderChart(w io.Writer, title string, records []contracts.PremiumRecord) error {
	if len(records) < 2 {
		return fmt.Errorf("not enough rows to chart (%d)", len(records))
	}

	sampled := downsample(records, maxChartPoints)
	xs := make([]time.Time, len(sampled))
	ys := make([]float64, len(sampled))
	for i, rec := range sampled {
		xs[i] = rec.RecordedAt
		ys[i] = rec.PremiumRate
	}

	graph := chart.Chart{
		Title:  title,
		Width:  1024,
		Height: 400,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("01-02 15:04"),
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f%%", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "premium rate",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: chart.ColorBlue,
					StrokeWidth: 1.5,
				},
			},
		},
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// RenderChartFile writes the premium chart to a PNG file at path.
func RenderChartFile(path, title string, records []contracts.PremiumRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()
	return RenderChart(f, title, records)
}

// downsample thins the series to at most max points, keeping the first
// and last rows.
func downsample(records []contracts.PremiumRecord, max int) []contracts.PremiumRecord {
	if len(records) <= max {
		return records
	}

	step := float64(len(records)-1) / float64(max-1)
	sampled := make([]contracts.PremiumRecord, 0, max)
	for i := 0; i < max; i++ {
		sampled = append(sampled, records[int(float64(i)*step+0.5)])
	}
	sampled[max-1] = records[len(records)-1]
	return sampled
}
