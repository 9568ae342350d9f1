package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/indexpulse/backend/internal/contracts"
	"github.com/wonny/indexpulse/backend/internal/export"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "데이터 내보내기",
	Long: `저장된 이력을 CSV 또는 PNG 차트로 내보냅니다.

Example:
  go run ./cmd/pulse export premium --fund 513500 --days 30 --csv out.csv
  go run ./cmd/pulse export premium --fund 513100 --days 7 --png premium.png`,
}

var (
	exportFund string
	exportDays int
	exportCSV  string
	exportPNG  string

	exportPremiumCmd = &cobra.Command{
		Use:   "premium",
		Short: "QDII 프리미엄 이력 내보내기",
		RunE:  runExportPremium,
	}
)

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportPremiumCmd)

	exportPremiumCmd.Flags().StringVar(&exportFund, "fund", "", "펀드 코드 (필수)")
	exportPremiumCmd.Flags().IntVar(&exportDays, "days", 30, "조회 범위 (일, 최대 90)")
	exportPremiumCmd.Flags().StringVar(&exportCSV, "csv", "", "CSV 출력 경로")
	exportPremiumCmd.Flags().StringVar(&exportPNG, "png", "", "PNG 차트 출력 경로")
	exportPremiumCmd.MarkFlagRequired("fund")
}

func runExportPremium(cmd *cobra.Command, args []string) error {
	if exportCSV == "" && exportPNG == "" {
		return fmt.Errorf("at least one of --csv or --png is required")
	}
	if !contracts.IsTrackedFund(exportFund) {
		return fmt.Errorf("unknown fund code %q", exportFund)
	}
	if exportDays < 1 || exportDays > 90 {
		return fmt.Errorf("--days must be between 1 and 90")
	}

	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	records, err := app.alertRepo.PremiumHistory(ctx, exportFund, exportDays)
	if err != nil {
		return fmt.Errorf("load premium history: %w", err)
	}
	if len(records) == 0 {
		PrintWarning(fmt.Sprintf("No history for fund %s in the last %d days", exportFund, exportDays))
		return nil
	}

	if exportCSV != "" {
		if err := export.WriteCSVFile(exportCSV, records); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		PrintSuccess(fmt.Sprintf("%d rows written to %s", len(records), exportCSV))
	}

	if exportPNG != "" {
		title := fmt.Sprintf("%s 溢价率 (%dd)", exportFund, exportDays)
		if name := records[0].FundName; name != "" {
			title = fmt.Sprintf("%s %s 溢价率 (%dd)", exportFund, name, exportDays)
		}
		if err := export.RenderChartFile(exportPNG, title, records); err != nil {
			return fmt.Errorf("render chart: %w", err)
		}
		PrintSuccess(fmt.Sprintf("Chart written to %s", exportPNG))
	}

	return nil
}
