package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// predictCmd represents the predict command
var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "48시간 예측 관리",
	Long: `48시간 예측을 생성하거나 조회합니다.

Subcommands:
  refresh   - 전 지수 예측 재생성
  show      - 현재 유효한 예측 조회
  accuracy  - 만료된 예측 대비 실제 변동 검증

Example:
  go run ./cmd/pulse predict refresh
  go run ./cmd/pulse predict show
  go run ./cmd/pulse predict accuracy --days 14`,
}

var (
	accuracyDays int

	predictRefreshCmd = &cobra.Command{
		Use:   "refresh",
		Short: "전 지수 예측 재생성",
		RunE:  runPredictRefresh,
	}

	predictShowCmd = &cobra.Command{
		Use:   "show",
		Short: "현재 유효한 예측 조회",
		RunE:  runPredictShow,
	}

	predictAccuracyCmd = &cobra.Command{
		Use:   "accuracy",
		Short: "예측 정확도 검증",
		RunE:  runPredictAccuracy,
	}
)

func init() {
	rootCmd.AddCommand(predictCmd)
	predictCmd.AddCommand(predictRefreshCmd)
	predictCmd.AddCommand(predictShowCmd)
	predictCmd.AddCommand(predictAccuracyCmd)

	predictAccuracyCmd.Flags().IntVar(&accuracyDays, "days", 7, "검증 범위 (일)")
}

func runPredictRefresh(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	predictions, err := app.predictor.GenerateAll(ctx)
	if err != nil {
		return fmt.Errorf("generate predictions: %w", err)
	}

	PrintSuccess(fmt.Sprintf("%d predictions generated", len(predictions)))
	for _, p := range predictions {
		fmt.Printf("   %-10s %-8s %+6.2f%%  [%s/%s]\n",
			p.IndexCode, p.Direction, p.PredictedChange, p.Confidence, p.ExpiresAt.Format("01-02 15:04"))
	}
	return nil
}

func runPredictShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	predictions, err := app.forecastRepo.AllLatest(ctx)
	if err != nil {
		return fmt.Errorf("load predictions: %w", err)
	}
	if len(predictions) == 0 {
		PrintInfo("No valid predictions. Run: pulse predict refresh")
		return nil
	}

	for _, p := range predictions {
		fmt.Printf("📊 %s (%s)\n", p.IndexName, p.IndexCode)
		fmt.Printf("   %s\n", p.Summary)
		fmt.Printf("   Direction: %s / Confidence: %s / Expires: %s\n",
			p.Direction, p.Confidence, p.ExpiresAt.Format("2006-01-02 15:04"))
		for _, f := range p.Factors {
			fmt.Printf("   • %s: %s (%s)\n", f.Label, f.Value, f.Impact)
		}
		fmt.Println()
	}
	return nil
}

func runPredictAccuracy(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	evaluations, err := app.evaluator.EvaluateRecent(ctx, accuracyDays)
	if err != nil {
		return fmt.Errorf("evaluate predictions: %w", err)
	}

	report := app.evaluator.Accuracy(evaluations)
	if report == nil {
		PrintInfo("No expired predictions to evaluate")
		return nil
	}

	PrintSuccess(fmt.Sprintf("%d predictions settled over last %d days", report.SampleCount, accuracyDays))
	fmt.Printf("   Hit Rate : %.1f%%\n", report.HitRate*100)
	fmt.Printf("   MAE      : %.3f\n", report.MAE)
	fmt.Printf("   RMSE     : %.3f\n", report.RMSE)
	fmt.Printf("   Bias     : %+.3f\n", report.MeanError)

	fmt.Println()
	for code, subject := range app.evaluator.AccuracyBySubject(evaluations) {
		fmt.Printf("   %-10s hit %.0f%% (n=%d)\n", code, subject.HitRate*100, subject.SampleCount)
	}
	return nil
}
