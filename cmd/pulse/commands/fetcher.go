package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/indexpulse/backend/internal/contracts"
)

// fetcherCmd represents the fetcher command
var fetcherCmd = &cobra.Command{
	Use:   "fetcher",
	Short: "수집기 수동 실행",
	Long: `개별 소스 수집기를 수동으로 실행하고 결과를 출력합니다.

저장 없이 업스트림 응답만 확인할 때 사용합니다.

Sources:
  indices     - 지수 시세 (Sina + Yahoo)
  premium     - QDII 프리미엄 (Jisilu)
  flow        - 남북향 자금 실시간 (Eastmoney)
  indicators  - 매크로 지표 (VIX/DXY/국채/심리)

Example:
  go run ./cmd/pulse fetcher collect indices
  go run ./cmd/pulse fetcher collect premium`,
}

var fetcherCollectCmd = &cobra.Command{
	Use:   "collect [source]",
	Short: "소스 수집 실행",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollect,
}

func init() {
	rootCmd.AddCommand(fetcherCmd)
	fetcherCmd.AddCommand(fetcherCollectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	source := args[0]

	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	switch source {
	case "indices":
		quotes, err := app.ingest.Indices(ctx)
		if err != nil {
			return fmt.Errorf("fetch indices: %w", err)
		}
		PrintSuccess(fmt.Sprintf("%d indices fetched", len(quotes)))
		for _, code := range contracts.IndexOrder {
			q, ok := quotes[code]
			if !ok {
				continue
			}
			fmt.Printf("   %-10s %-8s %10.2f  %+.2f%%\n", code, q.Name, q.Price, q.ChangePercent)
		}

	case "premium":
		records, err := app.ingest.Premium(ctx)
		if err != nil {
			return fmt.Errorf("fetch premium: %w", err)
		}
		PrintSuccess(fmt.Sprintf("%d funds fetched", len(records)))
		for _, rec := range records {
			fmt.Printf("   %-7s %-12s %+6.2f%%  (price %.3f / nav %.3f)\n",
				rec.FundCode, rec.FundName, rec.PremiumRate, rec.Price, rec.NAV)
		}

	case "flow":
		snapshot, err := app.ingest.Flows(ctx)
		if err != nil {
			return fmt.Errorf("fetch flows: %w", err)
		}
		PrintSuccess("Flow snapshot fetched")
		if snapshot.North != nil {
			fmt.Printf("   北向: 总 %+.2f亿 (沪 %+.2f / 深 %+.2f)\n",
				snapshot.North.Total, snapshot.North.SHConnect, snapshot.North.SZConnect)
		}
		if snapshot.South != nil {
			fmt.Printf("   南向: 总 %+.2f亿 (沪 %+.2f / 深 %+.2f)\n",
				snapshot.South.Total, snapshot.South.SHConnect, snapshot.South.SZConnect)
		}

	case "indicators":
		bundle, err := app.ingest.Indicators(ctx)
		if err != nil {
			return fmt.Errorf("fetch indicators: %w", err)
		}
		PrintSuccess("Market indicators fetched")
		if bundle.VIX != nil {
			fmt.Printf("   VIX       : %.2f (%s)\n", bundle.VIX.Value, bundle.VIX.Level)
		}
		if bundle.DXY != nil {
			fmt.Printf("   DXY       : %.2f (%s)\n", bundle.DXY.Value, bundle.DXY.Trend)
		}
		if bundle.Treasury10Y != nil {
			fmt.Printf("   10Y yield : %.3f%%\n", bundle.Treasury10Y.Yield)
		}
		if bundle.YieldCurve != nil {
			fmt.Printf("   10Y-2Y    : %.2f%% (%s)\n", bundle.YieldCurve.Spread, bundle.YieldCurve.Description)
		}
		if bundle.FearGreed != nil {
			fmt.Printf("   Sentiment : %d (%s)\n", bundle.FearGreed.Score, bundle.FearGreed.Description)
		}

	default:
		return fmt.Errorf("unknown source %q (valid: indices, premium, flow, indicators)", source)
	}

	return nil
}
