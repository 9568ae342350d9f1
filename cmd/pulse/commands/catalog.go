package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// catalogCmd represents the catalog command
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "펀드 카탈로그 관리",
	Long: `Eastmoney 펀드 카탈로그를 동기화하거나 조회합니다.

Example:
  go run ./cmd/pulse catalog sync
  go run ./cmd/pulse catalog list`,
}

var (
	catalogSyncCmd = &cobra.Command{
		Use:   "sync",
		Short: "카탈로그 동기화",
		RunE:  runCatalogSync,
	}

	catalogListCmd = &cobra.Command{
		Use:   "list",
		Short: "저장된 프로필 목록",
		RunE:  runCatalogList,
	}
)

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogSyncCmd)
	catalogCmd.AddCommand(catalogListCmd)
}

func runCatalogSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	n, err := app.ingest.SyncCatalog(ctx, app.catalogRepo)
	if err != nil {
		return fmt.Errorf("sync catalog: %w", err)
	}

	PrintSuccess(fmt.Sprintf("%d fund profiles synced", n))
	return nil
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	profiles, err := app.catalogRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("list catalog: %w", err)
	}
	if len(profiles) == 0 {
		PrintInfo("Catalog is empty. Run: pulse catalog sync")
		return nil
	}

	fmt.Printf("%d fund profiles:\n", len(profiles))
	for _, p := range profiles {
		fmt.Printf("   %-7s %-16s %-10s %s\n", p.Code, p.Name, p.IndexType, p.Company)
	}
	return nil
}
