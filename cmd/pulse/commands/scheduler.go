package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `수집 스케줄러를 시작하거나 작업을 관리합니다.

등록되는 작업:
- update_indices: 2분마다 (지수 시세)
- update_premium: 5분마다 (QDII 프리미엄)
- update_fund_flow: 10분마다 (남북향 자금)

Subcommands:
  start   - 스케줄러 시작 (API 서버 없이)
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행
  status  - 작업 실행 상태 조회

Example:
  go run ./cmd/pulse scheduler start
  go run ./cmd/pulse scheduler run update_premium`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "작업 실행 상태 조회",
		RunE:  showStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== IndexPulse Scheduler ===")

	app, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer app.Close()

	app.sched.Start()

	fmt.Println("\n✅ Scheduler started")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range app.sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	app.sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	app, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Println("Registered jobs:")
	for jobName, stat := range app.sched.GetJobStats() {
		fmt.Printf("  - %s (%s) %s\n", jobName, stat.DisplayName, stat.Schedule)
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	app, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Printf("Running job: %s\n", jobName)

	if err := app.sched.Trigger(jobName); err != nil {
		PrintError(fmt.Sprintf("Job failed: %v", err))
		return err
	}

	PrintSuccess("Job completed")
	return nil
}

func showStatus(cmd *cobra.Command, args []string) error {
	app, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Println("Job Statistics:")
	fmt.Println()

	for jobName, stat := range app.sched.GetJobStats() {
		fmt.Printf("📊 %s (%s)\n", jobName, stat.DisplayName)
		fmt.Printf("   Schedule: %s\n", stat.Schedule)
		fmt.Printf("   Total Runs: %d\n", stat.TotalRuns)
		fmt.Printf("   Success: %d (%.1f%%)\n", stat.SuccessCount, stat.SuccessRate*100)
		fmt.Printf("   Failures: %d\n", stat.FailureCount)

		if stat.LastRun != nil {
			fmt.Printf("   Last Run: %s\n", stat.LastRun.Format("2006-01-02 15:04:05"))
		}
		if stat.LastFailure != nil {
			fmt.Printf("   Last Failure: %s\n", stat.LastFailure.Format("2006-01-02 15:04:05"))
		}

		fmt.Println()
	}

	return nil
}
