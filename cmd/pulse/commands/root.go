package commands

import (
	"github.com/spf13/cobra"
)

// Version is the CLI version string.
const Version = "1.0.0"

var (
	// Global flags
	configFile string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "IndexPulse - 글로벌 지수 모니터링 시스템",
	Long: `IndexPulse Unified CLI

글로벌 지수/QDII 모니터링 백엔드.
지수 시세, 프리미엄, 남북향 자금, 매크로 지표를 수집하고
임계값 경보와 48시간 예측을 생성합니다.

Usage:
  go run ./cmd/pulse [command]

Examples:
  go run ./cmd/pulse api
  go run ./cmd/pulse fetcher collect indices
  go run ./cmd/pulse predict refresh
  go run ./cmd/pulse export premium --fund 513500 --png premium.png`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug|info|warn|error)")
}
