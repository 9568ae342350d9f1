package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/indexpulse/backend/internal/api"
	"github.com/wonny/indexpulse/backend/internal/api/handlers"
	"github.com/wonny/indexpulse/backend/internal/api/stream"
	"github.com/wonny/indexpulse/backend/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버와 수집 스케줄러를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 수집 스케줄러 시작 (지수/프리미엄/자금 흐름)
- 웹소켓 이벤트 스트림 제공
- 메트릭 리스너 시작 (METRICS_ENABLED=true)

Example:
  go run ./cmd/pulse api
  go run ./cmd/pulse api --port 8089`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT 환경변수)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== IndexPulse API Server ===")

	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if apiPort != "" {
		app.cfg.Port = apiPort
	}
	log := app.log

	// Event stream hub, wired as the alert engine's broadcaster
	hub := stream.NewHub(log)
	go hub.Run()
	defer hub.Stop()
	app.engine.SetBroadcaster(hub)

	// Handlers
	h := api.Handlers{
		System:     handlers.NewSystemHandler(app.cfg, app.sched, Version, log),
		Events:     handlers.NewEventsHandler(app.alertRepo, log),
		Premium:    handlers.NewPremiumHandler(app.ingest, app.alertRepo, log),
		FundFlow:   handlers.NewFundFlowHandler(app.ingest, app.alertRepo, log),
		Indices:    handlers.NewIndicesHandler(app.ingest, app.alertRepo, log),
		Market:     handlers.NewMarketHandler(app.ingest, log),
		Prediction: handlers.NewPredictionHandler(app.forecastRepo, app.predictor, app.evaluator, log),
		Catalog:    handlers.NewCatalogHandler(app.ingest, app.catalogRepo, log),
	}

	var limiter *redis.RateLimiter
	if app.redis != nil && app.redis.Enabled() {
		limiter = redis.NewRateLimiter(app.redis, "pulse")
	}

	router := api.NewRouter(app.cfg, h, hub, limiter, log)
	server := api.New(app.cfg, log, router)

	// Optional dedicated metrics listener
	var metricsServer *http.Server
	if app.cfg.MetricsEnabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", app.metrics.Handler())
		metricsServer = &http.Server{Addr: ":" + app.cfg.MetricsPort, Handler: mux}
		go func() {
			log.WithField("port", app.cfg.MetricsPort).Info("Metrics listener started")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("Metrics listener failed")
			}
		}()
	}

	app.sched.Start()

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", app.cfg.Port)
	fmt.Println("\nScheduled jobs:")
	for _, jobName := range app.sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")
	app.sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if metricsServer != nil {
		metricsServer.Shutdown(shutdownCtx)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
