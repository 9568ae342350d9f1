package logger_test

import (
	"errors"

	"github.com/wonny/indexpulse/backend/pkg/config"
	"github.com/wonny/indexpulse/backend/pkg/logger"
)

// Example_basic demonstrates basic logger usage
func Example_basic() {
	// Load config
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "console",
	}

	// Create logger (SSOT)
	log := logger.New(cfg)

	// Basic logging
	log.Debug("This won't appear (level is info)")
	log.Info("Application started")
	log.Warn("Upstream responded slowly")
	log.Error("Failed to connect")

	// Formatted logging
	log.Infof("Fetched %d premium rows", 14)
	log.Warnf("Retry attempt %d of %d", 3, 5)
}

// Example_withFields demonstrates structured logging with fields
func Example_withFields() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	}

	log := logger.New(cfg)

	// Add single field
	jobLog := log.WithField("job", "update_premium")
	jobLog.Info("Job completed")

	// Add multiple fields
	alertLog := log.WithFields(map[string]interface{}{
		"fund_code":    "513500",
		"premium_rate": 2.35,
		"event_type":   "premium_alert",
	})
	alertLog.Info("Alert created")

	// Emits JSON lines such as:
	//   {"level":"info","job":"update_premium","message":"Job completed"}
	//   {"level":"info","fund_code":"513500","premium_rate":2.35,"event_type":"premium_alert","message":"Alert created"}
}

// Example_withError demonstrates error logging
func Example_withError() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "error",
		LogFormat: "json",
	}

	log := logger.New(cfg)

	// Log with error
	err := errors.New("upstream request timeout")
	log.WithError(err).Error("Failed to fetch index quotes")

	// Combine error with fields
	log.WithError(err).
		WithFields(map[string]interface{}{
			"source":      "sina",
			"retry_count": 3,
		}).
		Error("Fetch failed after retries")
}

// Example_environments demonstrates different log formats
func Example_environments() {
	// Development: Pretty console logs
	devCfg := &config.Config{
		Env:       "development",
		LogLevel:  "debug",
		LogFormat: "console",
	}
	devLog := logger.New(devCfg)
	devLog.Debug("Debugging application flow")
	devLog.Info("Request received")

	// Production: JSON logs
	prodCfg := &config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	}
	prodLog := logger.New(prodCfg)
	prodLog.Info("Service started")
	prodLog.Warn("High memory usage detected")
}
