package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port        string
	Env         string // development, staging, production
	CORSOrigins []string

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Polling scheduler
	Scheduler SchedulerConfig

	// Alert thresholds
	Alerts AlertConfig

	// Upstream sources
	Sources SourcesConfig

	// Prediction
	Prediction PredictionConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
	MetricsPort    string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// SchedulerConfig holds polling cadences for the periodic jobs
type SchedulerConfig struct {
	Enabled         bool
	IndicesInterval time.Duration
	PremiumInterval time.Duration
	FlowInterval    time.Duration
}

// AlertConfig holds default alert thresholds. Rows in the alert_config
// table override these at engine construction.
type AlertConfig struct {
	PremiumHigh float64 // premium rate (%) at or above which to alert
	PremiumLow  float64 // premium rate (%) at or below which to alert
	FundFlow    float64 // net flow (亿) at or beyond which to alert
	IndexMove   float64 // absolute index change (%) at or above which to alert
}

// SourcesConfig holds upstream endpoints and transport tuning.
// Base URLs are overridable so tests can point adapters at httptest servers.
type SourcesConfig struct {
	SinaBaseURL          string
	YahooBaseURL         string
	EastmoneyBaseURL     string
	EastmoneyHistBaseURL string
	JisiluBaseURL        string
	FundProfileBaseURL   string

	UserAgent   string
	Timeout     time.Duration
	MaxRetries  int
	ThrottleMin time.Duration
	ThrottleMax time.Duration
}

// PredictionConfig holds scoring engine settings
type PredictionConfig struct {
	Horizon time.Duration // validity window of a generated prediction
}

// Load reads configuration from environment variables.
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port:        getEnv("PORT", "8089"),
		Env:         getEnv("ENV", "development"),
		CORSOrigins: getEnvAsSlice("CORS_ORIGINS", []string{"*"}),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "indexpulse"),
			User:            getEnv("DB_USER", "indexpulse"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		// Scheduler
		Scheduler: SchedulerConfig{
			Enabled:         getEnvAsBool("ENABLE_SCHEDULER", true),
			IndicesInterval: getEnvAsDuration("SCHEDULE_INDICES_INTERVAL", "2m"),
			PremiumInterval: getEnvAsDuration("SCHEDULE_PREMIUM_INTERVAL", "5m"),
			FlowInterval:    getEnvAsDuration("SCHEDULE_FLOW_INTERVAL", "10m"),
		},

		// Alert thresholds
		Alerts: AlertConfig{
			PremiumHigh: getEnvAsFloat("ALERT_PREMIUM_HIGH", 1.5),
			PremiumLow:  getEnvAsFloat("ALERT_PREMIUM_LOW", -1.5),
			FundFlow:    getEnvAsFloat("ALERT_FUND_FLOW", 50),
			IndexMove:   getEnvAsFloat("ALERT_INDEX_MOVE", 2.0),
		},

		// Upstream sources
		Sources: SourcesConfig{
			SinaBaseURL:          getEnv("SINA_BASE_URL", "https://hq.sinajs.cn"),
			YahooBaseURL:         getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			EastmoneyBaseURL:     getEnv("EASTMONEY_BASE_URL", "https://push2.eastmoney.com"),
			EastmoneyHistBaseURL: getEnv("EASTMONEY_HIST_BASE_URL", "https://push2his.eastmoney.com"),
			JisiluBaseURL:        getEnv("JISILU_BASE_URL", "https://www.jisilu.cn"),
			FundProfileBaseURL:   getEnv("FUND_PROFILE_BASE_URL", "https://fundf10.eastmoney.com"),
			UserAgent:            getEnv("SOURCE_USER_AGENT", defaultUserAgent),
			Timeout:              getEnvAsDuration("SOURCE_TIMEOUT", "30s"),
			MaxRetries:           getEnvAsInt("SOURCE_MAX_RETRIES", 3),
			ThrottleMin:          getEnvAsDuration("SOURCE_THROTTLE_MIN", "1s"),
			ThrottleMax:          getEnvAsDuration("SOURCE_THROTTLE_MAX", "3s"),
		},

		// Prediction
		Prediction: PredictionConfig{
			Horizon: getEnvAsDuration("PREDICTION_HORIZON", "48h"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		MetricsPort:    getEnv("METRICS_PORT", "9090"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Database URL is required
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Scheduler.IndicesInterval <= 0 || c.Scheduler.PremiumInterval <= 0 || c.Scheduler.FlowInterval <= 0 {
		return fmt.Errorf("scheduler intervals must be positive")
	}

	if c.Alerts.PremiumHigh <= c.Alerts.PremiumLow {
		return fmt.Errorf("ALERT_PREMIUM_HIGH must be greater than ALERT_PREMIUM_LOW")
	}

	if c.Sources.ThrottleMax < c.Sources.ThrottleMin {
		return fmt.Errorf("SOURCE_THROTTLE_MAX must be >= SOURCE_THROTTLE_MIN")
	}

	if c.Prediction.Horizon <= 0 {
		return fmt.Errorf("PREDICTION_HORIZON must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env",         // Current directory
		"backend/.env", // From project root
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
