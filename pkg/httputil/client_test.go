package httputil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/wonny/indexpulse/backend/pkg/config"
	"github.com/wonny/indexpulse/backend/pkg/logger"
)

func TestNew(t *testing.T) {
	cfg := &config.Config{
		Env:      "test",
		LogLevel: "debug",
		Database: config.DatabaseConfig{
			URL: "dummy",
		},
	}
	log := logger.New(cfg)

	client := New(cfg, log)
	if client == nil {
		t.Fatal("Expected client to be created")
	}

	if client.httpClient == nil {
		t.Error("Expected http.Client to be initialized")
	}

	if client.logger == nil {
		t.Error("Expected logger to be set")
	}

	if client.retryConfig.MaxRetries != 3 {
		t.Errorf("Expected MaxRetries=3, got %d", client.retryConfig.MaxRetries)
	}

	if client.httpClient.Timeout != 30*time.Second {
		t.Errorf("Expected default timeout=30s, got %v", client.httpClient.Timeout)
	}
}

func TestNewWithTimeout(t *testing.T) {
	cfg := &config.Config{
		Env:      "test",
		LogLevel: "error", // Reduce log noise
		Database: config.DatabaseConfig{
			URL: "dummy",
		},
	}
	log := logger.New(cfg)

	timeout := 5 * time.Second
	client := NewWithTimeout(cfg, log, timeout)

	if client.httpClient.Timeout != timeout {
		t.Errorf("Expected timeout=%v, got %v", timeout, client.httpClient.Timeout)
	}
}

func TestWithRetry(t *testing.T) {
	cfg := &config.Config{
		Env:      "test",
		LogLevel: "error",
		Database: config.DatabaseConfig{
			URL: "dummy",
		},
	}
	log := logger.New(cfg)

	client := New(cfg, log).WithRetry(5, 2*time.Second)

	if client.retryConfig.MaxRetries != 5 {
		t.Errorf("Expected MaxRetries=5, got %d", client.retryConfig.MaxRetries)
	}

	if client.retryConfig.InitialDelay != 2*time.Second {
		t.Errorf("Expected InitialDelay=2s, got %v", client.retryConfig.InitialDelay)
	}
}

func TestDisableRetry(t *testing.T) {
	cfg := &config.Config{
		Env:      "test",
		LogLevel: "error",
		Database: config.DatabaseConfig{
			URL: "dummy",
		},
	}
	log := logger.New(cfg)

	client := New(cfg, log).DisableRetry()

	if client.retryConfig.Enabled {
		t.Error("Expected retry to be disabled")
	}
}

func TestGet(t *testing.T) {
	// Create test server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET request, got %s", r.Method)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	cfg := &config.Config{
		Env:      "test",
		LogLevel: "error",
		Database: config.DatabaseConfig{
			URL: "dummy",
		},
	}
	log := logger.New(cfg)

	client := New(cfg, log)
	ctx := context.Background()

	resp, err := client.Get(ctx, server.URL)
	if err != nil {
		t.Fatalf("GET request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
}

func TestGetWithHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Referer"); got != "https://finance.sina.com.cn" {
			t.Errorf("Expected Referer header to pass through, got %q", got)
		}
		if got := r.Header.Get("X-Requested-With"); got != "XMLHttpRequest" {
			t.Errorf("Expected X-Requested-With header to pass through, got %q", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := &config.Config{
		Env:      "test",
		LogLevel: "error",
		Database: config.DatabaseConfig{
			URL: "dummy",
		},
	}
	log := logger.New(cfg)

	client := New(cfg, log)
	resp, err := client.GetWithHeaders(context.Background(), server.URL, map[string]string{
		"Referer":          "https://finance.sina.com.cn",
		"X-Requested-With": "XMLHttpRequest",
	})
	if err != nil {
		t.Fatalf("GET request failed: %v", err)
	}
	resp.Body.Close()
}

func TestGetSetsUserAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "pulse-test/1.0" {
			t.Errorf("Expected configured User-Agent, got %q", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := &config.Config{
		Env:      "test",
		LogLevel: "error",
		Database: config.DatabaseConfig{
			URL: "dummy",
		},
		Sources: config.SourcesConfig{
			UserAgent: "pulse-test/1.0",
		},
	}
	log := logger.New(cfg)

	client := New(cfg, log)
	resp, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("GET request failed: %v", err)
	}
	resp.Body.Close()
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"fund_id":"513500","premium_rt":2.35}`))
	}))
	defer server.Close()

	cfg := &config.Config{
		Env:      "test",
		LogLevel: "error",
		Database: config.DatabaseConfig{
			URL: "dummy",
		},
	}
	log := logger.New(cfg)

	var payload struct {
		FundID    string  `json:"fund_id"`
		PremiumRt float64 `json:"premium_rt"`
	}

	client := New(cfg, log)
	if err := client.GetJSON(context.Background(), server.URL, nil, &payload); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}

	if payload.FundID != "513500" {
		t.Errorf("Expected fund_id=513500, got %s", payload.FundID)
	}
	if payload.PremiumRt != 2.35 {
		t.Errorf("Expected premium_rt=2.35, got %f", payload.PremiumRt)
	}
}

func TestPostJSON(t *testing.T) {
	// Create test server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST request, got %s", r.Method)
		}

		contentType := r.Header.Get("Content-Type")
		if contentType != "application/json" {
			t.Errorf("Expected Content-Type=application/json, got %s", contentType)
		}

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"created":true}`))
	}))
	defer server.Close()

	cfg := &config.Config{
		Env:      "test",
		LogLevel: "error",
		Database: config.DatabaseConfig{
			URL: "dummy",
		},
	}
	log := logger.New(cfg)

	client := New(cfg, log)
	ctx := context.Background()

	data := map[string]interface{}{
		"name":  "test",
		"value": 123,
	}

	resp, err := client.PostJSON(ctx, server.URL, data)
	if err != nil {
		t.Fatalf("POST request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", resp.StatusCode)
	}
}

func TestRetryOn5xx(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			// Return 503 for first 2 attempts
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		// Success on 3rd attempt
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	cfg := &config.Config{
		Env:      "test",
		LogLevel: "error",
		Database: config.DatabaseConfig{
			URL: "dummy",
		},
	}
	log := logger.New(cfg)

	client := New(cfg, log).WithRetry(3, 100*time.Millisecond)
	ctx := context.Background()

	resp, err := client.Get(ctx, server.URL)
	if err != nil {
		t.Fatalf("Request failed after retries: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryOn429(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := &config.Config{
		Env:      "test",
		LogLevel: "error",
		Database: config.DatabaseConfig{
			URL: "dummy",
		},
	}
	log := logger.New(cfg)

	client := New(cfg, log).WithRetry(3, 50*time.Millisecond)

	resp, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Request failed after retries: %v", err)
	}
	resp.Body.Close()

	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}

func TestNoRetryOn4xx(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cfg := &config.Config{
		Env:      "test",
		LogLevel: "error",
		Database: config.DatabaseConfig{
			URL: "dummy",
		},
	}
	log := logger.New(cfg)

	client := New(cfg, log).WithRetry(3, 50*time.Millisecond)

	_, err := client.Get(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Expected error for 404 response")
	}

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("Expected *HTTPError, got %T", err)
	}
	if httpErr.StatusCode != http.StatusNotFound {
		t.Errorf("Expected StatusCode=404, got %d", httpErr.StatusCode)
	}

	if attempts != 1 {
		t.Errorf("Expected 1 attempt for permanent failure, got %d", attempts)
	}
}

func TestExhaustedRetriesReturnHTTPError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := &config.Config{
		Env:      "test",
		LogLevel: "error",
		Database: config.DatabaseConfig{
			URL: "dummy",
		},
	}
	log := logger.New(cfg)

	client := New(cfg, log).WithRetry(2, 10*time.Millisecond)

	_, err := client.Get(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Expected error after exhausting retries")
	}

	if !IsTransient(err) {
		t.Errorf("Expected transient error for 502, got %v", err)
	}

	if attempts != 3 {
		t.Errorf("Expected 3 attempts (1 + 2 retries), got %d", attempts)
	}
}

func TestWithThrottle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping throttle timing test in short mode")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := &config.Config{
		Env:      "test",
		LogLevel: "error",
		Database: config.DatabaseConfig{
			URL: "dummy",
		},
	}
	log := logger.New(cfg)

	client := New(cfg, log).WithThrottle(100*time.Millisecond, 100*time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		resp, err := client.Get(ctx, server.URL)
		if err != nil {
			t.Fatalf("GET request failed: %v", err)
		}
		resp.Body.Close()
	}
	elapsed := time.Since(start)

	// First request is immediate, the next two wait ~100ms each.
	if elapsed < 150*time.Millisecond {
		t.Errorf("Expected throttled requests to take >=150ms, took %v", elapsed)
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		statusCode int
		want       bool
	}{
		{200, false},
		{201, false},
		{400, false},
		{404, false},
		{429, true}, // Too Many Requests - should retry
		{500, true}, // Internal Server Error
		{502, true}, // Bad Gateway
		{503, true}, // Service Unavailable
		{504, true}, // Gateway Timeout
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.statusCode), func(t *testing.T) {
			got := IsRetryableError(tt.statusCode)
			if got != tt.want {
				t.Errorf("IsRetryableError(%d) = %v, want %v", tt.statusCode, got, tt.want)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"http 404", &HTTPError{StatusCode: 404, Status: "404 Not Found"}, false},
		{"http 429", &HTTPError{StatusCode: 429, Status: "429 Too Many Requests"}, true},
		{"http 503", &HTTPError{StatusCode: 503, Status: "503 Service Unavailable"}, true},
		{"wrapped 503", fmt.Errorf("fetch quotes: %w", &HTTPError{StatusCode: 503}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadBodyGBK(t *testing.T) {
	// Serve GBK bytes the way the Chinese quote sources do
	encoded, _, err := transform.String(simplifiedchinese.GBK.NewEncoder(), "上证指数")
	if err != nil {
		t.Fatalf("Failed to encode fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=GBK")
		w.Write([]byte(encoded))
	}))
	defer server.Close()

	cfg := &config.Config{
		Env:      "test",
		LogLevel: "error",
		Database: config.DatabaseConfig{
			URL: "dummy",
		},
	}
	log := logger.New(cfg)

	client := New(cfg, log)
	resp, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("GET request failed: %v", err)
	}

	body, err := ReadBodyGBK(resp)
	if err != nil {
		t.Fatalf("ReadBodyGBK failed: %v", err)
	}

	if string(body) != "上证指数" {
		t.Errorf("Expected decoded UTF-8 text, got %q", string(body))
	}
}
