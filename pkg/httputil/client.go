package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
	"golang.org/x/time/rate"

	"github.com/wonny/indexpulse/backend/pkg/config"
	"github.com/wonny/indexpulse/backend/pkg/logger"
)

// Client is an HTTP client wrapper with retry logic, throttling and logging
// ⭐ SSOT: 모든 업스트림 HTTP 요청은 이 클라이언트를 통해서만 수행
type Client struct {
	httpClient  *http.Client
	logger      *logger.Logger
	retryConfig RetryConfig
	userAgent   string

	// Upstream sources are scrape targets. Consecutive requests keep a
	// randomized minimum spacing so the traffic never looks like a burst.
	limiter   *rate.Limiter
	jitterMax time.Duration
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Enabled      bool
}

// HTTPError is returned for non-2xx upstream responses after retries.
type HTTPError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("upstream returned %s for %s", e.Status, e.URL)
}

// New creates a new HTTP client from config
// ⭐ SSOT: http.Client 인스턴스는 여기서만 생성
func New(cfg *config.Config, log *logger.Logger) *Client {
	timeout := cfg.Sources.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	retries := cfg.Sources.MaxRetries
	if retries <= 0 {
		retries = 3
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:    log,
		userAgent: cfg.Sources.UserAgent,
		retryConfig: RetryConfig{
			MaxRetries:   retries,
			InitialDelay: 1 * time.Second,
			MaxDelay:     10 * time.Second,
			Enabled:      true,
		},
	}
}

// NewWithTimeout creates a client with custom timeout
func NewWithTimeout(cfg *config.Config, log *logger.Logger, timeout time.Duration) *Client {
	client := New(cfg, log)
	client.httpClient.Timeout = timeout
	return client
}

// WithRetry configures retry behavior
func (c *Client) WithRetry(maxRetries int, initialDelay time.Duration) *Client {
	c.retryConfig.MaxRetries = maxRetries
	c.retryConfig.InitialDelay = initialDelay
	c.retryConfig.Enabled = true
	return c
}

// DisableRetry disables automatic retry
func (c *Client) DisableRetry() *Client {
	c.retryConfig.Enabled = false
	return c
}

// WithThrottle spaces consecutive requests at least min apart, plus a
// random jitter up to max-min. min <= 0 disables throttling.
func (c *Client) WithThrottle(min, max time.Duration) *Client {
	if min <= 0 {
		c.limiter = nil
		c.jitterMax = 0
		return c
	}

	c.limiter = rate.NewLimiter(rate.Every(min), 1)
	if max > min {
		c.jitterMax = max - min
	} else {
		c.jitterMax = 0
	}
	return c
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	return c.GetWithHeaders(ctx, url, nil)
}

// GetWithHeaders performs a GET request with additional headers
func (c *Client) GetWithHeaders(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return c.do(req)
}

// GetJSON performs a GET request and decodes the JSON response into dest
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, dest interface{}) error {
	resp, err := c.GetWithHeaders(ctx, url, headers)
	if err != nil {
		return err
	}

	body, err := ReadBody(resp)
	if err != nil {
		return fmt.Errorf("read response body failed: %w", err)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode JSON from %s failed: %w", url, err)
	}

	return nil
}

// Post performs a POST request with body
func (c *Client) Post(ctx context.Context, url string, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create POST request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	return c.do(req)
}

// PostJSON performs a POST request with JSON body
func (c *Client) PostJSON(ctx context.Context, url string, data interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return c.Post(ctx, url, "application/json", bytes.NewReader(jsonData))
}

// do executes the request with throttling, retry logic and logging
func (c *Client) do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	startTime := time.Now()
	url := req.URL.String()
	method := req.Method

	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	// Honor the inter-request spacing before touching the network
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("throttle wait failed: %w", err)
		}
		if c.jitterMax > 0 {
			jitter := time.Duration(rand.Int63n(int64(c.jitterMax)))
			select {
			case <-time.After(jitter):
			case <-req.Context().Done():
				return nil, req.Context().Err()
			}
		}
	}

	// Log request
	c.logger.WithFields(map[string]interface{}{
		"method": method,
		"url":    url,
	}).Debug("HTTP request started")

	// Execute with retry
	if c.retryConfig.Enabled {
		resp, err = c.doWithRetry(req)
	} else {
		resp, err = c.httpClient.Do(req)
	}

	// Calculate duration
	duration := time.Since(startTime)

	// Log response
	if err != nil {
		c.logger.WithFields(map[string]interface{}{
			"method":   method,
			"url":      url,
			"duration": duration,
			"error":    err.Error(),
		}).Error("HTTP request failed")
		return nil, err
	}

	if resp.StatusCode >= 400 {
		httpErr := &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        url,
		}
		drainAndClose(resp)
		c.logger.WithFields(map[string]interface{}{
			"method":      method,
			"url":         url,
			"status_code": httpErr.StatusCode,
			"duration":    duration,
		}).Error("HTTP request rejected")
		return nil, httpErr
	}

	c.logger.WithFields(map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": resp.StatusCode,
		"duration":    duration,
	}).Debug("HTTP request completed")

	return resp, nil
}

// doWithRetry executes the request with exponential backoff retry.
// Only transient failures (transport errors, 5xx, 429) are retried;
// other 4xx responses return to the caller on the first attempt.
func (c *Client) doWithRetry(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	delay := c.retryConfig.InitialDelay

	for attempt := 0; attempt <= c.retryConfig.MaxRetries; attempt++ {
		// Execute request
		resp, err = c.httpClient.Do(req)

		// Success or non-retriable status
		if err == nil && !IsRetryableError(resp.StatusCode) {
			return resp, nil
		}

		// Last attempt - return whatever we have
		if attempt == c.retryConfig.MaxRetries {
			break
		}

		// The failed response body must be drained before the next attempt
		if err == nil {
			drainAndClose(resp)
		}

		// Log retry
		c.logger.WithFields(map[string]interface{}{
			"attempt": attempt + 1,
			"delay":   delay,
			"url":     req.URL.String(),
		}).Warn("Retrying HTTP request")

		// Wait before retry
		select {
		case <-time.After(delay):
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}

		// Exponential backoff
		delay *= 2
		if delay > c.retryConfig.MaxDelay {
			delay = c.retryConfig.MaxDelay
		}
	}

	return resp, err
}

// IsRetryableError checks if a status code should be retried
func IsRetryableError(statusCode int) bool {
	// Retry on 5xx server errors and 429 Too Many Requests
	return statusCode >= 500 || statusCode == 429
}

// IsTransient reports whether err represents a retriable upstream failure.
func IsTransient(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return IsRetryableError(httpErr.StatusCode)
	}
	return false
}

// ReadBody drains and closes the response body.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// ReadBodyGBK drains and closes the response body, transcoding from GBK.
// 중국 시세 소스(Sina, 펀드 프로필 페이지)는 GBK로 응답함
func ReadBodyGBK(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	reader := transform.NewReader(resp.Body, simplifiedchinese.GBK.NewDecoder())
	return io.ReadAll(reader)
}

func drainAndClose(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
