package redis

import (
	"testing"

	"github.com/wonny/indexpulse/backend/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, _ := New(cfg)
	limiter := NewRateLimiter(client, "test")

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.Allow(nil, APIRateLimit)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Error("Expected request to be allowed when Redis disabled")
	}
	if remaining != APIRateLimit.Limit {
		t.Errorf("Expected remaining = %d, got %d", APIRateLimit.Limit, remaining)
	}
}

func TestCache_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, _ := New(cfg)
	cache := NewCache(client, "test")

	// When Redis is disabled, cache operations should be no-ops
	var result string
	found, err := cache.Get(nil, "key", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis disabled")
	}
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		fn       func() string
		expected string
	}{
		{
			name:     "IndicesSnapshotKey",
			fn:       IndicesSnapshotKey,
			expected: "indices:snapshot",
		},
		{
			name:     "IndexQuoteKey",
			fn:       func() string { return IndexQuoteKey("sh000300") },
			expected: "indices:quote:sh000300",
		},
		{
			name:     "PremiumSnapshotKey",
			fn:       func() string { return PremiumSnapshotKey("sp500") },
			expected: "premium:snapshot:sp500",
		},
		{
			name:     "PremiumSnapshotKey_all",
			fn:       func() string { return PremiumSnapshotKey("") },
			expected: "premium:snapshot:all",
		},
		{
			name:     "FlowRealtimeKey",
			fn:       FlowRealtimeKey,
			expected: "flow:realtime",
		},
		{
			name:     "MarketIndicatorsKey",
			fn:       MarketIndicatorsKey,
			expected: "market:indicators",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}
