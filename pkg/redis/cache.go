package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Cache provides typed caching utilities
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// Get retrieves a cached value
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	data, err := c.client.Redis().Get(ctx, fullKey).Bytes()
	if err != nil {
		// Key not found is not an error
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	return c.client.Redis().Set(ctx, fullKey, data, ttl).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	return c.client.Redis().Del(ctx, fullKey).Err()
}

// GetOrSet retrieves from cache or calls fn to populate it
func (c *Cache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, fn func() (interface{}, error)) error {
	// Try cache first
	found, err := c.Get(ctx, key, dest)
	if err != nil {
		return err
	}
	if found {
		return nil
	}

	// Cache miss - call function
	value, err := fn()
	if err != nil {
		return err
	}

	// Store in cache
	if err := c.Set(ctx, key, value, ttl); err != nil {
		// Log but don't fail
		return nil
	}

	// Unmarshal into dest
	data, _ := json.Marshal(value)
	return json.Unmarshal(data, dest)
}

// Predefined TTLs, aligned with the polling cadence of each source
const (
	TTLIndices = 1 * time.Minute  // 지수 실시간 시세
	TTLPremium = 2 * time.Minute  // QDII 프리미엄 스냅샷
	TTLMarket  = 2 * time.Minute  // VIX/DXY/국채 지표
	TTLFlow    = 5 * time.Minute  // 북향/남향 자금 흐름
	TTLDaily   = 24 * time.Hour   // 일별 데이터
)

// Common cache key generators
func IndicesSnapshotKey() string {
	return "indices:snapshot"
}

func IndexQuoteKey(code string) string {
	return fmt.Sprintf("indices:quote:%s", code)
}

func PremiumSnapshotKey(indexType string) string {
	if indexType == "" {
		indexType = "all"
	}
	return fmt.Sprintf("premium:snapshot:%s", indexType)
}

func FlowRealtimeKey() string {
	return "flow:realtime"
}

func MarketIndicatorsKey() string {
	return "market:indicators"
}
