package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/amirphl/marketplace-settlement/utils"
	"github.com/redis/go-redis/v9"
)

// IntentCache remembers intent results by idempotency key so client retries skip the processor
type IntentCache interface {
	Get(ctx context.Context, key string) (*IntentResult, error)
	Set(ctx context.Context, key string, result *IntentResult) error
}

// RedisIntentCache stores intent results as JSON with a TTL
type RedisIntentCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisIntentCache(client *redis.Client, ttl time.Duration) IntentCache {
	return &RedisIntentCache{client: client, ttl: ttl, prefix: "payment_intent:"}
}

// Get returns nil, nil on a miss
func (c *RedisIntentCache) Get(ctx context.Context, key string) (*IntentResult, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read intent cache: %w", err)
	}

	var result IntentResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached intent: %w", err)
	}
	return &result, nil
}

func (c *RedisIntentCache) Set(ctx context.Context, key string, result *IntentResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode intent: %w", err)
	}
	return c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err()
}

// MemoryIntentCache is used when redis is disabled
type MemoryIntentCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryIntentEntry
}

type memoryIntentEntry struct {
	result    IntentResult
	expiresAt time.Time
}

func NewMemoryIntentCache(ttl time.Duration) *MemoryIntentCache {
	return &MemoryIntentCache{ttl: ttl, entries: make(map[string]memoryIntentEntry)}
}

func (c *MemoryIntentCache) Get(_ context.Context, key string) (*IntentResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, nil
	}
	if utils.IsExpired(entry.expiresAt) {
		delete(c.entries, key)
		return nil, nil
	}
	result := entry.result
	return &result, nil
}

func (c *MemoryIntentCache) Set(_ context.Context, key string, result *IntentResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryIntentEntry{result: *result, expiresAt: utils.UTCNowAdd(c.ttl)}
	return nil
}
