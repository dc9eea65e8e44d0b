package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"
)

const (
	validFlag   = "1"
	invalidFlag = "0"
)

// ValidityCache stores session validity flags in Redis so that gate replicas
// share one revocation-check window. Keys arrive already namespaced by the
// gate; this store does not add its own prefix.
type ValidityCache struct {
	client *red.Client
}

// NewValidityCache constructs a Redis-backed validity cache.
func NewValidityCache(client *red.Client) *ValidityCache {
	return &ValidityCache{client: client}
}

// Get returns the cached flag for key, reporting a miss when the key is
// absent or its TTL elapsed.
func (c *ValidityCache) Get(ctx context.Context, key string) (bool, bool, error) {
	if strings.TrimSpace(key) == "" {
		return false, false, fmt.Errorf("cache key is required")
	}

	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("redis get session validity: %w", err)
	}

	return value == validFlag, true, nil
}

// Set stores the flag under key with the supplied TTL.
func (c *ValidityCache) Set(ctx context.Context, key string, valid bool, ttl time.Duration) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("cache key is required")
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}

	value := invalidFlag
	if valid {
		value = validFlag
	}

	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session validity: %w", err)
	}

	return nil
}
