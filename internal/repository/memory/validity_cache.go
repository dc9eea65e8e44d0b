package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ValidityCache is an in-process TTL cache for session validity flags.
// Expired entries are dropped lazily on read and, when a sweep interval is
// configured, by a background sweeper.
type ValidityCache struct {
	mu      sync.RWMutex
	entries map[string]entry

	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

type entry struct {
	valid     bool
	expiresAt time.Time
}

// NewValidityCache constructs an empty cache. A positive sweepInterval starts
// a background goroutine that evicts expired entries; Close stops it.
func NewValidityCache(sweepInterval time.Duration) *ValidityCache {
	c := &ValidityCache{
		entries: make(map[string]entry),
		now:     func() time.Time { return time.Now().UTC() },
		stop:    make(chan struct{}),
	}

	if sweepInterval > 0 {
		go c.sweepLoop(sweepInterval)
	}

	return c
}

// WithClock overrides the time source, for tests.
func (c *ValidityCache) WithClock(now func() time.Time) *ValidityCache {
	if now != nil {
		c.now = now
	}
	return c
}

// Get returns the cached flag for key, reporting a miss for absent or
// expired entries.
func (c *ValidityCache) Get(_ context.Context, key string) (bool, bool, error) {
	if strings.TrimSpace(key) == "" {
		return false, false, fmt.Errorf("cache key is required")
	}

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return false, false, nil
	}

	if !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it.
		if cur, ok := c.entries[key]; ok && !c.now().Before(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return false, false, nil
	}

	return e.valid, true, nil
}

// Set stores the flag under key for the supplied TTL.
func (c *ValidityCache) Set(_ context.Context, key string, valid bool, ttl time.Duration) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("cache key is required")
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}

	c.mu.Lock()
	c.entries[key] = entry{valid: valid, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()

	return nil
}

// Len reports the number of stored entries, including not-yet-swept expired ones.
func (c *ValidityCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the background sweeper. Safe to call multiple times.
func (c *ValidityCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}

func (c *ValidityCache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

func (c *ValidityCache) sweep() {
	now := c.now()

	c.mu.Lock()
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}
