// Package cache implements the DecisionCache port: an in-memory and a
// Redis-backed cache of AuthorizationResponse, keyed by a request-derived
// hash.
package cache

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"hodei-authz/internal/logger"
)

// MemoryCache is the in-process fallback decision cache used when no Redis
// address is configured (cmd/authzd's buildDecisionCache). It trades
// durability and cross-instance sharing for zero operational dependencies,
// which is adequate for a single authzd replica or local development.
type MemoryCache struct {
	mu        sync.RWMutex
	data      map[string]*cacheEntry
	keyPrefix string
}

type cacheEntry struct {
	value      []byte
	expiration time.Time
}

// NewMemoryCache creates a new in-memory cache using the package's default
// key prefix, so a memory-backed deployment and a Redis-backed one namespace
// keys identically.
func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithPrefix(DefaultConfig().KeyPrefix)
}

// NewMemoryCacheWithPrefix creates a new in-memory cache with a custom key prefix.
func NewMemoryCacheWithPrefix(prefix string) *MemoryCache {
	mc := &MemoryCache{
		data:      make(map[string]*cacheEntry),
		keyPrefix: prefix,
	}
	go mc.cleanupExpired()
	return mc
}

// Get retrieves a value from the cache.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[c.prefixedKey(key)]
	if !ok {
		return nil, nil
	}

	if time.Now().After(entry.expiration) {
		return nil, nil
	}

	return entry.value, nil
}

// Set stores a value in the cache with a TTL.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[c.prefixedKey(key)] = &cacheEntry{
		value:      value,
		expiration: time.Now().Add(ttl),
	}
	return nil
}

// Delete removes a value from the cache.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, c.prefixedKey(key))
	return nil
}

// DeletePattern removes all values matching a pattern.
func (c *MemoryCache) DeletePattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Convert glob pattern to regex
	regexPattern := "^" + regexp.QuoteMeta(c.keyPrefix+pattern) + "$"
	regexPattern = regexp.MustCompile(`\\\*`).ReplaceAllString(regexPattern, ".*")
	regexPattern = regexp.MustCompile(`\\\?`).ReplaceAllString(regexPattern, ".")
	regex, err := regexp.Compile(regexPattern)
	if err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}

	for key := range c.data {
		if regex.MatchString(key) {
			delete(c.data, key)
		}
	}
	return nil
}

// CleanupExpired removes expired entries from the cache and reports how
// many it dropped.
func (c *MemoryCache) CleanupExpired(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	evicted := 0
	for key, entry := range c.data {
		if now.After(entry.expiration) {
			delete(c.data, key)
			evicted++
		}
	}
	return evicted, nil
}

// Ping checks the cache connection (always returns nil for memory cache).
func (c *MemoryCache) Ping(ctx context.Context) error {
	return nil
}

// Close discards every cached decision. A memory cache has no connection to
// tear down, but a restart should not resurrect stale decisions under the
// same keys once a new instance is built.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := len(c.data)
	c.data = make(map[string]*cacheEntry)
	logger.WithComponent("cache").Info("memory decision cache closed", "entries_dropped", evicted)
	return nil
}

// prefixedKey adds the key prefix if not already present.
func (c *MemoryCache) prefixedKey(key string) string {
	if c.keyPrefix != "" && len(key) >= len(c.keyPrefix) && key[:len(c.keyPrefix)] == c.keyPrefix {
		return key
	}
	return c.keyPrefix + key
}

// cleanupExpired periodically removes expired entries, logging when it
// actually evicts anything so a growing decision cache under heavy traffic
// shows up in the logs rather than just memory usage.
func (c *MemoryCache) cleanupExpired() {
	log := logger.WithComponent("cache")
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		if evicted, err := c.CleanupExpired(context.Background()); err == nil && evicted > 0 {
			log.Debug("evicted expired decisions", "count", evicted)
		}
	}
}
