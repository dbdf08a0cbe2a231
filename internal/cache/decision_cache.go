package cache

import (
	"context"
	"encoding/json"
	"time"

	"hodei-authz/internal/authz"
	"hodei-authz/internal/hrn"
	"hodei-authz/internal/logger"
)

// DecisionCache adapts a byte-blob Cache (MemoryCache or GoRedisCache) into
// authz.DecisionCache: AuthorizationResponse is JSON-encoded for storage
// under the opaque request-hash key. InvalidatePrincipal and
// InvalidateResource remove nothing: they only log a warning, and cached
// decisions leave the cache only when their TTL expires.
type DecisionCache struct {
	backend Cache
}

// NewDecisionCache wraps any Cache implementation (MemoryCache, GoRedisCache,
// or a future one) as an authz.DecisionCache.
func NewDecisionCache(backend Cache) *DecisionCache {
	return &DecisionCache{backend: backend}
}

func (d *DecisionCache) Get(ctx context.Context, key string) (*authz.AuthorizationResponse, bool) {
	raw, err := d.backend.Get(ctx, key)
	if err != nil {
		logger.Warn("decision cache get failed", "error", err)
		return nil, false
	}
	if raw == nil {
		return nil, false
	}
	var resp authz.AuthorizationResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		logger.Warn("decision cache entry corrupt, dropping", "error", err)
		return nil, false
	}
	return &resp, true
}

func (d *DecisionCache) Put(ctx context.Context, key string, resp authz.AuthorizationResponse, ttl time.Duration) {
	raw, err := json.Marshal(resp)
	if err != nil {
		logger.Warn("decision cache marshal failed", "error", err)
		return
	}
	if err := d.backend.Set(ctx, key, raw, ttl); err != nil {
		logger.Warn("decision cache set failed", "error", err)
	}
}

// InvalidatePrincipal and InvalidateResource exist per §6 but, per §9's
// Open Question decision, nothing in this repo calls them: the opaque
// request-hash cache key (principal+action+resource) cannot be
// reconstructed from an HRN alone, so invalidation by HRN only works once a
// caller indexes the HRN -> key set itself. These are left as documented
// no-ops ready for that caller to extend, consistent with the rest of this
// port's out-of-scope invalidation triggers.
func (d *DecisionCache) InvalidatePrincipal(_ context.Context, h hrn.HRN) {
	logger.Warn("decision cache invalidate-by-principal requested but not wired", "hrn", h.String())
}

func (d *DecisionCache) InvalidateResource(_ context.Context, h hrn.HRN) {
	logger.Warn("decision cache invalidate-by-resource requested but not wired", "hrn", h.String())
}

var _ authz.DecisionCache = (*DecisionCache)(nil)
