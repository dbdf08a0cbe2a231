package cache

import (
	"context"
	"testing"
	"time"

	"hodei-authz/internal/authz"
)

func TestDecisionCacheRoundTrip(t *testing.T) {
	dc := NewDecisionCache(NewMemoryCache())
	ctx := context.Background()

	resp := authz.AuthorizationResponse{Decision: authz.Allow, Explicit: true, Reason: "test"}
	dc.Put(ctx, "key-1", resp, time.Minute)

	got, ok := dc.Get(ctx, "key-1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Decision != authz.Allow || got.Reason != "test" {
		t.Fatalf("unexpected cached value: %+v", got)
	}
}

func TestDecisionCacheMiss(t *testing.T) {
	dc := NewDecisionCache(NewMemoryCache())
	_, ok := dc.Get(context.Background(), "missing")
	if ok {
		t.Fatal("expected cache miss")
	}
}

func TestDecisionCacheRespectsTTL(t *testing.T) {
	dc := NewDecisionCache(NewMemoryCache())
	ctx := context.Background()

	dc.Put(ctx, "key-2", authz.AuthorizationResponse{Decision: authz.Deny}, time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, ok := dc.Get(ctx, "key-2")
	if ok {
		t.Fatal("expected expired entry to be a miss")
	}
}
