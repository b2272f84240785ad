package api

import (
	"testing"
	"time"

	icache "HedgeDesk/internal/service/cache"
)

func TestTimelineCacheKeyVariesByConfidence(t *testing.T) {
	k95 := timelineCacheKey("acme", "2025-06-01", "2025-08-01", 0.95, nil)
	k99 := timelineCacheKey("acme", "2025-06-01", "2025-08-01", 0.99, nil)
	if k95 == k99 {
		t.Fatalf("keys must differ by confidence: %q", k95)
	}
	if timelineCacheKey("acme", "2025-06-01", "2025-08-01", 0.95, nil) != k95 {
		t.Fatal("key must be stable for identical requests")
	}
}

func TestTimelineCacheKeyVariesByHedgeVersion(t *testing.T) {
	before := timelineCacheKey("acme", "2025-06-01", "2025-08-01", 0.95, []byte("v1"))
	after := timelineCacheKey("acme", "2025-06-01", "2025-08-01", 0.95, []byte("v2"))
	if before == after {
		t.Fatal("rotating the session version must change the key")
	}
}

func TestBumpSessionVersionInvalidatesCachedTimeline(t *testing.T) {
	cache := icache.NewTTLCache()
	rh := &RiskEchoHandler{cache: cache, cacheTTL: time.Minute}
	hh := &HedgeEchoHandler{cache: cache}

	ver, _, _ := cache.GetBytes(sessionVersionKey("acme"))
	key := timelineCacheKey("acme", "2025-06-01", "2025-08-01", 0.95, ver)
	if err := cache.SetBytes(key, []byte(`[]`), rh.cacheTTL); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	hh.bumpSessionVersion("acme")

	ver2, _, _ := cache.GetBytes(sessionVersionKey("acme"))
	key2 := timelineCacheKey("acme", "2025-06-01", "2025-08-01", 0.95, ver2)
	if key2 == key {
		t.Fatal("hedge mutation must rotate the timeline cache key")
	}
	if _, ok, _ := cache.GetBytes(key2); ok {
		t.Fatal("new key must miss until the next build")
	}
}
