package places

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheExpiry(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	c := NewMemoryCache(clock)
	ctx := context.Background()

	if err := c.Set(ctx, "place:p1", `{"name":"x"}`, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	val, ok, err := c.Get(ctx, "place:p1")
	if err != nil || !ok || val != `{"name":"x"}` {
		t.Fatalf("expected fresh hit, got %q %v %v", val, ok, err)
	}

	now = now.Add(time.Minute)
	if _, ok, _ := c.Get(ctx, "place:p1"); ok {
		t.Fatal("entry at its deadline must read as missing")
	}
	// An expired entry should have been evicted, not resurrected.
	if _, ok, _ := c.Get(ctx, "place:p1"); ok {
		t.Fatal("expired entry came back")
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryCache(nil)
	if _, ok, err := c.Get(context.Background(), "nope"); ok || err != nil {
		t.Fatalf("missing key must be a clean miss, got %v %v", ok, err)
	}
}

func TestMemoryCacheDelAndOverwrite(t *testing.T) {
	c := NewMemoryCache(nil)
	ctx := context.Background()

	c.Set(ctx, "k", "v1", 0)
	c.Set(ctx, "k", "v2", 0)
	if val, _, _ := c.Get(ctx, "k"); val != "v2" {
		t.Fatalf("overwrite failed, got %q", val)
	}

	c.Del(ctx, "k")
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatal("deleted key still present")
	}
}

func TestMemoryCacheZeroTTLNeverExpires(t *testing.T) {
	now := time.Now()
	c := NewMemoryCache(func() time.Time { return now })
	ctx := context.Background()

	c.Set(ctx, "k", "v", 0)
	now = now.Add(24 * time.Hour)
	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Fatal("zero TTL entry must not expire")
	}
}
