package places

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"voyagr/rdx"
)

const placeCacheTTL = 10 * time.Minute

// Cache is the place-detail cache contract. Implementations must treat
// an expired entry exactly like a missing one.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type redisCache struct{}

// NewRedisCache caches through the shared Redis connection.
func NewRedisCache() Cache { return redisCache{} }

func (redisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := rdx.RdxGet(key)
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (redisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return rdx.RdxSet(key, value, ttl)
}

func (redisCache) Del(ctx context.Context, key string) error {
	_, err := rdx.RdxDel(key)
	return err
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache is a process-local Cache. The clock is injected so tests
// can advance time instead of sleeping.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache(now func() time.Time) *MemoryCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{entries: map[string]memoryEntry{}, now: now}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return "", false, nil
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	c.entries[key] = memoryEntry{value: value, expiresAt: exp}
	return nil
}

func (c *MemoryCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}
