package rdx

import (
	"os"
	"time"

	"voyagr/globals"

	"github.com/redis/go-redis/v9"
)

// Global Redis client.
var Conn *redis.Client

func init() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	Conn = redis.NewClient(&redis.Options{Addr: addr})
}

func RdxGet(key string) (string, error) {
	return Conn.Get(globals.Ctx, key).Result()
}

func RdxSet(key, value string, expiry time.Duration) error {
	return Conn.Set(globals.Ctx, key, value, expiry).Err()
}

func RdxDel(key string) (int64, error) {
	return Conn.Del(globals.Ctx, key).Result()
}
