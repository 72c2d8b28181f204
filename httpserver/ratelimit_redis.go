package httpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript counts a request and returns {count, ttl_ms}.
// The first request of a window starts the expiry; a key that somehow lost
// its TTL gets a fresh one so it cannot block a client forever.
var fixedWindowScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
    ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisStoreConfig configures a RedisStore.
type RedisStoreConfig struct {
	// Limit is the number of requests per window. Default: 100.
	Limit int

	// Window is the window length. Default: 1m.
	Window time.Duration

	// KeyPrefix namespaces the counters. Default: "ratelimit:".
	KeyPrefix string
}

// RedisStore is a RateLimitStore shared by every replica pointing at the
// same Redis. Each Take is one atomic script call.
type RedisStore struct {
	client redis.UniversalClient
	limit  int
	window time.Duration
	prefix string
}

// NewRedisStore creates a store on client.
//
// Example:
//
//	rdb := redis.NewClient(opts)
//	store := httpserver.NewRedisStore(rdb, httpserver.RedisStoreConfig{})
func NewRedisStore(client redis.UniversalClient, cfg RedisStoreConfig) *RedisStore {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultRateLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultRateLimitWindow
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "ratelimit:"
	}
	return &RedisStore{
		client: client,
		limit:  cfg.Limit,
		window: cfg.Window,
		prefix: cfg.KeyPrefix,
	}
}

// Take implements RateLimitStore.
func (s *RedisStore) Take(ctx context.Context, key string) (Quota, error) {
	res, err := fixedWindowScript.Run(ctx, s.client, []string{s.prefix + key}, s.window.Milliseconds()).
		Int64Slice()
	if err != nil {
		return Quota{}, fmt.Errorf("httpserver: redis rate limit: %w", err)
	}
	if len(res) != 2 {
		return Quota{}, fmt.Errorf("httpserver: redis rate limit: unexpected reply %v", res)
	}

	return newQuota(s.limit, s.window, res[0], time.Duration(res[1])*time.Millisecond), nil
}
