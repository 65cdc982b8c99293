package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter is the narrow abstraction over the external counter store. Keeping
// counters out of process memory keeps handlers stateless and horizontally
// scalable.
type Counter interface {
	// IncrementWithExpiry atomically bumps the key, arming the window expiry
	// on the first hit, and returns the new count plus time to reset.
	IncrementWithExpiry(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	// Peek reads the current count and time to reset without consuming.
	Peek(ctx context.Context, key string) (int64, time.Duration, error)
}

// incrScript makes increment-and-arm-expiry a single atomic operation, so two
// concurrent requests can never both observe a fresh window.
var incrScript = redis.NewScript(`
local c = redis.call('INCR', KEYS[1])
if c == 1 then
	redis.call('EXPIRE', KEYS[1], ARGV[1])
end
return {c, redis.call('TTL', KEYS[1])}
`)

type RedisCounter struct {
	rdb *redis.Client
}

func NewRedisCounter(rdb *redis.Client) *RedisCounter {
	return &RedisCounter{rdb: rdb}
}

func (c *RedisCounter) IncrementWithExpiry(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	res, err := incrScript.Run(ctx, c.rdb, []string{key}, int(window.Seconds())).Slice()
	if err != nil {
		return 0, 0, err
	}
	count, _ := res[0].(int64)
	ttl, _ := res[1].(int64)
	return count, time.Duration(ttl) * time.Second, nil
}

func (c *RedisCounter) Peek(ctx context.Context, key string) (int64, time.Duration, error) {
	pipe := c.rdb.Pipeline()
	getCmd := pipe.Get(ctx, key)
	ttlCmd := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return 0, 0, err
	}
	count, err := getCmd.Int64()
	if err == redis.Nil {
		return 0, 0, nil
	} else if err != nil {
		return 0, 0, err
	}
	ttl := ttlCmd.Val()
	if ttl < 0 {
		ttl = 0
	}
	return count, ttl, nil
}
