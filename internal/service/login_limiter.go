package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/infonest-auth/internal/persistence"
)

// LoginLimiter throttles repeated failed logins for a key.
type LoginLimiter interface {
	// Locked returns the remaining lock time, or zero when attempts are allowed.
	Locked(ctx context.Context, key string) (time.Duration, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// NoopLoginLimiter never throttles.
type NoopLoginLimiter struct{}

func (NoopLoginLimiter) Locked(context.Context, string) (time.Duration, error) { return 0, nil }
func (NoopLoginLimiter) RecordFailure(context.Context, string) error           { return nil }
func (NoopLoginLimiter) Reset(context.Context, string) error                   { return nil }

// incrFailure bumps the failure counter and makes sure it carries a TTL, in
// one atomic step. A counter left without a TTL is given one on its next hit.
var incrFailure = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// RedisLoginLimiter counts failures in Redis. After maxAttempts failures
// within window the key is locked for window.
type RedisLoginLimiter struct {
	redis       *persistence.Redis
	maxAttempts int64
	window      time.Duration
}

// NewLoginLimiter returns a Redis-backed limiter, or a no-op one when
// throttling is disabled.
func NewLoginLimiter(r *persistence.Redis, maxAttempts int, window time.Duration) LoginLimiter {
	if r == nil || maxAttempts <= 0 || window <= 0 {
		return NoopLoginLimiter{}
	}
	return &RedisLoginLimiter{redis: r, maxAttempts: int64(maxAttempts), window: window}
}

func (l *RedisLoginLimiter) Locked(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := l.redis.Client.TTL(ctx, l.lockKey(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("read login lock: %w", err)
	}
	if ttl <= 0 {
		return 0, nil
	}
	return ttl, nil
}

func (l *RedisLoginLimiter) RecordFailure(ctx context.Context, key string) error {
	failKey := l.failKey(key)
	count, err := incrFailure.Run(ctx, l.redis.Client, []string{failKey}, l.window.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("count failed login: %w", err)
	}
	if count < l.maxAttempts {
		return nil
	}

	_, err = l.redis.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, l.lockKey(key), count, l.window)
		pipe.Del(ctx, failKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("lock login key: %w", err)
	}
	return nil
}

func (l *RedisLoginLimiter) Reset(ctx context.Context, key string) error {
	return l.redis.Client.Del(ctx, l.failKey(key), l.lockKey(key)).Err()
}

func (l *RedisLoginLimiter) failKey(key string) string {
	return l.redis.Key("login", "fail", key)
}

func (l *RedisLoginLimiter) lockKey(key string) string {
	return l.redis.Key("login", "lock", key)
}

func limiterKey(email, remoteAddr string) string {
	return email + "|" + remoteAddr
}
