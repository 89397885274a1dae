package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/infonest-auth/internal/config"
	"github.com/spec-kit/infonest-auth/internal/persistence"
)

func newTestLimiter(t *testing.T, maxAttempts int) (LoginLimiter, *miniredis.Miniredis) {
	t.Helper()
	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	r := persistence.NewRedis(config.RedisConfig{Addr: mini.Addr()}, zap.NewNop())
	t.Cleanup(r.Close)
	return NewLoginLimiter(r, maxAttempts, 10*time.Minute), mini
}

func TestRedisLoginLimiter_LocksAfterMaxAttempts(t *testing.T) {
	limiter, _ := newTestLimiter(t, 3)
	ctx := context.Background()
	key := limiterKey("a@x.com", "10.0.0.1")

	for i := 0; i < 2; i++ {
		require.NoError(t, limiter.RecordFailure(ctx, key))
		locked, err := limiter.Locked(ctx, key)
		require.NoError(t, err)
		assert.Zero(t, locked)
	}

	require.NoError(t, limiter.RecordFailure(ctx, key))
	locked, err := limiter.Locked(ctx, key)
	require.NoError(t, err)
	assert.Greater(t, locked, time.Duration(0))
	assert.LessOrEqual(t, locked, 10*time.Minute)

	other, err := limiter.Locked(ctx, limiterKey("a@x.com", "10.0.0.2"))
	require.NoError(t, err)
	assert.Zero(t, other)
}

func TestRedisLoginLimiter_LockExpires(t *testing.T) {
	limiter, mini := newTestLimiter(t, 1)
	ctx := context.Background()

	require.NoError(t, limiter.RecordFailure(ctx, "k"))
	locked, err := limiter.Locked(ctx, "k")
	require.NoError(t, err)
	assert.NotZero(t, locked)

	mini.FastForward(11 * time.Minute)
	locked, err = limiter.Locked(ctx, "k")
	require.NoError(t, err)
	assert.Zero(t, locked)
}

func TestRedisLoginLimiter_FailureCounterAlwaysExpires(t *testing.T) {
	limiter, mini := newTestLimiter(t, 5)
	ctx := context.Background()
	failKey := "infonest:login:fail:k"

	require.NoError(t, limiter.RecordFailure(ctx, "k"))
	assert.Equal(t, 10*time.Minute, mini.TTL(failKey))

	require.NoError(t, mini.Set(failKey, "3"))
	require.Zero(t, mini.TTL(failKey))

	require.NoError(t, limiter.RecordFailure(ctx, "k"))
	got, err := mini.Get(failKey)
	require.NoError(t, err)
	assert.Equal(t, "4", got)
	assert.Equal(t, 10*time.Minute, mini.TTL(failKey))

	mini.FastForward(11 * time.Minute)
	assert.False(t, mini.Exists(failKey))
}

func TestRedisLoginLimiter_Reset(t *testing.T) {
	limiter, _ := newTestLimiter(t, 2)
	ctx := context.Background()

	require.NoError(t, limiter.RecordFailure(ctx, "k"))
	require.NoError(t, limiter.Reset(ctx, "k"))
	require.NoError(t, limiter.RecordFailure(ctx, "k"))

	locked, err := limiter.Locked(ctx, "k")
	require.NoError(t, err)
	assert.Zero(t, locked, "reset must clear the failure counter")
}

func TestNewLoginLimiter_Disabled(t *testing.T) {
	assert.IsType(t, NoopLoginLimiter{}, NewLoginLimiter(nil, 5, time.Minute))
	limiter, _ := newTestLimiter(t, 0)
	assert.IsType(t, NoopLoginLimiter{}, limiter)
}

func TestRedisLoginLimiter_UnreachableRedis(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	r := persistence.NewRedis(config.RedisConfig{Addr: mini.Addr()}, zap.NewNop())
	t.Cleanup(r.Close)
	mini.Close()

	limiter := NewLoginLimiter(r, 3, time.Minute)
	_, err = limiter.Locked(context.Background(), "k")
	assert.Error(t, err)
}
