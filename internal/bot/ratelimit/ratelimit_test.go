package ratelimit_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/rueidis"
	"github.com/robalyx/invitegate/internal/bot/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupTest(t *testing.T, limit int, window time.Duration) (*ratelimit.Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return ratelimit.New(client, limit, window, zaptest.NewLogger(t)), mr
}

func TestAllowWithinQuota(t *testing.T) {
	t.Parallel()

	limiter, _ := setupTest(t, 2, time.Hour)
	ctx := t.Context()

	for range 2 {
		allowed, err := limiter.Allow(ctx, -100, 1)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := limiter.Allow(ctx, -100, 1)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Other members and groups have their own quota
	allowed, err = limiter.Allow(ctx, -100, 2)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, -200, 1)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestAllowWindowExpires(t *testing.T) {
	t.Parallel()

	limiter, mr := setupTest(t, 1, time.Minute)
	ctx := t.Context()

	allowed, err := limiter.Allow(ctx, -100, 1)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, -100, 1)
	require.NoError(t, err)
	assert.False(t, allowed)

	mr.FastForward(time.Minute + time.Second)

	allowed, err = limiter.Allow(ctx, -100, 1)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestUnlimited(t *testing.T) {
	t.Parallel()

	allowed, err := ratelimit.Unlimited{}.Allow(t.Context(), -100, 1)
	require.NoError(t, err)
	assert.True(t, allowed)
}
