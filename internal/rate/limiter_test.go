package rate_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gussmann/loyalty-auth/internal/cache"
	"github.com/gussmann/loyalty-auth/internal/rate"
)

func TestFixedWindow_AllowsUpToMax(t *testing.T) {
	l := rate.NewFixedWindow(cache.NewMemory("test", 0), "rl", 3, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "hit %d", i)
		assert.Equal(t, int64(3-i), res.Remaining)
	}

	res, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Zero(t, res.Remaining)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, res.RetryAfter, time.Minute)
}

func TestFixedWindow_KeysAreIndependent(t *testing.T) {
	l := rate.NewFixedWindow(cache.NewMemory("test", 0), "rl", 1, time.Minute)
	ctx := context.Background()

	res, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	res, err = l.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestFixedWindow_WindowExpires(t *testing.T) {
	l := rate.NewFixedWindow(cache.NewMemory("test", 0), "rl", 1, 50*time.Millisecond)
	ctx := context.Background()

	res, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	// Wait past the aligned window; the counter key changes.
	time.Sleep(60 * time.Millisecond)
	res, err = l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
