package billing

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) *BurstLimiter {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewBurstLimiter(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestBurstLimiter_AllowsUnderLimit(t *testing.T) {
	bl := newTestLimiter(t)
	ctx := context.Background()
	userID := uuid.New()

	for i := 0; i < 5; i++ {
		allowed, err := bl.CheckAndIncrement(ctx, userID, 5)
		require.NoError(t, err)
		assert.True(t, allowed, "call %d should be allowed", i)
	}

	allowed, err := bl.CheckAndIncrement(ctx, userID, 5)
	require.NoError(t, err)
	assert.False(t, allowed)

	usage, err := bl.Usage(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 5, usage)
}

func TestBurstLimiter_IsolatesUsers(t *testing.T) {
	bl := newTestLimiter(t)
	ctx := context.Background()
	first := uuid.New()
	second := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := bl.CheckAndIncrement(ctx, first, 3)
		require.NoError(t, err)
	}

	allowed, err := bl.CheckAndIncrement(ctx, first, 3)
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = bl.CheckAndIncrement(ctx, second, 3)
	require.NoError(t, err)
	assert.True(t, allowed)
}
