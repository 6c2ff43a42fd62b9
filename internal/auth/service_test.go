package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mgr := NewJWTManager("access-secret-32-chars-long!!!!!", "refresh-secret-32-chars-long!!!!", 15*time.Minute, time.Hour)
	return NewService(mgr, client)
}

func TestService_RefreshRotation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	pair, err := svc.GenerateTokens(ctx, "user-1", "a@b.com")
	require.NoError(t, err)

	rotated, err := svc.RefreshTokens(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The consumed token is revoked and cannot be reused.
	_, err = svc.RefreshTokens(ctx, pair.RefreshToken)
	assert.Error(t, err)
}

func TestService_LogoutRevokesAll(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.GenerateTokens(ctx, "user-1", "a@b.com")
	require.NoError(t, err)
	second, err := svc.GenerateTokens(ctx, "user-1", "a@b.com")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, "user-1"))

	_, err = svc.RefreshTokens(ctx, first.RefreshToken)
	assert.Error(t, err)
	_, err = svc.RefreshTokens(ctx, second.RefreshToken)
	assert.Error(t, err)
}

func TestService_LogoutLeavesOtherUsers(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	other, err := svc.GenerateTokens(ctx, "user-2", "c@d.com")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, "user-1"))

	_, err = svc.RefreshTokens(ctx, other.RefreshToken)
	assert.NoError(t, err)
}
