package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostelgate/pkg/platform/sentinel"
)

func TestInMemoryTRL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	trl := NewInMemoryTRL(WithClock(clock))

	t.Run("unknown token is not revoked", func(t *testing.T) {
		revoked, err := trl.IsRevoked(ctx, "jti-unknown")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("revoked token reports revoked until expiry", func(t *testing.T) {
		require.NoError(t, trl.RevokeToken(ctx, "jti-1", time.Hour))

		revoked, err := trl.IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, revoked)

		now = now.Add(2 * time.Hour)
		revoked, err = trl.IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("expired entries are pruned on write", func(t *testing.T) {
		require.NoError(t, trl.RevokeToken(ctx, "jti-2", time.Hour))
		trl.mu.RLock()
		_, stale := trl.revoked["jti-1"]
		trl.mu.RUnlock()
		assert.False(t, stale)
	})

	t.Run("empty jti is ignored", func(t *testing.T) {
		require.NoError(t, trl.RevokeToken(ctx, "", time.Hour))
		revoked, err := trl.IsRevoked(ctx, "")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("non-positive ttl is rejected", func(t *testing.T) {
		err := trl.RevokeToken(ctx, "jti-3", 0)
		require.ErrorIs(t, err, sentinel.ErrInvalidState)
	})
}
