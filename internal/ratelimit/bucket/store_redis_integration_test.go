//go:build integration

package bucket_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostelgate/internal/ratelimit/bucket"
	"hostelgate/pkg/testutil/containers"
)

func TestRedisBucketStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	redisContainer := containers.GetManager().GetRedis(t)
	store := bucket.NewRedisBucketStore(redisContainer.Client)
	ctx := context.Background()
	key := "login:" + t.Name()
	t.Cleanup(func() { _ = store.Reset(ctx, key) })

	for i := range 3 {
		result, err := store.Allow(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 2-i, result.Remaining)
	}

	result, err := store.Allow(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Zero(t, result.Remaining)
	assert.True(t, result.ResetAt.After(time.Now()))

	require.NoError(t, store.Reset(ctx, key))
	result, err = store.Allow(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestRedisBucketStore_WindowExpires(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	redisContainer := containers.GetManager().GetRedis(t)
	store := bucket.NewRedisBucketStore(redisContainer.Client)
	ctx := context.Background()
	key := "login:" + t.Name()

	result, err := store.Allow(ctx, key, 1, 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, result.Allowed)

	result, err = store.Allow(ctx, key, 1, 200*time.Millisecond)
	require.NoError(t, err)
	require.False(t, result.Allowed)

	deleted, err := redisContainer.DeletePrefix(ctx, "gate:ratelimit:login:"+t.Name())
	require.NoError(t, err)
	assert.Equal(t, 1, deleted, "one sorted set per key")
	result, err = store.Allow(ctx, key, 1, 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, result.Allowed)
	result, err = store.Allow(ctx, key, 1, 200*time.Millisecond)
	require.NoError(t, err)
	require.False(t, result.Allowed)

	assert.Eventually(t, func() bool {
		result, err := store.Allow(ctx, key, 1, 200*time.Millisecond)
		return err == nil && result.Allowed
	}, 3*time.Second, 50*time.Millisecond)
}
