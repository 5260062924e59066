package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostelgate/internal/platform/config"
)

func TestNew_NotConfigured(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New(context.Background(), config.RedisConfig{URL: "mysql://nope"})
	require.Error(t, err)
}

func TestOptions(t *testing.T) {
	t.Run("set values override the URL defaults", func(t *testing.T) {
		opts, err := options(config.RedisConfig{
			URL:          "redis://cache:6380/2",
			PoolSize:     25,
			MinIdleConns: 4,
			DialTimeout:  3 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 700 * time.Millisecond,
		})
		require.NoError(t, err)
		assert.Equal(t, "cache:6380", opts.Addr)
		assert.Equal(t, 2, opts.DB)
		assert.Equal(t, 25, opts.PoolSize)
		assert.Equal(t, 4, opts.MinIdleConns)
		assert.Equal(t, 3*time.Second, opts.DialTimeout)
		assert.Equal(t, 500*time.Millisecond, opts.ReadTimeout)
		assert.Equal(t, 700*time.Millisecond, opts.WriteTimeout)
	})

	t.Run("zero values keep what the URL parser chose", func(t *testing.T) {
		const url = "redis://cache:6379"
		opts, err := options(config.RedisConfig{URL: url})
		require.NoError(t, err)
		parsed, err := goredis.ParseURL(url)
		require.NoError(t, err)
		assert.Equal(t, parsed.PoolSize, opts.PoolSize)
		assert.Equal(t, parsed.DialTimeout, opts.DialTimeout)
	})
}

func TestNew_UnreachableHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := New(ctx, config.RedisConfig{URL: "redis://127.0.0.1:1", DialTimeout: 50 * time.Millisecond})
	require.Error(t, err)
}
