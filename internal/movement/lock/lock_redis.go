// Package lock provides a Redis lease lock that serializes the movement accept
// sequence for one resident across server instances.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	id "hostelgate/pkg/domain"
	"hostelgate/pkg/platform/sentinel"
)

const (
	keyPrefix = "gate:lock:resident:"

	defaultTTL        = 5 * time.Second
	defaultMinBackoff = 16 * time.Millisecond
	defaultMaxBackoff = 256 * time.Millisecond
)

// RedisLocker takes redislock leases keyed by resident id.
type RedisLocker struct {
	client     *redislock.Client
	ttl        time.Duration
	minBackoff time.Duration
	maxBackoff time.Duration
}

type Option func(*RedisLocker)

// WithTTL sets the lease length. A holder that outlives it loses the lock.
func WithTTL(ttl time.Duration) Option {
	return func(l *RedisLocker) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithBackoff sets the exponential wait between acquisition attempts.
func WithBackoff(minBackoff, maxBackoff time.Duration) Option {
	return func(l *RedisLocker) {
		if minBackoff > 0 && maxBackoff >= minBackoff {
			l.minBackoff = minBackoff
			l.maxBackoff = maxBackoff
		}
	}
}

func NewRedisLocker(client *redis.Client, opts ...Option) *RedisLocker {
	l := &RedisLocker{
		client:     redislock.New(client),
		ttl:        defaultTTL,
		minBackoff: defaultMinBackoff,
		maxBackoff: defaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire retries until the lease is taken or ctx ends; without a deadline
// the wait is bounded by the lease TTL. A lease still held elsewhere and a
// Redis failure both return errors wrapping sentinel.ErrUnavailable.
func (l *RedisLocker) Acquire(ctx context.Context, residentID id.ResidentID) (func(context.Context) error, error) {
	lease, err := l.client.Obtain(ctx, keyPrefix+residentID.String(), l.ttl, &redislock.Options{
		// strategies count attempts, so each call gets its own
		RetryStrategy: redislock.ExponentialBackoff(l.minBackoff, l.maxBackoff),
	})
	switch {
	case errors.Is(err, redislock.ErrNotObtained):
		return nil, fmt.Errorf("%w: resident lock held elsewhere: %w", sentinel.ErrUnavailable, err)
	case err != nil:
		return nil, fmt.Errorf("%w: acquire resident lock: %w", sentinel.ErrUnavailable, err)
	}
	return releaser(lease), nil
}

// releaser returns an error wrapping sentinel.ErrInvalidState when the lease
// expired before release; the lock then belongs to someone else and is left
// alone.
func releaser(lease *redislock.Lock) func(context.Context) error {
	return func(ctx context.Context) error {
		err := lease.Release(ctx)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, redislock.ErrLockNotHeld):
			return fmt.Errorf("%w: resident lock lease expired before release: %w", sentinel.ErrInvalidState, err)
		}
		return fmt.Errorf("%w: release resident lock: %w", sentinel.ErrUnavailable, err)
	}
}
