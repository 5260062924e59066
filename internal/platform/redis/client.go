// Package redis opens the optional shared Redis used for resident locks, the
// token revocation list and login rate limits.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"hostelgate/internal/platform/config"
)

const (
	dialAttempts = 3
	dialBackoff  = 250 * time.Millisecond
	healthBudget = time.Second
)

type Client struct {
	*redis.Client
	addr string
}

// New connects to cfg.URL. It returns a nil client and no error when Redis is
// not configured. The first ping is retried so the server can start alongside
// a Redis that is still booting.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := options(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	var pingErr error
	for attempt := range dialAttempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				_ = client.Close()
				return nil, ctx.Err()
			case <-time.After(dialBackoff * time.Duration(attempt)):
			}
		}
		pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout+time.Second)
		pingErr = client.Ping(pingCtx).Err()
		cancel()
		if pingErr == nil {
			return &Client{Client: client, addr: opts.Addr}, nil
		}
	}
	_ = client.Close()
	return nil, fmt.Errorf("redis %s unreachable after %d attempts: %w", opts.Addr, dialAttempts, pingErr)
}

// options parses the URL and applies the pool settings that are set.
func options(cfg config.RedisConfig) (*redis.Options, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

func (c *Client) Addr() string { return c.addr }

// Health pings Redis, bounded to one second when ctx has no deadline.
func (c *Client) Health(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, healthBudget)
		defer cancel()
	}
	return c.Ping(ctx).Err()
}
