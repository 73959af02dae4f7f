// Package cache holds the shared Redis client and the cache-aside, key and
// token revocation helpers built on it. Every helper degrades to a no-op
// when no client is installed.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"netsocial/internal/middleware"
	"netsocial/internal/observability"

	"github.com/redis/go-redis/v9"
)

// ErrNotConfigured means no Redis address was supplied.
var ErrNotConfigured = errors.New("cache: redis address not configured")

const pingTimeout = 5 * time.Second

var client *redis.Client

// errorCounter feeds observability.RedisErrors. Cache misses are not errors.
type errorCounter struct{}

func (errorCounter) DialHook(next redis.DialHook) redis.DialHook { return next }

func (errorCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		countError(cmd.Name(), err)
		return err
	}
}

func (errorCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		countError("pipeline", err)
		return err
	}
}

func countError(op string, err error) {
	if err != nil && !errors.Is(err, redis.Nil) {
		observability.RedisErrors.WithLabelValues(op).Inc()
	}
}

// options accepts either a bare host:port or a redis:// / rediss:// URL.
func options(addr string) (*redis.Options, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, ErrNotConfigured
	}
	if !strings.Contains(addr, "://") {
		return &redis.Options{Addr: addr}, nil
	}
	opts, err := redis.ParseURL(addr)
	if err != nil {
		return nil, fmt.Errorf("cache: invalid redis url: %w", err)
	}
	return opts, nil
}

// Connect dials addr and pings it. The returned client is not installed;
// pass it to SetClient.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	opts, err := options(addr)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("cache: ping %s: %w", opts.Addr, err)
	}
	middleware.Logger.Info("Redis connected", "addr", opts.Addr)
	return c, nil
}

// SetClient installs c as the shared client. nil disables caching.
func SetClient(c *redis.Client) {
	if c != nil {
		c.AddHook(errorCounter{})
	}
	client = c
}
