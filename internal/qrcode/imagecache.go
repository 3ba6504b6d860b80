package qrcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultImageTTL = 15 * time.Minute

// CachedRenderer fronts a renderer with a Redis byte cache keyed by
// payload and size. Cache failures are logged and degrade to a fresh
// render; the cache never decides whether an image can be served.
type CachedRenderer struct {
	inner   Renderer
	client  *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	metrics *Metrics
}

type CacheOption func(*CachedRenderer)

func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(c *CachedRenderer) {
		c.ttl = ttl
	}
}

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *CachedRenderer) {
		c.logger = logger
	}
}

func WithCacheMetrics(m *Metrics) CacheOption {
	return func(c *CachedRenderer) {
		c.metrics = m
	}
}

func NewCachedRenderer(inner Renderer, client *redis.Client, opts ...CacheOption) (*CachedRenderer, error) {
	if inner == nil {
		return nil, fmt.Errorf("inner renderer is required")
	}
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}

	cached := &CachedRenderer{
		inner:  inner,
		client: client,
		ttl:    defaultImageTTL,
	}
	for _, opt := range opts {
		opt(cached)
	}
	return cached, nil
}

func (c *CachedRenderer) Name() string {
	return "cached " + c.inner.Name()
}

func (c *CachedRenderer) Render(ctx context.Context, payload string, size int) ([]byte, error) {
	key := cacheKey(payload, size)

	img, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		c.metrics.IncrementCache("hit")
		return img, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.metrics.IncrementCache("error")
		if c.logger != nil {
			c.logger.WarnContext(ctx, "image cache read failed, rendering fresh", "error", err)
		}
	} else {
		c.metrics.IncrementCache("miss")
	}

	img, err = c.inner.Render(ctx, payload, size)
	if err != nil {
		return nil, err
	}

	if err := c.client.Set(ctx, key, img, c.ttl).Err(); err != nil {
		if c.logger != nil {
			c.logger.WarnContext(ctx, "image cache write failed", "error", err)
		}
	}
	return img, nil
}

func cacheKey(payload string, size int) string {
	// Payloads are short URLs or key:value blocks; they are safe and
	// compact enough to key on directly.
	return fmt.Sprintf("qr:img:%d:%s", size, payload)
}
