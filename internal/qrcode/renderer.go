package qrcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllRenderersFailed is returned when every renderer in the chain
// failed for a payload.
var ErrAllRenderersFailed = errors.New("all renderers failed")

// Renderer turns a payload string into PNG image bytes at the given pixel
// size. Implementations must be safe for concurrent use.
type Renderer interface {
	Name() string
	Render(ctx context.Context, payload string, size int) ([]byte, error)
}

// Chain tries renderers in order and returns the first success. External
// renderers go later in the chain; their failures are logged and the next
// renderer takes over.
type Chain struct {
	renderers []Renderer
	logger    *slog.Logger
	metrics   *Metrics
}

type ChainOption func(*Chain)

func WithChainLogger(logger *slog.Logger) ChainOption {
	return func(c *Chain) {
		c.logger = logger
	}
}

func WithChainMetrics(m *Metrics) ChainOption {
	return func(c *Chain) {
		c.metrics = m
	}
}

func NewChain(renderers []Renderer, opts ...ChainOption) (*Chain, error) {
	if len(renderers) == 0 {
		return nil, fmt.Errorf("at least one renderer is required")
	}

	chain := &Chain{renderers: renderers}
	for _, opt := range opts {
		opt(chain)
	}
	return chain, nil
}

func (c *Chain) Name() string {
	return "chain"
}

func (c *Chain) Render(ctx context.Context, payload string, size int) ([]byte, error) {
	var failures []error
	for _, r := range c.renderers {
		img, err := r.Render(ctx, payload, size)
		if err == nil {
			c.metrics.IncrementRender(r.Name(), "success")
			return img, nil
		}

		c.metrics.IncrementRender(r.Name(), "failure")
		if c.logger != nil {
			c.logger.WarnContext(ctx, "renderer failed, trying next",
				"renderer", r.Name(),
				"error", err,
			)
		}
		failures = append(failures, fmt.Errorf("%s: %w", r.Name(), err))
	}

	return nil, fmt.Errorf("%w: %v", ErrAllRenderersFailed, errors.Join(failures...))
}
