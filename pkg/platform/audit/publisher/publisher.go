package publisher

import (
	"context"
	"log/slog"
	"time"

	audit "gatepass/pkg/platform/audit"
)

// Publisher hands attendance log events to a buffered channel consumed by
// the worker. Emission is non-blocking: when the buffer is full the event
// is dropped and counted, because the primary registration write must
// never wait on the mirror log.
type Publisher struct {
	outbox chan audit.Event
	logger *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the logger used for drop warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// New creates a Publisher with the given buffer capacity.
func New(capacity int, opts ...Option) *Publisher {
	if capacity <= 0 {
		capacity = 1024
	}
	p := &Publisher{
		outbox: make(chan audit.Event, capacity),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Events exposes the channel side consumed by the worker.
func (p *Publisher) Events() <-chan audit.Event {
	return p.outbox
}

// Emit queues an event for persistence. Never blocks; a full buffer drops
// the event with a warning.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.outbox <- event:
	default:
		if p.logger != nil {
			p.logger.WarnContext(ctx, "attendance log buffer full, dropping event",
				"action", string(event.Action),
				"registration_id", event.RegistrationID,
			)
		}
	}
	return nil
}
