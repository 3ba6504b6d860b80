package worker

import (
	"context"
	"log/slog"

	audit "gatepass/pkg/platform/audit"
)

// Worker consumes attendance log events from a channel and persists them.
// Append failures are logged and skipped: the log is best-effort by
// contract, so a broken sink must not stop the stream.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil && w.logger != nil {
				w.logger.ErrorContext(ctx, "failed to append attendance log entry",
					"action", string(event.Action),
					"registration_id", event.RegistrationID,
					"error", err,
				)
			}
		}
	}
}
