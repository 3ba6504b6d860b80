package audit

import "context"

// Store persists attendance log entries. Implementations must be safe for
// concurrent use; Append failures are reported to the caller but callers
// treat them as non-fatal.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByRegistration(ctx context.Context, registrationID int64) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
