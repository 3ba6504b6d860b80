package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	audit "gatepass/pkg/platform/audit"
)

// Store persists attendance log entries in PostgreSQL. Inserts are
// idempotent per generated entry id via ON CONFLICT DO NOTHING, so a
// retried append cannot double-count a scan.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL attendance log store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO attendance_log (id, timestamp, action, registration_id, uid, source_ip, device, reason, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.New(),
		event.Timestamp,
		string(event.Action),
		event.RegistrationID,
		event.UID,
		event.SourceIP,
		event.Device,
		event.Reason,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert attendance log entry: %w", err)
	}
	return nil
}

func (s *Store) ListByRegistration(ctx context.Context, registrationID int64) ([]audit.Event, error) {
	query := `
		SELECT timestamp, action, registration_id, uid, source_ip, device, reason, request_id
		FROM attendance_log
		WHERE registration_id = $1
		ORDER BY timestamp DESC
	`
	rows, err := s.db.QueryContext(ctx, query, registrationID)
	if err != nil {
		return nil, fmt.Errorf("query attendance log: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT timestamp, action, registration_id, uid, source_ip, device, reason, request_id
		FROM attendance_log
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query attendance log: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			event  audit.Event
			action string
		)
		err := rows.Scan(
			&event.Timestamp,
			&action,
			&event.RegistrationID,
			&event.UID,
			&event.SourceIP,
			&event.Device,
			&event.Reason,
			&event.RequestID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan attendance log entry: %w", err)
		}
		event.Action = audit.Action(action)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance log: %w", err)
	}
	return events, nil
}
