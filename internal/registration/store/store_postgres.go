package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"gatepass/internal/registration/models"
	"gatepass/pkg/platform/sentinel"
	txcontext "gatepass/pkg/platform/tx"
)

// PostgresStore persists registrations in PostgreSQL.
// This store is pure I/O; eligibility rules and retry policy belong in the service.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed registration store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const registrationColumns = `id, event_id, participant_id, status, uid, attendance_status, attendance_time, attendance_source, created_at, updated_at`

func (s *PostgresStore) FindByID(ctx context.Context, id models.RegistrationID) (*models.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE id = $1
	`
	reg, err := scanRegistration(s.execer(ctx).QueryRowContext(ctx, query, int64(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("registration %d: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return reg, nil
}

func (s *PostgresStore) FindByUID(ctx context.Context, uid models.UID) (*models.VerifiedRegistration, error) {
	query := `
		SELECT r.id, r.event_id, r.participant_id, r.status, r.uid,
		       r.attendance_status, r.attendance_time, r.attendance_source,
		       r.created_at, r.updated_at,
		       e.title, e.event_date, e.start_time, e.venue,
		       p.name, p.email, p.external_id
		FROM registrations r
		JOIN events e ON e.id = r.event_id
		JOIN participants p ON p.id = r.participant_id
		WHERE r.uid = $1
	`
	joined, err := scanVerifiedRegistration(s.execer(ctx).QueryRowContext(ctx, query, uid.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("uid %s: %w", uid, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find registration by uid: %w", err)
	}
	return joined, nil
}

// AssignUID is the insert-if-null write. The WHERE clause keeps the write
// conditional on confirmed status and an unset uid, so a registration that
// was de-confirmed between the service's read and this write stays clean.
// The unique index on uid rejects candidates already held elsewhere.
func (s *PostgresStore) AssignUID(ctx context.Context, id models.RegistrationID, uid models.UID, now time.Time) (bool, error) {
	query := `
		UPDATE registrations
		SET uid = $2, updated_at = $3
		WHERE id = $1
		  AND status = 'confirmed'
		  AND uid IS NULL
	`
	result, err := s.execer(ctx).ExecContext(ctx, query, int64(id), uid.String(), now)
	if err != nil {
		if isUniqueViolation(err) {
			return false, fmt.Errorf("uid %s already assigned: %w", uid, sentinel.ErrConflict)
		}
		return false, fmt.Errorf("assign uid: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("assign uid rows affected: %w", err)
	}
	return rows > 0, nil
}

// MarkPresent applies the absent -> present transition atomically. Two
// concurrent scans of the same UID cannot both observe absent: the
// conditional update admits exactly one winner, the loser sees zero rows.
func (s *PostgresStore) MarkPresent(ctx context.Context, uid models.UID, now time.Time, source string) (bool, error) {
	query := `
		UPDATE registrations
		SET attendance_status = 'present', attendance_time = $2, attendance_source = $3, updated_at = $2
		WHERE uid = $1
		  AND status = 'confirmed'
		  AND attendance_status = 'absent'
	`
	result, err := s.execer(ctx).ExecContext(ctx, query, uid.String(), now, source)
	if err != nil {
		return false, fmt.Errorf("mark present: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark present rows affected: %w", err)
	}
	return rows > 0, nil
}

func (s *PostgresStore) ListByEvent(ctx context.Context, eventID int64) ([]*models.VerifiedRegistration, error) {
	query := `
		SELECT r.id, r.event_id, r.participant_id, r.status, r.uid,
		       r.attendance_status, r.attendance_time, r.attendance_source,
		       r.created_at, r.updated_at,
		       e.title, e.event_date, e.start_time, e.venue,
		       p.name, p.email, p.external_id
		FROM registrations r
		JOIN events e ON e.id = r.event_id
		JOIN participants p ON p.id = r.participant_id
		WHERE r.event_id = $1
		ORDER BY r.id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var out []*models.VerifiedRegistration
	for rows.Next() {
		joined, err := scanVerifiedRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration row: %w", err)
		}
		out = append(out, joined)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Create(ctx context.Context, reg *models.Registration) error {
	if reg.AttendanceStatus == "" {
		reg.AttendanceStatus = models.AttendanceAbsent
	}
	query := `
		INSERT INTO registrations (id, event_id, participant_id, status, uid, attendance_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $7)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		int64(reg.ID),
		reg.EventID,
		reg.ParticipantID,
		reg.Status.String(),
		reg.UID.String(),
		reg.AttendanceStatus.String(),
		reg.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("registration %d: %w", reg.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetStatus(ctx context.Context, id models.RegistrationID, status models.Status) error {
	result, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE registrations SET status = $2, updated_at = NOW() WHERE id = $1`,
		int64(id), status.String(),
	)
	if err != nil {
		return fmt.Errorf("set registration status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set registration status rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("registration %d: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

type registrationRow interface {
	Scan(dest ...any) error
}

func scanRegistration(row registrationRow) (*models.Registration, error) {
	var (
		reg            models.Registration
		uid            sql.NullString
		attendanceTime sql.NullTime
		source         sql.NullString
	)
	if err := row.Scan(
		&reg.ID, &reg.EventID, &reg.ParticipantID, &reg.Status, &uid,
		&reg.AttendanceStatus, &attendanceTime, &source,
		&reg.CreatedAt, &reg.UpdatedAt,
	); err != nil {
		return nil, err
	}
	applyNullables(&reg, uid, attendanceTime, source)
	return &reg, nil
}

func scanVerifiedRegistration(row registrationRow) (*models.VerifiedRegistration, error) {
	var (
		joined         models.VerifiedRegistration
		uid            sql.NullString
		attendanceTime sql.NullTime
		source         sql.NullString
	)
	reg := &joined.Registration
	if err := row.Scan(
		&reg.ID, &reg.EventID, &reg.ParticipantID, &reg.Status, &uid,
		&reg.AttendanceStatus, &attendanceTime, &source,
		&reg.CreatedAt, &reg.UpdatedAt,
		&joined.Event.Title, &joined.Event.Date, &joined.Event.StartTime, &joined.Event.Venue,
		&joined.Participant.Name, &joined.Participant.Email, &joined.Participant.ExternalID,
	); err != nil {
		return nil, err
	}
	joined.Event.ID = reg.EventID
	joined.Participant.ID = reg.ParticipantID
	applyNullables(reg, uid, attendanceTime, source)
	return &joined, nil
}

func applyNullables(reg *models.Registration, uid sql.NullString, attendanceTime sql.NullTime, source sql.NullString) {
	if uid.Valid {
		reg.UID = models.UID(uid.String)
	}
	if attendanceTime.Valid {
		t := attendanceTime.Time
		reg.AttendanceTime = &t
	}
	if source.Valid {
		reg.AttendanceSource = source.String
	}
}
