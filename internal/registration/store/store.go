// Package store persists registrations and enforces the two guarded
// mutations of the check-in flow: UID assignment and attendance marking.
package store

import (
	"context"
	"time"

	"gatepass/internal/registration/models"
)

// Error Contract:
// All store methods follow this error pattern:
// - Return sentinel.ErrNotFound (wrapped) when the requested entity does not exist
// - Return sentinel.ErrConflict (wrapped) when a uniqueness constraint rejects a write
// - Return nil for successful operations
// - Return wrapped errors with context for infrastructure failures

// RegistrationStore is interface-driven to keep the domain logic testable
// and to allow swapping in-memory and PostgreSQL persistence without
// rewiring business code.
type RegistrationStore interface {
	// FindByID returns the registration with the given id.
	FindByID(ctx context.Context, id models.RegistrationID) (*models.Registration, error)

	// FindByUID resolves a UID to its registration joined with the owning
	// event and participant display fields.
	FindByUID(ctx context.Context, uid models.UID) (*models.VerifiedRegistration, error)

	// AssignUID writes the UID if and only if the registration is confirmed
	// and has no UID yet (insert-if-null). Returns assigned=false when the
	// conditional write matched no row; returns sentinel.ErrConflict when
	// the candidate UID is already held by another registration.
	AssignUID(ctx context.Context, id models.RegistrationID, uid models.UID, now time.Time) (assigned bool, err error)

	// MarkPresent applies the absent -> present transition as a single
	// conditional update keyed on attendance_status = absent, so exactly
	// one of any set of concurrent scans wins. Returns marked=false when
	// the row was already present (or no longer eligible).
	MarkPresent(ctx context.Context, uid models.UID, now time.Time, source string) (marked bool, err error)

	// ListByEvent returns all registrations for an event joined with
	// participant display fields, for roll-call reporting.
	ListByEvent(ctx context.Context, eventID int64) ([]*models.VerifiedRegistration, error)
}

// RegistrationAdmin covers the lifecycle edges owned by the external
// approval workflow. The service never calls these; seeds and tests do.
type RegistrationAdmin interface {
	Create(ctx context.Context, reg *models.Registration) error
	SetStatus(ctx context.Context, id models.RegistrationID, status models.Status) error
}
