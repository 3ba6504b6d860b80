package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gatepass/internal/registration/models"
	audit "gatepass/pkg/platform/audit"
	"gatepass/pkg/platform/sentinel"
	"gatepass/pkg/requestcontext"
)

// EnsureUID returns the registration's UID, generating and persisting one
// on first call. The operation is idempotent: once a UID is stored it is
// returned unchanged on every subsequent call, never regenerated.
//
// Returns sentinel.ErrNotEligible when the registration does not exist or
// is not confirmed, and sentinel.ErrUnavailable when repeated collisions
// exhaust the retry limit.
func (s *Service) EnsureUID(ctx context.Context, id models.RegistrationID) (models.UID, error) {
	// Concurrent calls for the same registration share one issuance; the
	// store-level uniqueness check still holds without this, it just
	// avoids burning candidates on duplicate in-flight requests.
	result, err, _ := s.issueGroup.Do(strconv.FormatInt(int64(id), 10), func() (any, error) {
		return s.ensureUID(ctx, id)
	})
	if err != nil {
		return "", err
	}
	return result.(models.UID), nil
}

func (s *Service) ensureUID(ctx context.Context, id models.RegistrationID) (models.UID, error) {
	reg, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", fmt.Errorf("registration %d: %w", id, sentinel.ErrNotEligible)
		}
		return "", fmt.Errorf("load registration %d: %w", id, err)
	}

	if reg.HasUID() {
		s.metrics.IncrementUIDIssued("existing")
		return reg.UID, nil
	}

	if !reg.EligibleForUID() {
		return "", fmt.Errorf("registration %d has status %q: %w", id, reg.Status, sentinel.ErrNotEligible)
	}

	now := requestcontext.Now(ctx)

	for attempt := 0; attempt < s.issueAttempts; attempt++ {
		candidate, err := models.NewUID()
		if err != nil {
			return "", fmt.Errorf("generate uid candidate: %w", err)
		}

		assigned, err := s.store.AssignUID(ctx, id, candidate, now)
		if err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				s.metrics.IncrementUIDCollision()
				if s.logger != nil {
					s.logger.WarnContext(ctx, "uid candidate collided, regenerating",
						"registration_id", int64(id),
						"attempt", attempt+1,
					)
				}
				continue
			}
			return "", fmt.Errorf("assign uid to registration %d: %w", id, err)
		}

		if !assigned {
			// Lost to a concurrent issuance or the registration changed
			// state underneath us; the re-read decides which.
			return s.resolveUnassigned(ctx, id)
		}

		s.metrics.IncrementUIDIssued("issued")
		s.emitAudit(ctx, audit.Event{
			Timestamp:      now,
			Action:         audit.ActionUIDIssued,
			RegistrationID: int64(id),
			UID:            candidate.String(),
			RequestID:      requestcontext.RequestID(ctx),
		})
		return candidate, nil
	}

	return "", fmt.Errorf("uid generation exhausted %d attempts for registration %d: %w",
		s.issueAttempts, id, sentinel.ErrUnavailable)
}

func (s *Service) resolveUnassigned(ctx context.Context, id models.RegistrationID) (models.UID, error) {
	reg, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", fmt.Errorf("registration %d: %w", id, sentinel.ErrNotEligible)
		}
		return "", fmt.Errorf("reload registration %d: %w", id, err)
	}
	if reg.HasUID() {
		s.metrics.IncrementUIDIssued("existing")
		return reg.UID, nil
	}
	return "", fmt.Errorf("registration %d has status %q: %w", id, reg.Status, sentinel.ErrNotEligible)
}
