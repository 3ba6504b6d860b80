package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gatepass/internal/registration/models"
	audit "gatepass/pkg/platform/audit"
	"gatepass/pkg/platform/sentinel"
	"gatepass/pkg/requestcontext"
)

// VerifyAndMark validates a scanned payload value, resolves it to a
// registration and marks attendance at most once. The first successful
// scan transitions the registration to present; every later scan returns
// the already-marked outcome with the original time and source intact.
//
// Malformed input fails with sentinel.ErrInvalidFormat before any store
// access. Unknown UIDs and UIDs on non-confirmed registrations both
// collapse into sentinel.ErrNotFound so a scan response never reveals
// whether a given value exists.
func (s *Service) VerifyAndMark(ctx context.Context, rawUID string, source string) (*models.AttendanceResult, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveVerifyLatency(time.Since(start))
	}()

	uid, err := models.ParseUID(rawUID)
	if err != nil {
		s.metrics.IncrementScanOutcome("invalid_format")
		return nil, err
	}

	now := requestcontext.Now(ctx)

	found, err := s.store.FindByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.rejectScan(ctx, uid, now, "unknown_uid")
		}
		return nil, fmt.Errorf("resolve uid: %w", err)
	}

	if found.Registration.Status != models.StatusConfirmed {
		return nil, s.rejectScan(ctx, uid, now, "not_confirmed")
	}

	if found.Registration.IsPresent() {
		s.metrics.IncrementScanOutcome("already_marked")
		return s.attendanceResult(found, models.OutcomeAlreadyMarked), nil
	}

	marked, err := s.store.MarkPresent(ctx, uid, now, source)
	if err != nil {
		return nil, fmt.Errorf("mark attendance for uid: %w", err)
	}

	if !marked {
		// Lost the race to a concurrent scan, or the registration was
		// cancelled between read and update. Re-read to tell them apart.
		return s.resolveUnmarked(ctx, uid, now)
	}

	found.Registration.MarkPresent(now, source)
	s.metrics.IncrementScanOutcome("marked")
	s.emitAudit(ctx, audit.Event{
		Timestamp:      now,
		Action:         audit.ActionAttendanceMarked,
		RegistrationID: int64(found.Registration.ID),
		UID:            uid.String(),
		SourceIP:       requestcontext.ClientIP(ctx),
		Device:         audit.DeviceSummary(requestcontext.UserAgent(ctx)),
		RequestID:      requestcontext.RequestID(ctx),
	})
	return s.attendanceResult(found, models.OutcomeMarked), nil
}

func (s *Service) resolveUnmarked(ctx context.Context, uid models.UID, now time.Time) (*models.AttendanceResult, error) {
	found, err := s.store.FindByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.rejectScan(ctx, uid, now, "unknown_uid")
		}
		return nil, fmt.Errorf("reload uid after contended mark: %w", err)
	}
	if found.Registration.Status != models.StatusConfirmed {
		return nil, s.rejectScan(ctx, uid, now, "not_confirmed")
	}
	if found.Registration.IsPresent() {
		s.metrics.IncrementScanOutcome("already_marked")
		return s.attendanceResult(found, models.OutcomeAlreadyMarked), nil
	}
	return nil, fmt.Errorf("attendance mark did not apply for uid: %w", sentinel.ErrUnavailable)
}

func (s *Service) rejectScan(ctx context.Context, uid models.UID, now time.Time, reason string) error {
	s.metrics.IncrementScanOutcome("not_found")
	s.emitAudit(ctx, audit.Event{
		Timestamp: now,
		Action:    audit.ActionScanRejected,
		UID:       uid.String(),
		SourceIP:  requestcontext.ClientIP(ctx),
		Device:    audit.DeviceSummary(requestcontext.UserAgent(ctx)),
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
	})
	return fmt.Errorf("no confirmed registration for scanned value: %w", sentinel.ErrNotFound)
}

func (s *Service) attendanceResult(found *models.VerifiedRegistration, outcome models.AttendanceOutcome) *models.AttendanceResult {
	result := &models.AttendanceResult{
		Outcome:          outcome,
		RegistrationID:   found.Registration.ID,
		ParticipantName:  found.Participant.Name,
		ParticipantEmail: found.Participant.Email,
		EventTitle:       found.Event.Title,
		EventDate:        found.Event.Date,
		EventTime:        found.Event.StartTime,
		EventVenue:       found.Event.Venue,
		AttendanceSource: found.Registration.AttendanceSource,
	}
	if found.Registration.AttendanceTime != nil {
		result.AttendanceTime = *found.Registration.AttendanceTime
	}
	return result
}
