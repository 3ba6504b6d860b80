package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"gatepass/internal/registration/metrics"
	"gatepass/internal/registration/models"
	audit "gatepass/pkg/platform/audit"
)

// Store is the persistence surface the service needs. The full interface
// lives in the store package; this narrows it to the guarded operations.
type Store interface {
	FindByID(ctx context.Context, id models.RegistrationID) (*models.Registration, error)
	FindByUID(ctx context.Context, uid models.UID) (*models.VerifiedRegistration, error)
	AssignUID(ctx context.Context, id models.RegistrationID, uid models.UID, now time.Time) (assigned bool, err error)
	MarkPresent(ctx context.Context, uid models.UID, now time.Time, source string) (marked bool, err error)
	ListByEvent(ctx context.Context, eventID int64) ([]*models.VerifiedRegistration, error)
}

// AuditPublisher emits attendance log events for issued UIDs and scans.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// defaultIssueAttempts bounds candidate regeneration on UID collisions.
// With an 8-character suffix over a 32-character alphabet a single
// collision is already rare; repeated collisions indicate a broken
// random source rather than bad luck.
const defaultIssueAttempts = 5

// Service owns UID issuance and attendance verification. It re-reads
// persisted state on every call; no registration state is cached across
// requests, since staleness would break the at-most-once guarantees.
type Service struct {
	store          Store
	auditPublisher AuditPublisher
	logger         *slog.Logger
	metrics        *metrics.Metrics
	issueAttempts  int
	issueGroup     singleflight.Group
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("registration store is required")
	}

	svc := &Service{
		store:         store,
		issueAttempts: defaultIssueAttempts,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// Roster returns all registrations for an event with display fields, for
// staff roll-call views.
func (s *Service) Roster(ctx context.Context, eventID int64) ([]*models.VerifiedRegistration, error) {
	roster, err := s.store.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list event roster: %w", err)
	}
	return roster, nil
}

// emitAudit forwards to the publisher when configured. Failures are logged
// and swallowed; the attendance log is best-effort by contract.
func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to emit attendance log event",
			"action", string(event.Action),
			"registration_id", event.RegistrationID,
			"error", err,
		)
	}
}
