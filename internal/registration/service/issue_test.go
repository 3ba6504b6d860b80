package service

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"gatepass/internal/registration/models"
	"gatepass/internal/registration/store"
	audit "gatepass/pkg/platform/audit"
	"gatepass/pkg/platform/sentinel"
)

// capturePublisher collects emitted attendance log events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []audit.Event
}

func (p *capturePublisher) Emit(_ context.Context, event audit.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) Events() []audit.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]audit.Event, len(p.events))
	copy(out, p.events)
	return out
}

// collidingStore forces a number of uid conflicts before delegating, to
// exercise the candidate retry loop.
type collidingStore struct {
	*store.InMemoryStore
	mu        sync.Mutex
	conflicts int
}

func (c *collidingStore) AssignUID(ctx context.Context, id models.RegistrationID, uid models.UID, now time.Time) (bool, error) {
	c.mu.Lock()
	force := c.conflicts > 0
	if force {
		c.conflicts--
	}
	c.mu.Unlock()
	if force {
		return false, fmt.Errorf("uid %s already assigned: %w", uid, sentinel.ErrConflict)
	}
	return c.InMemoryStore.AssignUID(ctx, id, uid, now)
}

type IssueSuite struct {
	suite.Suite
	store   *store.InMemoryStore
	audit   *capturePublisher
	service *Service
}

func TestIssueSuite(t *testing.T) {
	suite.Run(t, new(IssueSuite))
}

func (s *IssueSuite) SetupTest() {
	s.store = store.NewMemory()
	s.audit = &capturePublisher{}

	s.store.PutEvent(models.Event{
		ID:        1,
		Title:     "Tech Symposium 2026",
		Date:      time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
		StartTime: "10:00",
		Venue:     "Main Auditorium",
	})
	s.store.PutParticipant(models.Participant{
		ID:         1,
		Name:       "Priya Sharma",
		Email:      "priya@example.edu",
		ExternalID: "EN2024117",
	})

	svc, err := New(s.store, WithAuditPublisher(s.audit))
	s.Require().NoError(err)
	s.service = svc
}

func (s *IssueSuite) seedRegistration(id models.RegistrationID, status models.Status) {
	s.Require().NoError(s.store.Create(context.Background(), &models.Registration{
		ID:            id,
		EventID:       1,
		ParticipantID: 1,
		Status:        status,
	}))
}

// -----------------------------------------------------------------------------
// UID shape
// -----------------------------------------------------------------------------

func (s *IssueSuite) TestIssuedUIDMatchesFormat() {
	s.seedRegistration(10, models.StatusConfirmed)

	uid, err := s.service.EnsureUID(context.Background(), 10)
	s.Require().NoError(err)

	s.Regexp(regexp.MustCompile(`^USER[A-HJ-NP-Z2-9]{8}$`), uid.String())
}

func (s *IssueSuite) TestIssuedUIDsAreDistinct() {
	seen := make(map[models.UID]bool)
	for i := models.RegistrationID(100); i < 150; i++ {
		s.seedRegistration(i, models.StatusConfirmed)
		uid, err := s.service.EnsureUID(context.Background(), i)
		s.Require().NoError(err)
		s.False(seen[uid], "uid %s issued twice", uid)
		seen[uid] = true
	}
}

// -----------------------------------------------------------------------------
// Idempotency
// -----------------------------------------------------------------------------

func (s *IssueSuite) TestRepeatCallsReturnSameUID() {
	s.seedRegistration(10, models.StatusConfirmed)

	first, err := s.service.EnsureUID(context.Background(), 10)
	s.Require().NoError(err)

	for i := 0; i < 5; i++ {
		again, err := s.service.EnsureUID(context.Background(), 10)
		s.Require().NoError(err)
		s.Equal(first, again)
	}
}

func (s *IssueSuite) TestConcurrentCallsConvergeOnOneUID() {
	s.seedRegistration(10, models.StatusConfirmed)

	const callers = 16
	results := make([]models.UID, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.service.EnsureUID(context.Background(), 10)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		s.Require().NoError(errs[i])
		s.Equal(results[0], results[i])
	}

	reg, err := s.store.FindByID(context.Background(), 10)
	s.Require().NoError(err)
	s.Equal(results[0], reg.UID)
}

// -----------------------------------------------------------------------------
// Eligibility
// -----------------------------------------------------------------------------

func (s *IssueSuite) TestIneligibleRegistrations() {
	s.Run("missing registration", func() {
		_, err := s.service.EnsureUID(context.Background(), 999)
		s.ErrorIs(err, sentinel.ErrNotEligible)
	})

	s.Run("pending registration", func() {
		s.seedRegistration(20, models.StatusPending)
		_, err := s.service.EnsureUID(context.Background(), 20)
		s.ErrorIs(err, sentinel.ErrNotEligible)
	})

	s.Run("waitlisted registration", func() {
		s.seedRegistration(21, models.StatusWaitlist)
		_, err := s.service.EnsureUID(context.Background(), 21)
		s.ErrorIs(err, sentinel.ErrNotEligible)
	})

	s.Run("cancelled registration", func() {
		s.seedRegistration(22, models.StatusCancelled)
		_, err := s.service.EnsureUID(context.Background(), 22)
		s.ErrorIs(err, sentinel.ErrNotEligible)
	})
}

func (s *IssueSuite) TestConfirmationUnlocksIssuance() {
	s.seedRegistration(30, models.StatusPending)

	_, err := s.service.EnsureUID(context.Background(), 30)
	s.ErrorIs(err, sentinel.ErrNotEligible)

	s.Require().NoError(s.store.SetStatus(context.Background(), 30, models.StatusConfirmed))

	uid, err := s.service.EnsureUID(context.Background(), 30)
	s.Require().NoError(err)
	s.False(uid.IsZero())
}

// -----------------------------------------------------------------------------
// Collision handling
// -----------------------------------------------------------------------------

func (s *IssueSuite) TestCollisionsRetryWithFreshCandidates() {
	s.seedRegistration(40, models.StatusConfirmed)
	colliding := &collidingStore{InMemoryStore: s.store, conflicts: 2}
	svc, err := New(colliding, WithAuditPublisher(s.audit))
	s.Require().NoError(err)

	uid, err := svc.EnsureUID(context.Background(), 40)
	s.Require().NoError(err)
	s.False(uid.IsZero())

	reg, err := s.store.FindByID(context.Background(), 40)
	s.Require().NoError(err)
	s.Equal(uid, reg.UID)
}

func (s *IssueSuite) TestCollisionRetriesExhausted() {
	s.seedRegistration(41, models.StatusConfirmed)
	colliding := &collidingStore{InMemoryStore: s.store, conflicts: 1000}
	svc, err := New(colliding)
	s.Require().NoError(err)

	_, err = svc.EnsureUID(context.Background(), 41)
	s.ErrorIs(err, sentinel.ErrUnavailable)

	reg, err := s.store.FindByID(context.Background(), 41)
	s.Require().NoError(err)
	s.True(reg.UID.IsZero())
}

// -----------------------------------------------------------------------------
// Attendance log
// -----------------------------------------------------------------------------

func (s *IssueSuite) TestIssuanceEmitsLogEventOnce() {
	s.seedRegistration(50, models.StatusConfirmed)

	uid, err := s.service.EnsureUID(context.Background(), 50)
	s.Require().NoError(err)

	_, err = s.service.EnsureUID(context.Background(), 50)
	s.Require().NoError(err)

	events := s.audit.Events()
	s.Require().Len(events, 1)
	s.Equal(audit.ActionUIDIssued, events[0].Action)
	s.Equal(int64(50), events[0].RegistrationID)
	s.Equal(uid.String(), events[0].UID)
}
