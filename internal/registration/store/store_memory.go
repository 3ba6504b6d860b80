package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gatepass/internal/registration/models"
	"gatepass/pkg/platform/sentinel"
)

// InMemoryStore keeps registrations in memory for tests/dev. The mutex
// gives the same serialization the PostgreSQL conditional updates give in
// production, so the at-most-once properties hold under concurrent use.
type InMemoryStore struct {
	mu            sync.RWMutex
	registrations map[models.RegistrationID]*models.Registration
	byUID         map[models.UID]models.RegistrationID
	events        map[int64]models.Event
	participants  map[int64]models.Participant
	lookups       int
}

// NewMemory constructs an empty in-memory registration store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		registrations: make(map[models.RegistrationID]*models.Registration),
		byUID:         make(map[models.UID]models.RegistrationID),
		events:        make(map[int64]models.Event),
		participants:  make(map[int64]models.Participant),
	}
}

// PutEvent seeds an event fixture. Test/dev helper, not part of the
// RegistrationStore interface.
func (s *InMemoryStore) PutEvent(event models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ID] = event
}

// PutParticipant seeds a participant fixture.
func (s *InMemoryStore) PutParticipant(p models.Participant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[p.ID] = p
}

// LookupCount reports how many point lookups have been served. Tests use
// it to assert that malformed scans never touch persistence.
func (s *InMemoryStore) LookupCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookups
}

func (s *InMemoryStore) Create(_ context.Context, reg *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.registrations[reg.ID]; ok {
		return fmt.Errorf("registration %d: %w", reg.ID, sentinel.ErrConflict)
	}
	if reg.AttendanceStatus == "" {
		reg.AttendanceStatus = models.AttendanceAbsent
	}
	clone := *reg
	s.registrations[reg.ID] = &clone
	if !reg.UID.IsZero() {
		s.byUID[reg.UID] = reg.ID
	}
	return nil
}

func (s *InMemoryStore) SetStatus(_ context.Context, id models.RegistrationID, status models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.registrations[id]
	if !ok {
		return fmt.Errorf("registration %d: %w", id, sentinel.ErrNotFound)
	}
	reg.Status = status
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id models.RegistrationID) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	reg, ok := s.registrations[id]
	if !ok {
		return nil, fmt.Errorf("registration %d: %w", id, sentinel.ErrNotFound)
	}
	clone := *reg
	return &clone, nil
}

func (s *InMemoryStore) FindByUID(_ context.Context, uid models.UID) (*models.VerifiedRegistration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	id, ok := s.byUID[uid]
	if !ok {
		return nil, fmt.Errorf("uid %s: %w", uid, sentinel.ErrNotFound)
	}
	return s.joinLocked(s.registrations[id])
}

// AssignUID mirrors the production conditional update: the write happens
// only while the registration is confirmed and still has no UID.
func (s *InMemoryStore) AssignUID(_ context.Context, id models.RegistrationID, uid models.UID, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byUID[uid]; taken {
		return false, fmt.Errorf("uid %s already assigned: %w", uid, sentinel.ErrConflict)
	}
	reg, ok := s.registrations[id]
	if !ok || reg.Status != models.StatusConfirmed || !reg.UID.IsZero() {
		return false, nil
	}
	reg.UID = uid
	reg.UpdatedAt = now
	s.byUID[uid] = id
	return true, nil
}

// MarkPresent mirrors the production compare-and-swap keyed on
// attendance_status = absent.
func (s *InMemoryStore) MarkPresent(_ context.Context, uid models.UID, now time.Time, source string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byUID[uid]
	if !ok {
		return false, nil
	}
	reg := s.registrations[id]
	if reg.Status != models.StatusConfirmed || reg.IsPresent() {
		return false, nil
	}
	reg.MarkPresent(now, source)
	return true, nil
}

func (s *InMemoryStore) ListByEvent(_ context.Context, eventID int64) ([]*models.VerifiedRegistration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.VerifiedRegistration
	for _, reg := range s.registrations {
		if reg.EventID != eventID {
			continue
		}
		joined, err := s.joinLocked(reg)
		if err != nil {
			return nil, err
		}
		out = append(out, joined)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Registration.ID < out[j].Registration.ID
	})
	return out, nil
}

func (s *InMemoryStore) joinLocked(reg *models.Registration) (*models.VerifiedRegistration, error) {
	event, ok := s.events[reg.EventID]
	if !ok {
		return nil, fmt.Errorf("event %d: %w", reg.EventID, sentinel.ErrNotFound)
	}
	participant, ok := s.participants[reg.ParticipantID]
	if !ok {
		return nil, fmt.Errorf("participant %d: %w", reg.ParticipantID, sentinel.ErrNotFound)
	}
	clone := *reg
	return &models.VerifiedRegistration{
		Registration: clone,
		Event:        event,
		Participant:  participant,
	}, nil
}
