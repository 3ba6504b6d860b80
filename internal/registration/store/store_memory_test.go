package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"gatepass/internal/registration/models"
	"gatepass/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
	s.now = time.Date(2026, 9, 12, 10, 0, 0, 0, time.UTC)

	s.store.PutEvent(models.Event{ID: 1, Title: "Tech Symposium 2026", Date: s.now.Truncate(24 * time.Hour)})
	s.store.PutParticipant(models.Participant{ID: 1, Name: "Priya Sharma", ExternalID: "EN2024117"})
}

func (s *InMemoryStoreSuite) seed(id models.RegistrationID, status models.Status, uid models.UID) {
	s.Require().NoError(s.store.Create(context.Background(), &models.Registration{
		ID:            id,
		EventID:       1,
		ParticipantID: 1,
		Status:        status,
		UID:           uid,
	}))
}

func (s *InMemoryStoreSuite) TestFindByID() {
	ctx := context.Background()

	s.Run("missing registration returns not found", func() {
		_, err := s.store.FindByID(ctx, 999)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("existing registration is returned as a copy", func() {
		s.seed(1, models.StatusConfirmed, "")

		reg, err := s.store.FindByID(ctx, 1)
		s.Require().NoError(err)
		s.Equal(models.RegistrationID(1), reg.ID)

		// Mutating the returned value must not leak into the store.
		reg.Status = models.StatusCancelled
		again, err := s.store.FindByID(ctx, 1)
		s.Require().NoError(err)
		s.Equal(models.StatusConfirmed, again.Status)
	})
}

func (s *InMemoryStoreSuite) TestAssignUID() {
	ctx := context.Background()

	s.Run("assigns to a confirmed registration without uid", func() {
		s.seed(1, models.StatusConfirmed, "")

		assigned, err := s.store.AssignUID(ctx, 1, "USERAB23CD45", s.now)
		s.Require().NoError(err)
		s.True(assigned)

		reg, err := s.store.FindByID(ctx, 1)
		s.Require().NoError(err)
		s.Equal(models.UID("USERAB23CD45"), reg.UID)
		s.Equal(s.now, reg.UpdatedAt)
	})

	s.Run("does not overwrite an existing uid", func() {
		s.seed(2, models.StatusConfirmed, "USERQQ77QQ77")

		assigned, err := s.store.AssignUID(ctx, 2, "USERNN66NN66", s.now)
		s.Require().NoError(err)
		s.False(assigned)

		reg, err := s.store.FindByID(ctx, 2)
		s.Require().NoError(err)
		s.Equal(models.UID("USERQQ77QQ77"), reg.UID)
	})

	s.Run("skips non-confirmed registrations", func() {
		s.seed(3, models.StatusPending, "")

		assigned, err := s.store.AssignUID(ctx, 3, "USERMM55MM55", s.now)
		s.Require().NoError(err)
		s.False(assigned)
	})

	s.Run("rejects a uid already held by another registration", func() {
		s.seed(4, models.StatusConfirmed, "USERTT44TT44")
		s.seed(5, models.StatusConfirmed, "")

		_, err := s.store.AssignUID(ctx, 5, "USERTT44TT44", s.now)
		s.ErrorIs(err, sentinel.ErrConflict)
	})
}

func (s *InMemoryStoreSuite) TestFindByUID() {
	ctx := context.Background()

	s.Run("unknown uid returns not found", func() {
		_, err := s.store.FindByUID(ctx, "USERZZ99ZZ99")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returns the joined row", func() {
		s.seed(1, models.StatusConfirmed, "USERAB23CD45")

		joined, err := s.store.FindByUID(ctx, "USERAB23CD45")
		s.Require().NoError(err)
		s.Equal(models.RegistrationID(1), joined.Registration.ID)
		s.Equal("Tech Symposium 2026", joined.Event.Title)
		s.Equal("Priya Sharma", joined.Participant.Name)
	})
}

func (s *InMemoryStoreSuite) TestMarkPresent() {
	ctx := context.Background()

	s.Run("marks a confirmed absent registration", func() {
		s.seed(1, models.StatusConfirmed, "USERAB23CD45")

		marked, err := s.store.MarkPresent(ctx, "USERAB23CD45", s.now, "10.0.0.5")
		s.Require().NoError(err)
		s.True(marked)

		reg, err := s.store.FindByID(ctx, 1)
		s.Require().NoError(err)
		s.True(reg.IsPresent())
		s.Equal(s.now, *reg.AttendanceTime)
		s.Equal("10.0.0.5", reg.AttendanceSource)
	})

	s.Run("second mark is a no-op", func() {
		s.seed(2, models.StatusConfirmed, "USERQQ77QQ77")

		marked, err := s.store.MarkPresent(ctx, "USERQQ77QQ77", s.now, "10.0.0.5")
		s.Require().NoError(err)
		s.True(marked)

		later := s.now.Add(30 * time.Minute)
		marked, err = s.store.MarkPresent(ctx, "USERQQ77QQ77", later, "10.0.0.9")
		s.Require().NoError(err)
		s.False(marked)

		reg, err := s.store.FindByID(ctx, 2)
		s.Require().NoError(err)
		s.Equal(s.now, *reg.AttendanceTime)
		s.Equal("10.0.0.5", reg.AttendanceSource)
	})

	s.Run("unknown uid is a no-op", func() {
		marked, err := s.store.MarkPresent(ctx, "USERZZ99ZZ99", s.now, "10.0.0.5")
		s.Require().NoError(err)
		s.False(marked)
	})

	s.Run("non-confirmed registration is a no-op", func() {
		s.seed(3, models.StatusConfirmed, "USERMM55MM55")
		s.Require().NoError(s.store.SetStatus(ctx, 3, models.StatusCancelled))

		marked, err := s.store.MarkPresent(ctx, "USERMM55MM55", s.now, "10.0.0.5")
		s.Require().NoError(err)
		s.False(marked)
	})
}

// TestConcurrentMarkPresent verifies that concurrent scans admit exactly
// one winner.
func (s *InMemoryStoreSuite) TestConcurrentMarkPresent() {
	ctx := context.Background()
	s.seed(1, models.StatusConfirmed, "USERAB23CD45")

	const scanners = 32
	results := make([]bool, scanners)

	var wg sync.WaitGroup
	for i := 0; i < scanners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			marked, err := s.store.MarkPresent(ctx, "USERAB23CD45", s.now, "10.0.0.5")
			s.NoError(err)
			results[i] = marked
		}(i)
	}
	wg.Wait()

	var winners int
	for _, marked := range results {
		if marked {
			winners++
		}
	}
	s.Equal(1, winners)
}

func (s *InMemoryStoreSuite) TestListByEvent() {
	ctx := context.Background()
	s.seed(3, models.StatusConfirmed, "USERAB23CD45")
	s.seed(1, models.StatusPending, "")
	s.seed(2, models.StatusCancelled, "")

	roster, err := s.store.ListByEvent(ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(roster, 3)

	// Ordered by registration id regardless of insertion order.
	s.Equal(models.RegistrationID(1), roster[0].Registration.ID)
	s.Equal(models.RegistrationID(2), roster[1].Registration.ID)
	s.Equal(models.RegistrationID(3), roster[2].Registration.ID)

	empty, err := s.store.ListByEvent(ctx, 99)
	s.Require().NoError(err)
	s.Empty(empty)
}
