package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"gatepass/internal/qrcode"
	"gatepass/internal/registration/models"
	"gatepass/internal/registration/service"
	"gatepass/internal/registration/store"
	"gatepass/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	store   *store.InMemoryStore
	service *service.Service
	router  chi.Router
	scanAt  time.Time
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.store = store.NewMemory()
	s.scanAt = time.Date(2026, 9, 12, 10, 3, 27, 0, time.UTC)

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

	svc, err := service.New(s.store)
	s.Require().NoError(err)
	s.service = svc

	h := New(svc, qrcode.NewLocalRenderer(), Config{
		VerifyBaseURL: "https://events.example.edu/attend",
		PayloadSalt:   "campus-salt",
	}, slog.New(slog.DiscardHandler))

	router := chi.NewRouter()
	router.Use(s.injectClientMetadata)
	h.Register(router)
	h.RegisterStaff(router)
	s.router = router
}

// injectClientMetadata stands in for the production middleware chain.
func (s *HandlerSuite) injectClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = testutil.WithClientMetadata(r, "10.0.0.5", r.UserAgent())
		r = testutil.WithRequestTime(r, s.scanAt)
		next.ServeHTTP(w, r)
	})
}

func (s *HandlerSuite) seedConfirmed(id models.RegistrationID) models.UID {
	s.Require().NoError(s.store.Create(context.Background(), &models.Registration{
		ID:            id,
		EventID:       1,
		ParticipantID: 1,
		Status:        models.StatusConfirmed,
	}))
	uid, err := s.service.EnsureUID(context.Background(), id)
	s.Require().NoError(err)
	return uid
}

func (s *HandlerSuite) do(method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// -----------------------------------------------------------------------------
// GET /attend
// -----------------------------------------------------------------------------

func (s *HandlerSuite) TestAttendMarksPresent() {
	uid := s.seedConfirmed(10)

	w := s.do(http.MethodGet, "/attend?uid="+uid.String())
	s.Require().Equal(http.StatusOK, w.Code)

	var resp AttendanceResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
	s.Equal("marked", resp.Outcome)
	s.Equal(int64(10), resp.RegistrationID)
	s.Equal("Priya Sharma", resp.ParticipantName)
	s.Equal("Tech Symposium 2026", resp.EventTitle)
	s.Equal("2026-09-12", resp.EventDate)
	s.Equal("10.0.0.5", resp.AttendedFrom)
	s.True(resp.AttendanceTime.Equal(s.scanAt))
}

func (s *HandlerSuite) TestAttendRepeatScan() {
	uid := s.seedConfirmed(10)

	first := s.do(http.MethodGet, "/attend?uid="+uid.String())
	s.Require().Equal(http.StatusOK, first.Code)

	second := s.do(http.MethodGet, "/attend?uid="+uid.String())
	s.Require().Equal(http.StatusOK, second.Code)

	var resp AttendanceResponse
	s.Require().NoError(json.NewDecoder(second.Body).Decode(&resp))
	s.Equal("already_marked", resp.Outcome)
	s.True(resp.AttendanceTime.Equal(s.scanAt))
}

func (s *HandlerSuite) TestAttendMalformedUID() {
	w := s.do(http.MethodGet, "/attend?uid=not-a-uid")
	s.Equal(http.StatusBadRequest, w.Code)

	var body map[string]string
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&body))
	s.Equal("invalid_format", body["error"])
}

func (s *HandlerSuite) TestAttendUnknownUID() {
	w := s.do(http.MethodGet, "/attend?uid=USERZZ99ZZ99")
	s.Equal(http.StatusNotFound, w.Code)

	var body map[string]string
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&body))
	s.Equal("not_found", body["error"])
}

// -----------------------------------------------------------------------------
// QR and pass endpoints
// -----------------------------------------------------------------------------

func (s *HandlerSuite) TestQRImage() {
	s.seedConfirmed(10)

	w := s.do(http.MethodGet, "/registrations/10/qr")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("image/png", w.Header().Get("Content-Type"))

	img := w.Body.Bytes()
	s.Require().NotEmpty(img)
	s.Equal([]byte{0x89, 'P', 'N', 'G'}, img[:4])
}

func (s *HandlerSuite) TestQRDownloadDisposition() {
	uid := s.seedConfirmed(10)

	w := s.do(http.MethodGet, "/registrations/10/qr/download")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Header().Get("Content-Disposition"), "attachment")
	s.Contains(w.Header().Get("Content-Disposition"), uid.String())
}

func (s *HandlerSuite) TestQRIssuesUIDOnFirstRequest() {
	s.Require().NoError(s.store.Create(context.Background(), &models.Registration{
		ID:            11,
		EventID:       1,
		ParticipantID: 1,
		Status:        models.StatusConfirmed,
	}))

	w := s.do(http.MethodGet, "/registrations/11/qr")
	s.Require().Equal(http.StatusOK, w.Code)

	reg, err := s.store.FindByID(context.Background(), 11)
	s.Require().NoError(err)
	s.False(reg.UID.IsZero())
}

func (s *HandlerSuite) TestQRForPendingRegistration() {
	s.Require().NoError(s.store.Create(context.Background(), &models.Registration{
		ID:            12,
		EventID:       1,
		ParticipantID: 1,
		Status:        models.StatusPending,
	}))

	w := s.do(http.MethodGet, "/registrations/12/qr")
	s.Equal(http.StatusConflict, w.Code)

	var body map[string]string
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&body))
	s.Equal("not_eligible", body["error"])
}

func (s *HandlerSuite) TestQRNonNumericID() {
	w := s.do(http.MethodGet, "/registrations/abc/qr")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerSuite) TestPassPayload() {
	s.seedConfirmed(10)

	w := s.do(http.MethodGet, "/registrations/10/pass")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Header().Get("Content-Type"), "text/plain")

	body := w.Body.String()
	s.Contains(body, "registration:10")
	s.Contains(body, "participant:Priya Sharma")
	s.Contains(body, "event:Tech Symposium 2026")
	s.Contains(body, "tag:")
}

// -----------------------------------------------------------------------------
// Staff roll-call
// -----------------------------------------------------------------------------

func (s *HandlerSuite) TestEventAttendance() {
	uid := s.seedConfirmed(10)
	s.seedConfirmed(11)

	w := s.do(http.MethodGet, "/attend?uid="+uid.String())
	s.Require().Equal(http.StatusOK, w.Code)

	resp := s.do(http.MethodGet, "/events/1/attendance")
	s.Require().Equal(http.StatusOK, resp.Code)

	var roster RosterResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&roster))
	s.Equal(int64(1), roster.EventID)
	s.Equal(2, roster.Total)
	s.Equal(1, roster.Present)
	s.Equal(1, roster.Absent)
	s.Require().Len(roster.Registrations, 2)
	s.Equal("present", roster.Registrations[0].AttendanceStatus)
	s.Equal("absent", roster.Registrations[1].AttendanceStatus)
}

func (s *HandlerSuite) TestEventAttendanceEmpty() {
	resp := s.do(http.MethodGet, "/events/7/attendance")
	s.Require().Equal(http.StatusOK, resp.Code)

	var roster RosterResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&roster))
	s.Zero(roster.Total)
}
