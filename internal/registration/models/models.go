package models

import (
	"time"
)

// RegistrationID identifies one participant's claim on one event.
// Assigned at creation by the registration workflow, stable thereafter.
type RegistrationID int64

// Status is the registration lifecycle state. Only confirmed registrations
// are eligible for UID issuance and attendance marking.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusWaitlist  Status = "waitlist"
	StatusCancelled Status = "cancelled"
)

// validStatuses is the single source of truth for valid lifecycle states.
var validStatuses = map[Status]bool{
	StatusPending:   true,
	StatusConfirmed: true,
	StatusWaitlist:  true,
	StatusCancelled: true,
}

// IsValid checks if the status is one of the supported enum values.
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// AttendanceStatus tracks the one-way absent -> present transition.
type AttendanceStatus string

const (
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendancePresent AttendanceStatus = "present"
)

// String returns the string representation of the attendance status.
func (a AttendanceStatus) String() string {
	return string(a)
}

// Registration is the shared mutable resource of the check-in flow. All
// mutation goes through the two guarded store operations (AssignUID,
// MarkPresent); everything else is read-only projection.
type Registration struct {
	ID            RegistrationID
	EventID       int64
	ParticipantID int64
	Status        Status
	// UID is empty until first issuance, then globally unique and immutable.
	UID UID
	AttendanceStatus AttendanceStatus
	// AttendanceTime is set exactly once, on the transition to present.
	AttendanceTime *time.Time
	// AttendanceSource records the network address the winning scan came from.
	AttendanceSource string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// EligibleForUID reports whether a UID may be issued for this registration.
// Only confirmed registrations carry scannable codes.
func (r *Registration) EligibleForUID() bool {
	return r.Status == StatusConfirmed
}

// HasUID reports whether a UID has already been issued.
func (r *Registration) HasUID() bool {
	return r.UID != ""
}

// IsPresent reports whether attendance has already been marked.
func (r *Registration) IsPresent() bool {
	return r.AttendanceStatus == AttendancePresent
}

// MarkPresent applies the absent -> present transition on the in-memory
// representation. Callers must have established, under the store's lock,
// that the registration is still absent.
func (r *Registration) MarkPresent(now time.Time, source string) {
	r.AttendanceStatus = AttendancePresent
	r.AttendanceTime = &now
	r.AttendanceSource = source
	r.UpdatedAt = now
}

// Event supplies the descriptive fields embedded in code payloads and
// result projections. Read-only from this service's perspective.
type Event struct {
	ID        int64
	Title     string
	Date      time.Time
	StartTime string
	Venue     string
}

// Participant supplies the display identity embedded in code payloads.
// Read-only from this service's perspective.
type Participant struct {
	ID    int64
	Name  string
	Email string
	// ExternalID is the institution-issued identifier (enrollment number).
	ExternalID string
}

// VerifiedRegistration is the read-through join a scan resolves to: the
// registration plus the event and participant fields needed for display.
type VerifiedRegistration struct {
	Registration Registration
	Event        Event
	Participant  Participant
}

// AttendanceOutcome distinguishes a fresh mark from an idempotent re-scan.
type AttendanceOutcome string

const (
	// OutcomeMarked means this scan won the absent -> present transition.
	OutcomeMarked AttendanceOutcome = "marked"
	// OutcomeAlreadyMarked means attendance was recorded by an earlier scan;
	// the carried time and source are the originals, not this scan's.
	OutcomeAlreadyMarked AttendanceOutcome = "already_marked"
)

// AttendanceResult is the projection handed back to the scanning UI.
type AttendanceResult struct {
	Outcome          AttendanceOutcome
	RegistrationID   RegistrationID
	ParticipantName  string
	ParticipantEmail string
	EventTitle       string
	EventDate        time.Time
	EventTime        string
	EventVenue       string
	AttendanceTime   time.Time
	AttendanceSource string
}
