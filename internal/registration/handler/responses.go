package handler

import (
	"time"

	"gatepass/internal/registration/models"
)

// AttendanceResponse is the JSON body returned to the scanning UI.
type AttendanceResponse struct {
	Outcome         string    `json:"outcome"`
	RegistrationID  int64     `json:"registration_id"`
	ParticipantName string    `json:"participant_name"`
	EventTitle      string    `json:"event_title"`
	EventDate       string    `json:"event_date"`
	EventTime       string    `json:"event_time,omitempty"`
	EventVenue      string    `json:"event_venue,omitempty"`
	AttendanceTime  time.Time `json:"attendance_time"`
	AttendedFrom    string    `json:"attended_from,omitempty"`
}

// FromAttendanceResult converts a service result to its response shape.
func FromAttendanceResult(result *models.AttendanceResult) AttendanceResponse {
	return AttendanceResponse{
		Outcome:         string(result.Outcome),
		RegistrationID:  int64(result.RegistrationID),
		ParticipantName: result.ParticipantName,
		EventTitle:      result.EventTitle,
		EventDate:       result.EventDate.Format("2006-01-02"),
		EventTime:       result.EventTime,
		EventVenue:      result.EventVenue,
		AttendanceTime:  result.AttendanceTime,
		AttendedFrom:    result.AttendanceSource,
	}
}

// RosterEntry is one registration row in the staff roll-call view.
type RosterEntry struct {
	RegistrationID   int64      `json:"registration_id"`
	ParticipantName  string     `json:"participant_name"`
	ParticipantEmail string     `json:"participant_email"`
	Status           string     `json:"status"`
	AttendanceStatus string     `json:"attendance_status"`
	AttendanceTime   *time.Time `json:"attendance_time,omitempty"`
	AttendedFrom     string     `json:"attended_from,omitempty"`
}

// RosterResponse is the staff roll-call view for one event.
type RosterResponse struct {
	EventID       int64         `json:"event_id"`
	Total         int           `json:"total"`
	Present       int           `json:"present"`
	Absent        int           `json:"absent"`
	Registrations []RosterEntry `json:"registrations"`
}

// FromRoster converts the joined rows into the roll-call response.
func FromRoster(eventID int64, roster []*models.VerifiedRegistration) RosterResponse {
	resp := RosterResponse{
		EventID:       eventID,
		Total:         len(roster),
		Registrations: make([]RosterEntry, 0, len(roster)),
	}
	for _, row := range roster {
		entry := RosterEntry{
			RegistrationID:   int64(row.Registration.ID),
			ParticipantName:  row.Participant.Name,
			ParticipantEmail: row.Participant.Email,
			Status:           row.Registration.Status.String(),
			AttendanceStatus: row.Registration.AttendanceStatus.String(),
			AttendanceTime:   row.Registration.AttendanceTime,
			AttendedFrom:     row.Registration.AttendanceSource,
		}
		if row.Registration.IsPresent() {
			resp.Present++
		} else {
			resp.Absent++
		}
		resp.Registrations = append(resp.Registrations, entry)
	}
	return resp
}
