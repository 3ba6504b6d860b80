// Package audit is the best-effort attendance log mirrored off the primary
// registration writes. Entries here are for reporting and forensics; a
// failed append never rolls back or fails the operation that produced it.
package audit

import (
	"time"

	"github.com/mssola/useragent"
)

// Action names the operation an entry records.
type Action string

const (
	// ActionUIDIssued records a fresh UID assignment to a registration.
	ActionUIDIssued Action = "uid_issued"
	// ActionAttendanceMarked records a winning absent -> present scan.
	ActionAttendanceMarked Action = "attendance_marked"
	// ActionScanRejected records a scan that resolved to no markable
	// registration (unknown uid, wrong status, or repeated scan).
	ActionScanRejected Action = "scan_rejected"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp      time.Time
	Action         Action
	RegistrationID int64
	UID            string
	// SourceIP is the scanning client's network address.
	SourceIP string
	// Device is a short human-readable browser/OS summary of the scanner.
	Device string
	// Reason carries the store-level cause for rejected scans. It stays in
	// the log only; user-facing errors never distinguish these causes.
	Reason    string
	RequestID string
}

// DeviceSummary condenses a raw User-Agent header into a short
// "Browser x.y on OS" label for log entries. Empty input yields empty output.
func DeviceSummary(rawUA string) string {
	if rawUA == "" {
		return ""
	}
	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	if name == "" {
		return rawUA
	}
	summary := name
	if version != "" {
		summary += " " + version
	}
	if os := ua.OS(); os != "" {
		summary += " on " + os
	}
	return summary
}
