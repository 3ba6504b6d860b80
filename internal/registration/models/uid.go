package models

import (
	"crypto/rand"
	"fmt"
	"regexp"

	"gatepass/pkg/platform/sentinel"
)

// UID is the opaque identifier embedded in a registration's scannable code.
// Shape: "USER" + 8 characters from an unambiguous uppercase alphanumeric
// alphabet (no 0/O or 1/I, for scan and transcription friendliness). Chosen
// for collision resistance, not cryptographic secrecy; the live database
// lookup is the verification boundary.
type UID string

const (
	uidPrefix    = "USER"
	uidSuffixLen = 8
	uidAlphabet  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

var uidPattern = regexp.MustCompile(`^USER[A-HJ-NP-Z2-9]{8}$`)

// NewUID generates a random UID candidate. Uniqueness is the store's job;
// callers retry on sentinel.ErrConflict.
func NewUID() (UID, error) {
	buf := make([]byte, uidSuffixLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	suffix := make([]byte, uidSuffixLen)
	for i, b := range buf {
		suffix[i] = uidAlphabet[int(b)%len(uidAlphabet)]
	}
	return UID(uidPrefix + string(suffix)), nil
}

// ParseUID validates scanned input against the issuer's shape before any
// lookup. Malformed input fails fast with sentinel.ErrInvalidFormat.
func ParseUID(s string) (UID, error) {
	if !uidPattern.MatchString(s) {
		return "", fmt.Errorf("uid %q: %w", s, sentinel.ErrInvalidFormat)
	}
	return UID(s), nil
}

// String returns the string representation of the UID.
func (u UID) String() string {
	return string(u)
}

// IsZero reports whether no UID has been issued.
func (u UID) IsZero() bool {
	return u == ""
}
