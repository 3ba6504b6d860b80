// Package qrcode derives scannable payloads from registration data and
// renders them to PNG images through an ordered fallback chain.
package qrcode

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gatepass/internal/registration/models"
)

// snapshotTagLen is the number of hex characters kept from the digest.
// The tag is a tamper hint for printed passes, not a security boundary;
// live verification always goes through the scan endpoint.
const snapshotTagLen = 10

const snapshotDateLayout = "2006-01-02"

// BuildVerifyURL returns the default scannable payload: a URL that
// resolves directly against the attendance verifier, so a scan triggers
// live verification instead of trusting embedded data.
func BuildVerifyURL(baseEndpoint string, uid models.UID) string {
	return baseEndpoint + "?uid=" + url.QueryEscape(uid.String())
}

// BuildSnapshot returns the alternate static payload for printable
// passes: a newline-delimited key:value block describing the
// registration, closed with a short integrity tag. Deterministic for the
// same inputs.
func BuildSnapshot(reg *models.Registration, event models.Event, participant models.Participant, salt string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "registration:%d\n", reg.ID)
	fmt.Fprintf(&b, "participant:%s\n", participant.Name)
	fmt.Fprintf(&b, "participant_id:%s\n", participant.ExternalID)
	fmt.Fprintf(&b, "event:%s\n", event.Title)
	fmt.Fprintf(&b, "date:%s\n", event.Date.Format(snapshotDateLayout))
	fmt.Fprintf(&b, "time:%s\n", event.StartTime)
	fmt.Fprintf(&b, "venue:%s\n", event.Venue)
	fmt.Fprintf(&b, "status:%s\n", reg.Status)
	fmt.Fprintf(&b, "tag:%s", SnapshotTag(participant.ExternalID, event.Title, event.Date, salt))
	return b.String()
}

// SnapshotTag computes the integrity tag carried by snapshot payloads:
// the leading hex characters of a SHA-256 over the identity fields plus a
// shared salt.
func SnapshotTag(externalID, eventTitle string, eventDate time.Time, salt string) string {
	sum := sha256.Sum256([]byte(externalID + eventTitle + eventDate.Format(snapshotDateLayout) + salt))
	return hex.EncodeToString(sum[:])[:snapshotTagLen]
}
