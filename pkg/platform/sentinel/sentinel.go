package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain outcomes.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: uniqueness constraint violated (e.g. duplicate UID candidate)
// - ErrNotEligible: entity in wrong lifecycle state for requested operation
// - ErrInvalidFormat: input fails shape validation before any lookup
// - ErrUnavailable: service or resource temporarily unavailable
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrNotEligible   = errors.New("not eligible")
	ErrInvalidFormat = errors.New("invalid format")
	ErrUnavailable   = errors.New("unavailable")
)
