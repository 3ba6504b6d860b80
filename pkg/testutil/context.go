package testutil

import (
	"net/http"
	"time"

	"gatepass/pkg/requestcontext"
)

// WithStaffID adds an authenticated staff ID to the request context.
// This simulates what the staff auth middleware would do.
func WithStaffID(req *http.Request, staffID string) *http.Request {
	return req.WithContext(requestcontext.WithStaffID(req.Context(), staffID))
}

// WithClientMetadata adds client IP and User-Agent to the request context.
// This simulates what the metadata middleware would do.
func WithClientMetadata(req *http.Request, clientIP, userAgent string) *http.Request {
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), clientIP, userAgent))
}

// WithRequestTime pins the request-scoped clock for deterministic
// timestamps.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
