// Package request provides request ID middleware. Every request gets an
// ID, either propagated from the X-Request-ID header or freshly generated,
// so log lines and attendance log rows can be correlated.
package request

import (
	"net/http"

	"github.com/google/uuid"

	"gatepass/pkg/requestcontext"
)

const headerRequestID = "X-Request-ID"

// Middleware ensures the context carries a request ID and echoes it back
// on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(headerRequestID, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
