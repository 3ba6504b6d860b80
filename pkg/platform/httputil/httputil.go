// Package httputil provides JSON response helpers shared by all handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"gatepass/pkg/platform/sentinel"
)

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError maps a service error to an HTTP status and JSON error body.
// Unrecognized errors become 500 with the description omitted so internal
// detail never leaks to clients.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sentinel.ErrInvalidFormat):
		WriteJSON(w, http.StatusBadRequest, errorResponse{
			Error:       "invalid_format",
			Description: err.Error(),
		})
	case errors.Is(err, sentinel.ErrNotFound):
		WriteJSON(w, http.StatusNotFound, errorResponse{
			Error:       "not_found",
			Description: err.Error(),
		})
	case errors.Is(err, sentinel.ErrNotEligible):
		WriteJSON(w, http.StatusConflict, errorResponse{
			Error:       "not_eligible",
			Description: err.Error(),
		})
	case errors.Is(err, sentinel.ErrConflict):
		WriteJSON(w, http.StatusConflict, errorResponse{
			Error:       "conflict",
			Description: err.Error(),
		})
	case errors.Is(err, sentinel.ErrUnavailable):
		WriteJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error: "unavailable",
		})
	default:
		WriteJSON(w, http.StatusInternalServerError, errorResponse{
			Error: "internal_error",
		})
	}
}
