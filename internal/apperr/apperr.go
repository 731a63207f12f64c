// Package apperr defines the request-terminal error kinds shared by the
// services and their mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"net/http"
)

// Error kinds. Services wrap these with context via fmt.Errorf("...: %w", ErrX).
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
)

// Status returns the HTTP status code for err. Unknown errors map to 500.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// IsClient reports whether err is one of the known client-facing kinds,
// whose message is safe to show to the caller.
func IsClient(err error) bool {
	return Status(err) < http.StatusInternalServerError
}
