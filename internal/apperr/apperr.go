// Package apperr defines the business error taxonomy shared by services and
// the HTTP layer. Callers match with errors.Is.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrUnprocessable   = errors.New("unprocessable entity")
	ErrConflict        = errors.New("conflict")
	ErrBadRequest      = errors.New("bad request")

	// ErrInvalidSortKey is raised by stores for a sort key outside their
	// allow-list. It is a routing-level rejection, not a business error.
	ErrInvalidSortKey = errors.New("invalid sort key")
)

// Status maps err to the HTTP status used in the error envelope.
// Unknown errors map to 500.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidSortKey):
		return http.StatusNotFound
	case errors.Is(err, ErrUnprocessable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrConflict), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// IsClientError reports whether err belongs to the taxonomy above.
func IsClientError(err error) bool {
	s := Status(err)
	return s >= 400 && s < 500
}
