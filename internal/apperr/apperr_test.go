package apperr

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"unauthenticated", ErrUnauthenticated, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"not found", ErrNotFound, http.StatusNotFound},
		{"invalid sort key", ErrInvalidSortKey, http.StatusNotFound},
		{"unprocessable", ErrUnprocessable, http.StatusUnprocessableEntity},
		{"conflict", ErrConflict, http.StatusBadRequest},
		{"bad request", ErrBadRequest, http.StatusBadRequest},
		{"wrapped", fmt.Errorf("user 7: %w", ErrNotFound), http.StatusNotFound},
		{"unknown", sql.ErrConnDone, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(ErrForbidden))
	assert.False(t, IsClientError(sql.ErrConnDone))
	assert.False(t, IsClientError(nil))
}
