package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelsReachable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		code     string
		status   int
	}{
		{"invalid status", NewInvalidStatus("Done"), ErrInvalidStatus, "INVALID_STATUS", http.StatusBadRequest},
		{"severity", NewInvalidSeverityFormat("soon"), ErrInvalidSeverityFormat, "INVALID_SEVERITY_FORMAT", http.StatusBadRequest},
		{"denied", NewAuthorizationDenied("staff only"), ErrAuthorizationDenied, "AUTHORIZATION_DENIED", http.StatusForbidden},
		{"remote", NewRemoteUnavailable("store down", 503, errors.New("eof")), ErrRemoteUnavailable, "REMOTE_UNAVAILABLE", http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			de := ToDomainError(wrapped)
			assert.Equal(t, tt.code, de.Code)
			assert.Equal(t, tt.status, de.HTTPStatus)
		})
	}
}

func TestToDomainError(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))

	de := ToDomainError(pgx.ErrNoRows)
	assert.Equal(t, "NOT_FOUND", de.Code)

	de = ToDomainError(errors.New("boom"))
	assert.Equal(t, "INTERNAL_ERROR", de.Code)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
}

func TestNewRemoteRejection(t *testing.T) {
	err := NewRemoteRejection(http.StatusBadRequest, "INVALID_STATUS", "unrecognized status")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	err = NewRemoteRejection(http.StatusNotFound, "NOT_FOUND", "ticket not found")
	assert.ErrorIs(t, err, ErrRemoteUnavailable)
	de := ToDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, "NOT_FOUND", de.Code)
	assert.Equal(t, http.StatusNotFound, de.HTTPStatus)

	de = ToDomainError(NewRemoteRejection(http.StatusBadGateway, "", ""))
	assert.Equal(t, "REMOTE_UNAVAILABLE", de.Code)
	assert.Equal(t, "Bad Gateway", de.Message)
}
