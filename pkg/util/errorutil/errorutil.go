package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

var (
	ErrInvalidStatus         = errors.New("invalid status")
	ErrInvalidSeverityFormat = errors.New("invalid severity format")
	ErrAuthorizationDenied   = errors.New("authorization denied")
	ErrRemoteUnavailable     = errors.New("remote unavailable")
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

// NewInvalidStatus rejects a transition to an unrecognized status label.
func NewInvalidStatus(status string) error {
	return &DomainError{
		Code:       "INVALID_STATUS",
		Message:    fmt.Sprintf("unrecognized status %q", status),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"status": status},
		Err:        ErrInvalidStatus,
	}
}

// NewInvalidSeverityFormat reports a severity label that does not encode a window.
func NewInvalidSeverityFormat(label string) error {
	return &DomainError{
		Code:       "INVALID_SEVERITY_FORMAT",
		Message:    fmt.Sprintf("severity %q is not of the form <n><unit>", label),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"severity": label},
		Err:        ErrInvalidSeverityFormat,
	}
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

// NewAuthorizationDenied rejects a staff-only action attempted without the capability.
func NewAuthorizationDenied(message string) error {
	return &DomainError{
		Code:       "AUTHORIZATION_DENIED",
		Message:    message,
		HTTPStatus: http.StatusForbidden,
		Err:        ErrAuthorizationDenied,
	}
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

// NewRemoteUnavailable wraps a failed call to the ticket store or identity provider.
// status is the upstream HTTP status, zero when the request never completed.
func NewRemoteUnavailable(message string, status int, cause error) error {
	details := map[string]any{}
	if status > 0 {
		details["upstream_status"] = status
	}
	err := ErrRemoteUnavailable
	if cause != nil {
		err = fmt.Errorf("%w: %v", ErrRemoteUnavailable, cause)
	}
	return &DomainError{
		Code:       "REMOTE_UNAVAILABLE",
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Details:    details,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}

// NewRemoteRejection rebuilds an error body returned by the ticket store. The store's code and
// status are kept; the wrapped sentinel is the matching local one, or ErrRemoteUnavailable.
func NewRemoteRejection(status int, code, message string) error {
	if code == "" {
		code = "REMOTE_UNAVAILABLE"
	}
	if message == "" {
		message = http.StatusText(status)
	}
	cause := ErrRemoteUnavailable
	switch code {
	case "INVALID_STATUS":
		cause = ErrInvalidStatus
	case "INVALID_SEVERITY_FORMAT":
		cause = ErrInvalidSeverityFormat
	case "AUTHORIZATION_DENIED":
		cause = ErrAuthorizationDenied
	}
	return &DomainError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
		Details:    map[string]any{"upstream_status": status},
		Err:        cause,
	}
}
