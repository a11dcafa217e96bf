package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBackendNotConfigured signals a missing search backend URL.
	ErrBackendNotConfigured = errors.New("search backend url is not configured")
	// ErrBackendUnavailable signals a network-level failure talking to the backend.
	ErrBackendUnavailable = errors.New("search backend unavailable")
	// ErrBackendStatus signals a non-2xx response from the backend.
	ErrBackendStatus = errors.New("search backend returned an error status")
	// ErrBackendResponse signals a 2xx response whose body is not a search result.
	ErrBackendResponse = errors.New("search backend returned a malformed response")
	// ErrInvalidFilter signals a rejected filter transition (non-positive limit, inverted range).
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrDuplicateSearch signals a resubmission of the query already in flight.
	ErrDuplicateSearch = errors.New("search already in flight")
	// ErrEmptyQuery signals a submission with a blank query.
	ErrEmptyQuery = errors.New("query is empty")
	// ErrUnknownItem signals a selection of an identifier absent from the result set.
	ErrUnknownItem = errors.New("unknown item")
)

// UnknownErrorMessage is surfaced when a failure carries no message of its own.
const UnknownErrorMessage = "unknown error"

// StatusError wraps ErrBackendStatus with the HTTP status of the failed response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	text := strings.TrimSpace(e.Status)
	// net/http reports Status as "502 Bad Gateway"; keep a single code.
	text = strings.TrimPrefix(text, fmt.Sprintf("%d ", e.Code))
	if text == "" {
		return fmt.Sprintf("search failed: %d", e.Code)
	}
	return fmt.Sprintf("search failed: %d %s", e.Code, text)
}

func (e *StatusError) Unwrap() error { return ErrBackendStatus }

// NewStatusError creates a backend status error.
func NewStatusError(code int, status string) error {
	return &StatusError{Code: code, Status: status}
}

// Message returns the single human-readable message shown for a failed search.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Error()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return UnknownErrorMessage
}
