package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNoCredentials is returned when an operation needs a stored token pair and none exists.
	ErrNoCredentials = errors.New("no stored credentials")
	// ErrNoExercises indicates a course has no exercises to practice.
	ErrNoExercises = errors.New("course has no exercises")
)

// NetworkError wraps a transport failure where no HTTP response was received.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError carries a non-2xx server response. Code is the machine-readable
// error code when the backend provides one; Message is the human text.
type HTTPError struct {
	Status  int
	Code    string
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.Status)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// RefreshError means the token refresh itself failed. It is terminal: the
// client clears stored credentials and the user must log in again.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("token refresh failed: %v", e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }

// ValidationError rejects input at the form boundary, before any network
// call, with one message per offending field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		names = append(names, field)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, field := range names {
		parts = append(parts, field+": "+e.Fields[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
