package store

import (
	"errors"
	"fmt"
)

// ErrCircuitOpen is returned without contacting the remote while the
// circuit breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker open, service temporarily unavailable")

// SinkError wraps errors with sink context
type SinkError struct {
	Sink       string // Sink type (e.g., "sqlite")
	Collection string // Target collection
	Op         string // Operation that failed (e.g., "insert", "connect")
	Err        error  // Underlying error
}

func (e *SinkError) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("%s sink: %s %q failed: %v", e.Sink, e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("%s sink: %s failed: %v", e.Sink, e.Op, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// ValidationError represents an invalid collection, document or configuration
type ValidationError struct {
	Sink   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s sink: invalid %s: %s", e.Sink, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s sink: validation failed: %s", e.Sink, e.Reason)
}

// HTTPError represents a non-2xx response from a REST sink
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
	}
	return fmt.Sprintf("HTTP %d %s", e.StatusCode, e.Status)
}

// UnsupportedSinkError is returned by Open for an unknown sink type
type UnsupportedSinkError struct {
	Type string
}

func (e *UnsupportedSinkError) Error() string {
	return fmt.Sprintf("unsupported sink type: %q (want memory, sqlite, postgres, file or rest)", e.Type)
}

// validCollection reports whether name can be used as a table or file name.
func validCollection(name string) bool {
	if name == "" || len(name) > 64 {
		return false
	}
	for i, c := range name {
		if i == 0 {
			if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_') {
				return false
			}
		} else {
			if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_') {
				return false
			}
		}
	}
	return true
}

func checkCollection(sink, collection string) error {
	if !validCollection(collection) {
		return &ValidationError{Sink: sink, Field: "collection", Reason: fmt.Sprintf("%q is not a valid identifier", collection)}
	}
	return nil
}
