package processor

import (
	"errors"
	"strings"

	"study-backend/internal/extract"
	"study-backend/internal/llm"
)

var (
	// ErrInvalidRequest matches every *InvalidRequestError.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrPersistence matches every *PersistenceError.
	ErrPersistence = errors.New("persistence failure")
)

// InvalidRequestError reports missing or malformed request fields. No side effects happen
// before it is returned.
type InvalidRequestError struct {
	Missing []string
	Reason  string
}

func (e *InvalidRequestError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "Missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}
	if len(parts) == 0 {
		return "Invalid request"
	}
	return strings.Join(parts, "; ")
}

func (e *InvalidRequestError) Is(target error) bool { return target == ErrInvalidRequest }

// PersistenceError wraps a failed read or write of materials or generated content.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Err == nil {
		return "persistence failed: " + e.Op
	}
	return "persistence failed: " + e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// ErrorKind names the failure class of err for logs and metrics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	case errors.Is(err, extract.ErrExtraction):
		return "extraction"
	case errors.Is(err, llm.ErrProvider):
		return "provider"
	default:
		return "internal"
	}
}
