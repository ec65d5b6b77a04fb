package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrProvider matches every *ProviderError via errors.Is.
var ErrProvider = errors.New("provider error")

// ProviderError is a terminal failure reported by the AI provider, or a transport failure
// that never produced a response (StatusCode 0).
type ProviderError struct {
	StatusCode int
	Message    string
	Type       string
	Attempts   int
	Err        error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	var b strings.Builder
	b.WriteString("AI provider error")
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	}
	if e.Attempts > 1 {
		fmt.Fprintf(&b, " after %d attempts", e.Attempts)
	}
	return b.String()
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

// HTTPStatusCode returns the provider's HTTP status, or 0 when no response was received.
func (e *ProviderError) HTTPStatusCode() int { return e.StatusCode }

// RateLimited reports whether the provider throttled the request.
func (e *ProviderError) RateLimited() bool {
	if e == nil {
		return false
	}
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests")
}

// IsRateLimited reports whether err wraps a rate-limited *ProviderError.
func IsRateLimited(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.RateLimited()
	}
	return false
}

func asProviderError(err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	return &ProviderError{Err: err}
}
