package processor

import (
	"context"
	"time"
)

// State is a step of a job's lifecycle.
type State string

const (
	StateReceived   State = "received"
	StateValidating State = "validating"
	StateExtracting State = "extracting"
	StateGenerating State = "generating"
	StatePersisting State = "persisting"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Event is one state transition of a job.
type Event struct {
	JobID       string
	MaterialID  string
	ContentType string
	State       State
	At          time.Time
	Err         error
}

// Observer receives job state transitions.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev Event)

// Observe calls f.
func (f ObserverFunc) Observe(ctx context.Context, ev Event) { f(ctx, ev) }

type requestIDKey struct{}

// WithRequestID attaches a request ID used in job logs.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request ID attached by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type callerIDKey struct{}

// WithCallerID attaches the identity of the caller. Jobs carrying a caller only run on
// materials that caller owns.
func WithCallerID(ctx context.Context, userID string) context.Context {
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, callerIDKey{}, userID)
}

// CallerIDFromContext returns the caller attached by WithCallerID.
func CallerIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(callerIDKey{}).(string)
	return id
}
