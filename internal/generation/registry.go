package generation

import (
	"context"
	"fmt"
	"time"

	"study-backend/internal/contents"
	"study-backend/internal/llm"
	"study-backend/internal/shared/metrics"
	"study-backend/internal/shared/telemetry"
)

// Registry maps content kinds to strategies.
type Registry struct {
	strategies map[contents.Kind]Strategy
}

// NewRegistry builds a registry holding strategies.
func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{strategies: make(map[contents.Kind]Strategy, len(strategies))}
	for _, s := range strategies {
		r.Register(s)
	}
	return r
}

// Default registers the summary, flashcard and quiz strategies.
func Default() *Registry {
	return NewRegistry(Summary{}, Flashcards{}, Quiz{})
}

// Register adds or replaces the strategy for its kind.
func (r *Registry) Register(s Strategy) {
	r.strategies[s.Kind()] = s
}

// Get returns the strategy for kind.
func (r *Registry) Get(kind contents.Kind) (Strategy, bool) {
	s, ok := r.strategies[kind]
	return s, ok
}

// Result is a generated payload ready to persist.
type Result struct {
	Kind     contents.Kind
	Title    string
	Payload  contents.Payload
	Fallback bool
	Reason   string
}

// Run builds the prompt for text, calls the model and parses the response.
func Run(ctx context.Context, c llm.Completer, s Strategy, text string, at time.Time) (Result, error) {
	raw, err := c.Complete(ctx, s.BuildPrompt(text))
	if err != nil {
		return Result{}, fmt.Errorf("generate %s: %w", s.Kind(), err)
	}

	out := s.Parse(raw, at)
	if out.Fallback {
		metrics.IncParseFallback()
		telemetry.Warn("generation.parse_fallback", map[string]any{
			"content_type": string(s.Kind()),
			"reason":       out.Reason,
			"response_len": len(raw),
		})
	}
	return Result{
		Kind:     s.Kind(),
		Title:    s.Title(),
		Payload:  out.Payload,
		Fallback: out.Fallback,
		Reason:   out.Reason,
	}, nil
}
