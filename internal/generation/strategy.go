package generation

import (
	"time"

	"study-backend/internal/contents"
	"study-backend/internal/llm"
)

const generationTemperature = 0.3

// Outcome is the result of parsing a model response. Fallback marks a synthetic payload that
// replaced output which could not be parsed.
type Outcome struct {
	Payload  contents.Payload
	Fallback bool
	Reason   string
}

// Parsed wraps a payload built from the model output.
func Parsed(p contents.Payload) Outcome {
	return Outcome{Payload: p}
}

// Fallback wraps a synthetic payload.
func Fallback(p contents.Payload, reason string) Outcome {
	return Outcome{Payload: p, Fallback: true, Reason: reason}
}

// Strategy builds the prompt for one content kind and turns the response into its payload.
// Parse never fails: malformed output yields a Fallback outcome.
type Strategy interface {
	Kind() contents.Kind
	Title() string
	BuildPrompt(text string) llm.Request
	Parse(raw string, at time.Time) Outcome
}
