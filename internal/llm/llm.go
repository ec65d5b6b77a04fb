package llm

import "context"

// Image detail levels accepted by vision-capable providers.
const (
	ImageDetailAuto = "auto"
	ImageDetailLow  = "low"
	ImageDetailHigh = "high"
)

// Request is one chat completion call. A non-empty ImageURL turns it into a vision call where
// the user text and the image travel in the same user message.
type Request struct {
	System      string
	User        string
	ImageURL    string
	ImageDetail string
	MaxTokens   int
	Temperature float32
}

// IsVision reports whether the request carries an image.
func (r Request) IsVision() bool {
	return r.ImageURL != ""
}

// Completer returns the text of a completion for a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Transport performs a single provider round trip without retrying. Non-success responses
// are returned as *ProviderError.
type Transport interface {
	Send(ctx context.Context, req Request) (string, error)
}
