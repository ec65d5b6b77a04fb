package llm

import (
	"context"
	"time"

	"study-backend/internal/shared/metrics"
	"study-backend/internal/shared/telemetry"
)

// Gateway is the Completer used by the pipeline: a Transport wrapped in the rate-limit retry
// policy. Every error it returns is a *ProviderError.
type Gateway struct {
	Transport Transport
	Policy    RetryPolicy
}

// NewGateway builds a Gateway. Zero policy fields fall back to DefaultRetryPolicy.
func NewGateway(t Transport, policy RetryPolicy) *Gateway {
	def := DefaultRetryPolicy()
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = def.MaxAttempts
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = def.BaseDelay
	}
	if policy.IsRetryable == nil {
		policy.IsRetryable = def.IsRetryable
	}
	return &Gateway{Transport: t, Policy: policy}
}

// Complete sends req through the transport, retrying rate-limited failures.
func (g *Gateway) Complete(ctx context.Context, req Request) (string, error) {
	policy := g.Policy
	calls := 0
	userHook := policy.OnRetry
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		metrics.IncProviderRetry()
		telemetry.Warn("llm.retry", map[string]any{
			"attempt":  attempt,
			"delay_ms": delay.Milliseconds(),
			"vision":   req.IsVision(),
			"err":      err,
		})
		if userHook != nil {
			userHook(attempt, delay, err)
		}
	}

	out, err := WithRetry(ctx, func(ctx context.Context) (string, error) {
		calls++
		return g.Transport.Send(ctx, req)
	}, policy)
	if err != nil {
		pe := asProviderError(err)
		pe.Attempts = calls
		return "", pe
	}
	return out, nil
}

var _ Completer = (*Gateway)(nil)
