package queue

import (
	"context"
	"sync"
	"time"
)

// Client sends messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// Publisher turns job requests into queue messages.
type Publisher struct {
	Client Client
	Now    func() time.Time
}

// Enqueue sends a job for materialID.
func (p *Publisher) Enqueue(ctx context.Context, materialID, contentType, requestID string) error {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	return p.Client.Send(ctx, NewMessage(materialID, contentType, requestID, now()))
}

// MemoryClient records sent messages. Used when no queue URL is configured in dev.
type MemoryClient struct {
	mu   sync.Mutex
	sent []Message
}

// Send records msg.
func (m *MemoryClient) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *MemoryClient) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

var _ Client = (*MemoryClient)(nil)
