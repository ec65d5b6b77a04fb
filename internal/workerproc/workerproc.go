package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"study-backend/internal/contents"
	"study-backend/internal/materials"
	"study-backend/internal/processor"
	"study-backend/internal/queue"
)

// JobRunner runs a queued job for a stored material.
type JobRunner interface {
	ProcessMaterial(ctx context.Context, materialID string, kind contents.Kind) (processor.Response, error)
}

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrMissingMaterialID indicates a message missing the material id.
type ErrMissingMaterialID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingMaterialID) Error() string { return "missing material id" }

// ErrUnknownContentType indicates a message asking for a kind no strategy produces.
type ErrUnknownContentType struct {
	MaterialID  string
	RequestID   string
	ContentType string
}

func (e ErrUnknownContentType) Error() string { return "unknown content type: " + e.ContentType }

// ErrProcess indicates processing failed after successful parsing.
type ErrProcess struct {
	MaterialID string
	RequestID  string
	Err        error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process material"
	}
	return "process material: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// ParseMessage validates and decodes the queue payload. A missing content type means summary.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	msg.MaterialID = strings.TrimSpace(msg.MaterialID)
	if msg.MaterialID == "" {
		return msg, meta, ErrMissingMaterialID{Meta: meta, RequestID: msg.RequestID}
	}
	if strings.TrimSpace(msg.ContentType) == "" {
		msg.ContentType = string(contents.KindSummary)
	}
	if _, ok := contents.ParseKind(msg.ContentType); !ok {
		return msg, meta, ErrUnknownContentType{MaterialID: msg.MaterialID, RequestID: msg.RequestID, ContentType: msg.ContentType}
	}
	return msg, meta, nil
}

type parsedMessageKey struct{}

// WithParsedMessage stores a decoded message in the context for reuse.
func WithParsedMessage(ctx context.Context, msg queue.Message) context.Context {
	return context.WithValue(ctx, parsedMessageKey{}, msg)
}

func parsedMessageFromContext(ctx context.Context) (queue.Message, bool) {
	if ctx == nil {
		return queue.Message{}, false
	}
	msg, ok := ctx.Value(parsedMessageKey{}).(queue.Message)
	return msg, ok
}

// HandleMessage parses, validates, and processes a message payload.
func HandleMessage(ctx context.Context, runner JobRunner, body string) error {
	if runner == nil {
		return errors.New("processor not configured")
	}

	msg, ok := parsedMessageFromContext(ctx)
	if !ok {
		var err error
		msg, _, err = ParseMessage(body)
		if err != nil {
			return err
		}
	}

	kind, ok := contents.ParseKind(msg.ContentType)
	if !ok {
		return ErrUnknownContentType{MaterialID: msg.MaterialID, RequestID: msg.RequestID, ContentType: msg.ContentType}
	}

	ctxWithRequest := processor.WithRequestID(ctx, msg.RequestID)
	if _, err := runner.ProcessMaterial(ctxWithRequest, msg.MaterialID, kind); err != nil {
		return ErrProcess{MaterialID: msg.MaterialID, RequestID: msg.RequestID, Err: err}
	}
	return nil
}

// Unrecoverable reports whether redelivering the message can never succeed.
func Unrecoverable(err error) bool {
	switch err.(type) {
	case ErrEmptyBody, ErrDecode, ErrMissingMaterialID, ErrUnknownContentType:
		return true
	}
	return errors.Is(err, processor.ErrInvalidRequest) || errors.Is(err, materials.ErrNotFound)
}
