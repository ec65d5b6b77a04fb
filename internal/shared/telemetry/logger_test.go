package telemetry

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWriteUsesFieldsAndLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(zap.NewNop()) })

	Warn("job.state", map[string]any{"materialId": "m1", "state": "extracting"})
	Error("job.failed", map[string]any{"err": errors.New("boom"), "apiKey": "sk-123"})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel || entries[0].Message != "job.state" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	ctx := entries[0].ContextMap()
	if ctx["materialId"] != "m1" || ctx["state"] != "extracting" {
		t.Fatalf("unexpected fields: %#v", ctx)
	}
	second := entries[1].ContextMap()
	if second["err"] != "boom" {
		t.Fatalf("expected err field boom, got %#v", second["err"])
	}
	if second["apiKey"] != "[REDACTED]" {
		t.Fatalf("expected apiKey redacted, got %#v", second["apiKey"])
	}
}
