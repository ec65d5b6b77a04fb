package health

import (
	"context"
	"errors"
	"testing"
)

type fakePinger struct{ err error }

func (f fakePinger) PingContext(ctx context.Context) error { return f.err }

func TestStatus(t *testing.T) {
	tests := []struct {
		name   string
		db     Pinger
		wantOK bool
		wantDB string
	}{
		{name: "memory", db: nil, wantOK: true, wantDB: "memory"},
		{name: "up", db: fakePinger{}, wantOK: true, wantDB: "up"},
		{name: "down", db: fakePinger{err: errors.New("refused")}, wantOK: false, wantDB: "down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewService(tt.db, "local", "gpt-4o-mini").Status(context.Background())
			if r.OK != tt.wantOK || r.Database != tt.wantDB {
				t.Fatalf("unexpected report %+v", r)
			}
			if r.ObjectStore != "local" || r.Model != "gpt-4o-mini" {
				t.Fatalf("expected metadata in report, got %+v", r)
			}
		})
	}
}
