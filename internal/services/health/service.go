package health

import (
	"context"
	"time"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service encapsulates health-related checks.
type Service struct {
	DB          Pinger
	ObjectStore string
	Model       string
}

// Report is the health payload.
type Report struct {
	OK          bool   `json:"ok"`
	Database    string `json:"database"`
	ObjectStore string `json:"objectStore,omitempty"`
	Model       string `json:"model,omitempty"`
}

// NewService constructs a new health service. A nil db means in-memory repositories.
func NewService(db Pinger, objectStore, model string) *Service {
	return &Service{DB: db, ObjectStore: objectStore, Model: model}
}

// Status checks the database when one is configured.
func (s *Service) Status(ctx context.Context) Report {
	r := Report{OK: true, Database: "memory", ObjectStore: s.ObjectStore, Model: s.Model}
	if s.DB == nil {
		return r
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		r.OK = false
		r.Database = "down"
		return r
	}
	r.Database = "up"
	return r
}
