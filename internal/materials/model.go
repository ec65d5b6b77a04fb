package materials

import (
	"strings"
	"time"
)

// Status is the processing lifecycle of a study material.
type Status string

const (
	StatusUploaded   Status = "uploaded"
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusFailed     Status = "failed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusUploaded, StatusProcessing, StatusProcessed, StatusFailed:
		return true
	}
	return false
}

// StudyMaterial is a unit of uploaded content owned by a user.
type StudyMaterial struct {
	ID              string
	UserID          string
	Title           string
	Content         *string
	FileType        string
	FileURL         string
	NeedsExtraction bool
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Text returns the stored content or an empty string.
func (m StudyMaterial) Text() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}

// HasText reports whether the material carries non-blank content.
func (m StudyMaterial) HasText() bool {
	return strings.TrimSpace(m.Text()) != ""
}
