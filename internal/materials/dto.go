package materials

import (
	"encoding/json"
	"time"

	"study-backend/internal/contents"
)

// MaterialResponse is the outward-facing representation of a study material.
type MaterialResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Content         *string   `json:"content"`
	FileType        string    `json:"fileType"`
	FileURL         string    `json:"fileUrl,omitempty"`
	NeedsExtraction bool      `json:"needsExtraction"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ContentResponse is one generated artifact as returned to clients.
type ContentResponse struct {
	ID          string          `json:"id"`
	ContentType contents.Kind   `json:"contentType"`
	Title       string          `json:"title"`
	Content     json.RawMessage `json:"content"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type createRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	FileURL string `json:"fileUrl"`
}

func toResponse(m StudyMaterial) MaterialResponse {
	return MaterialResponse{
		ID:              m.ID,
		Title:           m.Title,
		Content:         m.Content,
		FileType:        m.FileType,
		FileURL:         m.FileURL,
		NeedsExtraction: m.NeedsExtraction,
		Status:          m.Status,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func toContentResponse(c contents.GeneratedContent) ContentResponse {
	return ContentResponse{
		ID:          c.ID,
		ContentType: c.Kind,
		Title:       c.Title,
		Content:     c.Content,
		CreatedAt:   c.CreatedAt,
	}
}
