package materials

import (
	"context"
	"time"
)

// Repo defines persistence operations for study materials.
type Repo interface {
	Create(ctx context.Context, m StudyMaterial) error
	GetByID(ctx context.Context, id string) (StudyMaterial, error)
	UpdateStatus(ctx context.Context, id string, status Status, at time.Time) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]StudyMaterial, error)
	DeleteByUser(ctx context.Context, userID string) ([]string, error)
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
