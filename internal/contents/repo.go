package contents

import "context"

// Repo persists generated content. Records are append-only.
type Repo interface {
	Insert(ctx context.Context, content GeneratedContent) error
	ListByMaterial(ctx context.Context, materialID string, limit int) ([]GeneratedContent, error)
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
