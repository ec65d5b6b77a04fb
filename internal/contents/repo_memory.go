package contents

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores generated content in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu         sync.RWMutex
	byMaterial map[string][]GeneratedContent
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byMaterial: make(map[string][]GeneratedContent)}
}

// Insert stores the record.
func (r *MemoryRepo) Insert(ctx context.Context, c GeneratedContent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Content = append([]byte(nil), c.Content...)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byMaterial[c.MaterialID] = append(r.byMaterial[c.MaterialID], c)
	return nil
}

// ListByMaterial returns content for a material, newest first.
func (r *MemoryRepo) ListByMaterial(ctx context.Context, materialID string, limit int) ([]GeneratedContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	items := make([]GeneratedContent, len(r.byMaterial[materialID]))
	copy(items, r.byMaterial[materialID])
	r.mu.RUnlock()

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if limit = clampLimit(limit); len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// DeleteByMaterial drops records for the given materials, mirroring the ON DELETE CASCADE
// of the Postgres schema.
func (r *MemoryRepo) DeleteByMaterial(ctx context.Context, materialIDs ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range materialIDs {
		delete(r.byMaterial, id)
	}
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
