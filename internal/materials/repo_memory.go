package materials

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]StudyMaterial // id -> material
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]StudyMaterial)}
}

// Create stores a material.
func (r *MemoryRepo) Create(ctx context.Context, m StudyMaterial) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[m.ID] = copyMaterial(m)
	return nil
}

// GetByID returns a material by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (StudyMaterial, error) {
	if err := ctx.Err(); err != nil {
		return StudyMaterial{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.data[id]
	if !ok {
		return StudyMaterial{}, ErrNotFound
	}
	return copyMaterial(m), nil
}

// UpdateStatus sets the status of a material.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, id string, status Status, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	m.Status = status
	m.UpdatedAt = at
	r.data[id] = m
	return nil
}

// ListByUser returns materials for a user, newest first, honoring limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]StudyMaterial, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)

	r.mu.RLock()
	var items []StudyMaterial
	for _, m := range r.data {
		if m.UserID == userID {
			items = append(items, copyMaterial(m))
		}
	}
	r.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if offset >= len(items) {
		return []StudyMaterial{}, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], nil
}

// DeleteByUser removes a user's materials and returns their IDs.
func (r *MemoryRepo) DeleteByUser(ctx context.Context, userID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id, m := range r.data {
		if m.UserID == userID {
			ids = append(ids, id)
			delete(r.data, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func copyMaterial(m StudyMaterial) StudyMaterial {
	if m.Content != nil {
		text := *m.Content
		m.Content = &text
	}
	return m
}

var _ Repo = (*MemoryRepo)(nil)
