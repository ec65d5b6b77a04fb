package contents

import (
	"context"
	"database/sql"
	"encoding/json"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Insert stores a generated content record.
func (r *PGRepo) Insert(ctx context.Context, c GeneratedContent) error {
	const query = `
INSERT INTO ai_content (
    id, study_material_id, content_type, title, content, created_at
) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.DB.ExecContext(ctx, query,
		c.ID,
		c.MaterialID,
		string(c.Kind),
		c.Title,
		string(c.Content),
		c.CreatedAt,
	)
	return err
}

// ListByMaterial lists content for a material ordered newest-first.
func (r *PGRepo) ListByMaterial(ctx context.Context, materialID string, limit int) ([]GeneratedContent, error) {
	const query = `
SELECT id, study_material_id, content_type, title, content, created_at
FROM ai_content
WHERE study_material_id = $1
ORDER BY created_at DESC
LIMIT $2`

	rows, err := r.DB.QueryContext(ctx, query, materialID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []GeneratedContent{}
	for rows.Next() {
		var (
			c    GeneratedContent
			kind string
			raw  []byte
		)
		if err := rows.Scan(&c.ID, &c.MaterialID, &kind, &c.Title, &raw, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Kind = Kind(kind)
		c.Content = json.RawMessage(raw)
		out = append(out, c)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
