package materials

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, user_id, title, content, file_type, file_url, needs_extraction, status, created_at, updated_at`

// Create inserts a new study material.
func (r *PGRepo) Create(ctx context.Context, m StudyMaterial) error {
	const query = `
INSERT INTO study_materials (
    id,
    user_id,
    title,
    content,
    file_type,
    file_url,
    needs_extraction,
    status,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	var content sql.NullString
	if m.Content != nil {
		content = sql.NullString{String: *m.Content, Valid: true}
	}
	var fileURL sql.NullString
	if m.FileURL != "" {
		fileURL = sql.NullString{String: m.FileURL, Valid: true}
	}

	_, err := r.DB.ExecContext(ctx, query,
		m.ID,
		m.UserID,
		m.Title,
		content,
		m.FileType,
		fileURL,
		m.NeedsExtraction,
		string(m.Status),
		m.CreatedAt,
		m.UpdatedAt,
	)
	return err
}

// GetByID fetches a study material by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (StudyMaterial, error) {
	query := `SELECT ` + selectColumns + `
FROM study_materials
WHERE id = $1`
	m, err := scanMaterial(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return StudyMaterial{}, ErrNotFound
		}
		return StudyMaterial{}, err
	}
	return m, nil
}

// UpdateStatus moves a material to status.
func (r *PGRepo) UpdateStatus(ctx context.Context, id string, status Status, at time.Time) error {
	const query = `
UPDATE study_materials
SET status = $1, updated_at = $2
WHERE id = $3`
	res, err := r.DB.ExecContext(ctx, query, string(status), at, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser lists materials ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]StudyMaterial, error) {
	limit, offset = clampPage(limit, offset)
	query := `SELECT ` + selectColumns + `
FROM study_materials
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []StudyMaterial{}
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteByUser removes every material a user owns. Generated content goes with it through
// the foreign key cascade.
func (r *PGRepo) DeleteByUser(ctx context.Context, userID string) ([]string, error) {
	const query = `
DELETE FROM study_materials
WHERE user_id = $1
RETURNING id`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMaterial(row rowScanner) (StudyMaterial, error) {
	var (
		m       StudyMaterial
		content sql.NullString
		fileURL sql.NullString
		status  string
	)
	if err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.Title,
		&content,
		&m.FileType,
		&fileURL,
		&m.NeedsExtraction,
		&status,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return StudyMaterial{}, err
	}
	if content.Valid {
		text := content.String
		m.Content = &text
	}
	if fileURL.Valid {
		m.FileURL = fileURL.String
	}
	m.Status = Status(status)
	return m, nil
}

var _ Repo = (*PGRepo)(nil)
