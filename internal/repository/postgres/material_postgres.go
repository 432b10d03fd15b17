package postgres

import (
	"context"
	"database/sql"
	"errors"

	"materialapi/internal/model"
	"materialapi/internal/repository"
)

// MaterialPostgres is a PostgreSQL implementation of repository.MaterialRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type MaterialPostgres struct {
	db *sql.DB
}

// NewMaterialPostgres creates a new MaterialPostgres repository.
func NewMaterialPostgres(db *sql.DB) *MaterialPostgres {
	return &MaterialPostgres{db: db}
}

var _ repository.MaterialRepository = (*MaterialPostgres)(nil)

// IsNoRowsError reports whether err signals an absent row.
func IsNoRowsError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

const materialColumns = `id, title, subject, kind, external_url, attachment_path, status, author, created_at`

func scanMaterial(s interface{ Scan(...any) error }) (*model.Material, error) {
	var m model.Material
	if err := s.Scan(
		&m.ID,
		&m.Title,
		&m.Subject,
		&m.Kind,
		&m.ExternalURL,
		&m.AttachmentPath,
		&m.Status,
		&m.Author,
		&m.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a new material row and returns the stored record.
func (r *MaterialPostgres) Create(ctx context.Context, mat *model.Material) (*model.Material, error) {
	const q = `
		INSERT INTO materials (id, title, subject, kind, external_url, attachment_path, status, author, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + materialColumns
	row := r.db.QueryRowContext(ctx, q,
		mat.ID,
		mat.Title,
		mat.Subject,
		mat.Kind,
		mat.ExternalURL,
		mat.AttachmentPath,
		mat.Status,
		mat.Author,
		mat.CreatedAt,
	)
	return scanMaterial(row)
}

// FindByID fetches a single material by its ID.
func (r *MaterialPostgres) FindByID(ctx context.Context, id string) (*model.Material, error) {
	const q = `
		SELECT ` + materialColumns + `
		FROM materials
		WHERE id = $1
	`
	return scanMaterial(r.db.QueryRowContext(ctx, q, id))
}

// FindByStatus returns all materials with the given status, newest first.
// Ties on created_at are broken by id for stable ordering.
func (r *MaterialPostgres) FindByStatus(ctx context.Context, status model.Status) ([]model.Material, error) {
	const q = `
		SELECT ` + materialColumns + `
		FROM materials
		WHERE status = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Material, 0)
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateStatus sets the status on an existing row and returns the updated record.
// sql.ErrNoRows is returned unchanged when the ID does not exist.
func (r *MaterialPostgres) UpdateStatus(ctx context.Context, id string, status model.Status) (*model.Material, error) {
	const q = `
		UPDATE materials
		SET status = $2
		WHERE id = $1
		RETURNING ` + materialColumns
	return scanMaterial(r.db.QueryRowContext(ctx, q, id, status))
}
