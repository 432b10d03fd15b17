package repository

import (
	"context"

	"materialapi/internal/model"
)

// MaterialRepository defines data access for materials using SQL queries only.
// No business logic here — strictly persistence operations.
type MaterialRepository interface {
	// Create inserts a new material record.
	// The caller provides required fields (ID, Status, CreatedAt) according to
	// the database schema defaults. Returns the stored material (may include
	// values set by the DB).
	Create(ctx context.Context, mat *model.Material) (*model.Material, error)

	// FindByID returns a material by its ID.
	FindByID(ctx context.Context, id string) (*model.Material, error)

	// FindByStatus returns every material with the given status, newest first.
	// The result is a snapshot at call time, not a live subscription.
	FindByStatus(ctx context.Context, status model.Status) ([]model.Material, error)

	// UpdateStatus sets the status of the material with the given ID and
	// returns the updated record. Returns sql.ErrNoRows if the ID is unknown.
	UpdateStatus(ctx context.Context, id string, status model.Status) (*model.Material, error)
}
