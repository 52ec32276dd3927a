package repository

import (
	"context"

	"mediaapi/internal/model"
)

// RecordingRepository is the catalog of ingested recordings, using SQL queries only.
// Persistence only; no business rules.
type RecordingRepository interface {
	// Create inserts a new catalog row. The database assigns ID and CreatedAt;
	// the returned record carries them.
	Create(ctx context.Context, rec *model.Recording) (*model.Recording, error)

	// FindByID returns a recording by its ID, or sql.ErrNoRows.
	FindByID(ctx context.Context, id int64) (*model.Recording, error)

	// List returns every recording, newest CreatedAt first, ties broken by descending ID.
	List(ctx context.Context) ([]model.Recording, error)

	// Delete removes a recording by ID. It returns sql.ErrNoRows if no row matched.
	Delete(ctx context.Context, id int64) error
}
