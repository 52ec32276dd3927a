package postgres

import (
	"context"
	"database/sql"

	"mediaapi/internal/model"
	"mediaapi/internal/repository"
)

// RecordingPostgres is a PostgreSQL implementation of repository.RecordingRepository.
// IDs come from the table's BIGSERIAL sequence, so concurrent inserts never share one.
type RecordingPostgres struct {
	db *sql.DB
}

// NewRecordingPostgres creates a new RecordingPostgres repository.
func NewRecordingPostgres(db *sql.DB) *RecordingPostgres {
	return &RecordingPostgres{db: db}
}

var _ repository.RecordingRepository = (*RecordingPostgres)(nil)

const recordingColumns = `id, filename, filepath, filesize, mimetype, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecording(s rowScanner) (*model.Recording, error) {
	var (
		rec      model.Recording
		mimetype sql.NullString
	)
	if err := s.Scan(
		&rec.ID,
		&rec.Filename,
		&rec.Filepath,
		&rec.Filesize,
		&mimetype,
		&rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	if mimetype.Valid {
		rec.Mimetype = &mimetype.String
	}
	return &rec, nil
}

// Create inserts a catalog row and returns it with the assigned id and created_at.
func (r *RecordingPostgres) Create(ctx context.Context, rec *model.Recording) (*model.Recording, error) {
	const q = `
		INSERT INTO recordings (filename, filepath, filesize, mimetype)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + recordingColumns

	var mimetype sql.NullString
	if rec.Mimetype != nil {
		mimetype = sql.NullString{String: *rec.Mimetype, Valid: true}
	}
	row := r.db.QueryRowContext(ctx, q,
		rec.Filename,
		rec.Filepath,
		rec.Filesize,
		mimetype,
	)
	return scanRecording(row)
}

// FindByID fetches a single recording by its ID.
func (r *RecordingPostgres) FindByID(ctx context.Context, id int64) (*model.Recording, error) {
	const q = `SELECT ` + recordingColumns + ` FROM recordings WHERE id = $1`
	return scanRecording(r.db.QueryRowContext(ctx, q, id))
}

// List returns all recordings newest first. A single statement gives a consistent snapshot.
func (r *RecordingPostgres) List(ctx context.Context) ([]model.Recording, error) {
	const q = `SELECT ` + recordingColumns + ` FROM recordings ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Recording, 0)
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Delete removes a recording row by ID.
func (r *RecordingPostgres) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM recordings WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
