package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"mediaapi/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "filename", "filepath", "filesize", "mimetype", "created_at"}

func TestRecordingPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRecordingPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("with mimetype", func(t *testing.T) {
		mt := "video/webm"
		rec := &model.Recording{
			Filename: "1700000000000-abc.webm",
			Filepath: "recordings/1700000000000-abc.webm",
			Filesize: 10,
			Mimetype: &mt,
		}

		mock.ExpectQuery("INSERT INTO recordings").
			WithArgs(rec.Filename, rec.Filepath, rec.Filesize, "video/webm").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(int64(7), rec.Filename, rec.Filepath, rec.Filesize, "video/webm", now))

		got, err := repo.Create(ctx, rec)

		require.NoError(t, err)
		assert.Equal(t, int64(7), got.ID)
		assert.Equal(t, now, got.CreatedAt)
		require.NotNil(t, got.Mimetype)
		assert.Equal(t, "video/webm", *got.Mimetype)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("null mimetype", func(t *testing.T) {
		rec := &model.Recording{Filename: "f", Filepath: "recordings/f", Filesize: 3}

		mock.ExpectQuery("INSERT INTO recordings").
			WithArgs("f", "recordings/f", int64(3), nil).
			WillReturnRows(sqlmock.NewRows(columns).AddRow(int64(8), "f", "recordings/f", int64(3), nil, now))

		got, err := repo.Create(ctx, rec)

		require.NoError(t, err)
		assert.Nil(t, got.Mimetype)
		assert.Equal(t, model.DefaultMimetype, got.ContentType())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO recordings").
			WillReturnError(errors.New("duplicate key value violates unique constraint"))

		got, err := repo.Create(ctx, &model.Recording{Filename: "f", Filepath: "recordings/f"})

		assert.Error(t, err)
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRecordingPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRecordingPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows(columns).
			AddRow(int64(1), "file.webm", "recordings/file.webm", int64(100), "video/webm", time.Now())

		mock.ExpectQuery("SELECT (.+) FROM recordings WHERE id = ?").
			WithArgs(int64(1)).
			WillReturnRows(rows)

		rec, err := repo.FindByID(ctx, 1)

		assert.NoError(t, err)
		assert.NotNil(t, rec)
		assert.Equal(t, int64(1), rec.ID)
		assert.Equal(t, "recordings/file.webm", rec.Filepath)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM recordings WHERE id = ?").
			WithArgs(int64(9999)).
			WillReturnRows(sqlmock.NewRows(columns))

		rec, err := repo.FindByID(ctx, 9999)

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, rec)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordingPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRecordingPostgres(db)
	ctx := context.Background()
	ts := time.Now()

	t.Run("newest first", func(t *testing.T) {
		rows := sqlmock.NewRows(columns).
			AddRow(int64(2), "b.webm", "recordings/b.webm", int64(20), nil, ts).
			AddRow(int64(1), "a.webm", "recordings/a.webm", int64(10), "video/mp4", ts)

		mock.ExpectQuery(`SELECT (.+) FROM recordings ORDER BY created_at DESC, id DESC`).
			WillReturnRows(rows)

		res, err := repo.List(ctx)

		require.NoError(t, err)
		require.Len(t, res, 2)
		assert.Equal(t, int64(2), res[0].ID)
		assert.Equal(t, int64(1), res[1].ID)
		assert.Nil(t, res[0].Mimetype)
	})

	t.Run("empty", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM recordings ORDER BY`).
			WillReturnRows(sqlmock.NewRows(columns))

		res, err := repo.List(ctx)

		require.NoError(t, err)
		assert.NotNil(t, res)
		assert.Empty(t, res)
	})

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM recordings ORDER BY`).
			WillReturnError(errors.New("connection reset"))

		res, err := repo.List(ctx)

		assert.Error(t, err)
		assert.Nil(t, res)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordingPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRecordingPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM recordings WHERE id = ?").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.Delete(ctx, 5))

	mock.ExpectExec("DELETE FROM recordings WHERE id = ?").
		WithArgs(int64(6)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(ctx, 6), sql.ErrNoRows)

	assert.NoError(t, mock.ExpectationsWereMet())
}
