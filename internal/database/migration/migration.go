package migration

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var migrations embed.FS

// Source returns the embedded migration files as a golang-migrate source.
func Source() (source.Driver, error) {
	return iofs.New(migrations, "sql")
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	src, err := Source()
	if err != nil {
		return nil, fmt.Errorf("iofs source: %w", err)
	}
	driver, err := pgx.WithInstance(db, &pgx.Config{})
	if err != nil {
		return nil, fmt.Errorf("pgx driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return nil, fmt.Errorf("migrate init: %w", err)
	}
	return m, nil
}

// EnsureMigrated applies every pending up migration. An up-to-date schema is not an error.
// The migrator shares db, so it is not closed here.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	return run(ctx, db, log, "up", func(m *migrate.Migrate) error { return m.Up() })
}

// Down rolls back every applied migration.
func Down(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	return run(ctx, db, log, "down", func(m *migrate.Migrate) error { return m.Down() })
}

func run(ctx context.Context, db *sql.DB, log *zap.Logger, direction string, step func(*migrate.Migrate) error) error {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("component", "database"), zap.String("direction", direction))
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return err
	}

	m, err := newMigrator(db)
	if err != nil {
		log.Error("db_migration_failed", zap.Error(err))
		return err
	}

	log.Info("db_migration_start")
	err = step(m)
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.Info("db_migration_skip", zap.Int64("duration_ms", time.Since(start).Milliseconds()))
		return nil
	case err != nil:
		log.Error("db_migration_failed",
			zap.Error(err),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return fmt.Errorf("migrate %s: %w", direction, err)
	}

	version, dirty, verr := m.Version()
	fields := []zap.Field{zap.Int64("duration_ms", time.Since(start).Milliseconds())}
	if verr == nil {
		fields = append(fields, zap.Uint("version", version), zap.Bool("dirty", dirty))
	}
	log.Info("db_migration_success", fields...)
	return nil
}
