package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mediaapi/internal/cache"
	"mediaapi/internal/config"
	"mediaapi/internal/database"
	"mediaapi/internal/database/migration"
	"mediaapi/internal/metrics"
	"mediaapi/internal/repository"
	"mediaapi/internal/repository/cached"
	"mediaapi/internal/repository/postgres"
	"mediaapi/internal/service"
	"mediaapi/internal/storage"
)

// Components are the wired dependencies shared by the API server and mediactl.
type Components struct {
	DB      *sql.DB
	Store   storage.Storage
	Repo    repository.RecordingRepository
	Cache   cache.Cache
	Service service.RecordingService
}

// Build opens the catalog, runs migrations when enabled, selects the blob store and
// assembles the recording service. m may be nil.
func Build(ctx context.Context, cfg *config.AppConfig, log *zap.Logger, m *metrics.Metrics) (*Components, error) {
	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	c := &Components{DB: db}

	if cfg.Database.AutoMigrate {
		if err := migration.EnsureMigrated(ctx, db, log); err != nil {
			c.Close()
			return nil, err
		}
	}

	c.Store, err = storage.New(cfg.Storage, cfg.MinIO)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.Info("storage_ready", zap.String("driver", cfg.Storage.Driver))

	c.Repo = postgres.NewRecordingPostgres(db)
	if cfg.Redis.Addr != "" {
		c.Cache, err = cache.NewRedis(ctx, cfg.Redis, log)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("init cache: %w", err)
		}
		c.Repo = cached.NewRecordingCached(c.Repo, c.Cache, time.Duration(cfg.Redis.TTLSec)*time.Second, log)
	}

	c.Service = service.NewRecordingService(c.Store, c.Repo,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithStrictRanges(cfg.StrictRanges),
	)
	return c, nil
}

// Close releases the cache and database handles.
func (c *Components) Close() error {
	var errs []error
	if c.Cache != nil {
		errs = append(errs, c.Cache.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
