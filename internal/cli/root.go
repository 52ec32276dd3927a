package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mediaapi/internal/bootstrap"
	"mediaapi/internal/config"
	"mediaapi/internal/database"
	"mediaapi/internal/database/migration"
	"mediaapi/internal/logger"
	"mediaapi/internal/service"
)

// app carries what subcommands share. The constructor hooks are replaced in tests.
type app struct {
	cfg *config.AppConfig
	log *zap.Logger

	openDB      func(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*sql.DB, error)
	migrateUp   func(ctx context.Context, db *sql.DB, log *zap.Logger) error
	migrateDown func(ctx context.Context, db *sql.DB, log *zap.Logger) error
	newService  func(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (service.RecordingService, io.Closer, error)
}

func defaultApp() *app {
	return &app{
		openDB:      database.NewPostgres,
		migrateUp:   migration.EnsureMigrated,
		migrateDown: migration.Down,
		newService: func(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (service.RecordingService, io.Closer, error) {
			deps, err := bootstrap.Build(ctx, cfg, log, nil)
			if err != nil {
				return nil, nil, err
			}
			return deps.Service, deps, nil
		},
	}
}

// NewRootCmd builds the mediactl command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultApp())
}

func newRootCmd(a *app) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "mediactl",
		Short: "Administrative tasks for the media recording service",
		Long: `mediactl runs maintenance against the recording catalog and blob store.
It reads the same environment variables as the API server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg == nil {
				cfg := config.Load()
				if err := cfg.Validate(); err != nil {
					return fmt.Errorf("invalid configuration: %w", err)
				}
				a.cfg = cfg
			}
			if logLevel == "" {
				logLevel = a.cfg.LogLevel
			}
			if a.log == nil {
				l, err := logger.New(logLevel, a.cfg.Location())
				if err != nil {
					return err
				}
				a.log = l
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (defaults to LOG_LEVEL)")

	root.AddCommand(newMigrateCmd(a))
	root.AddCommand(newReconcileCmd(a))
	root.AddCommand(newDeleteCmd(a))
	return root
}
