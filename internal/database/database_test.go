package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"mediaapi/internal/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestBuildPostgresDSN(t *testing.T) {
	base := config.DatabaseConfig{Host: "db", Port: "5432", User: "media", Name: "recordings"}
	with := func(mut func(*config.DatabaseConfig)) config.DatabaseConfig {
		c := base
		mut(&c)
		return c
	}

	tests := []struct {
		name    string
		config  config.DatabaseConfig
		want    string
		wantErr bool
	}{
		{name: "minimal", config: base, want: "postgres://media@db:5432/recordings"},
		{
			name:   "password and sslmode",
			config: with(func(c *config.DatabaseConfig) { c.Password = "s3cret"; c.SSLMode = "disable" }),
			want:   "postgres://media:s3cret@db:5432/recordings?sslmode=disable",
		},
		{
			name:   "password is escaped",
			config: with(func(c *config.DatabaseConfig) { c.Password = "p@ss/word" }),
			want:   "postgres://media:p%40ss%2Fword@db:5432/recordings",
		},
		{
			name:   "application name",
			config: with(func(c *config.DatabaseConfig) { c.SSLMode = "require"; c.AppName = "mediaapi" }),
			want:   "postgres://media@db:5432/recordings?application_name=mediaapi&sslmode=require",
		},
		{name: "missing host", config: with(func(c *config.DatabaseConfig) { c.Host = "" }), wantErr: true},
		{name: "missing port", config: with(func(c *config.DatabaseConfig) { c.Port = "" }), wantErr: true},
		{name: "missing user", config: with(func(c *config.DatabaseConfig) { c.User = "" }), wantErr: true},
		{name: "missing name", config: with(func(c *config.DatabaseConfig) { c.Name = "" }), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildPostgresDSN(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewPostgres(t *testing.T) {
	conf := config.DatabaseConfig{
		Host:               "localhost",
		Port:               "5432",
		User:               "user",
		Password:           "pass",
		Name:               "recordings",
		AppName:            "mediaapi",
		MaxOpenConns:       10,
		MaxIdleConns:       5,
		ConnMaxLifetimeSec: 300,
	}

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		origSqlOpen := sqlOpen
		var gotDSN string
		sqlOpen = func(driverName, dataSourceName string) (*sql.DB, error) {
			gotDSN = dataSourceName
			return db, nil
		}
		defer func() { sqlOpen = origSqlOpen }()

		mock.ExpectPing()

		gotDB, err := NewPostgres(context.Background(), conf, nil)
		assert.NoError(t, err)
		assert.NotNil(t, gotDB)
		assert.Contains(t, gotDSN, "application_name=mediaapi")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("sqlOpen error", func(t *testing.T) {
		origSqlOpen := sqlOpen
		sqlOpen = func(driverName, dataSourceName string) (*sql.DB, error) {
			return nil, errors.New("open error")
		}
		defer func() { sqlOpen = origSqlOpen }()

		gotDB, err := NewPostgres(context.Background(), conf, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "sql open: open error")
		assert.Nil(t, gotDB)
	})

	t.Run("ping error", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		// NewPostgres closes the handle when the ping fails.

		origSqlOpen := sqlOpen
		sqlOpen = func(driverName, dataSourceName string) (*sql.DB, error) {
			return db, nil
		}
		defer func() { sqlOpen = origSqlOpen }()

		mock.ExpectPing().WillReturnError(errors.New("ping failed"))

		gotDB, err := NewPostgres(context.Background(), conf, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "db ping: ping failed")
		assert.Nil(t, gotDB)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid DSN", func(t *testing.T) {
		invalidConf := config.DatabaseConfig{} // missing host etc
		gotDB, err := NewPostgres(context.Background(), invalidConf, nil)
		assert.Error(t, err)
		assert.Nil(t, gotDB)
	})
}

func TestNewPostgres_LogsConnection(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	origSqlOpen := sqlOpen
	sqlOpen = func(string, string) (*sql.DB, error) { return db, nil }
	defer func() { sqlOpen = origSqlOpen }()
	mock.ExpectPing()

	core, logs := observer.New(zapcore.InfoLevel)
	conf := config.DatabaseConfig{Host: "db", Port: "5432", User: "media", Name: "recordings", MaxOpenConns: 4}

	_, err = NewPostgres(context.Background(), conf, zap.New(core))
	require.NoError(t, err)

	entries := logs.FilterMessage("db_connected").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "recordings", fields["database"])
	assert.Equal(t, int64(4), fields["max_open_conns"])
	assert.NotContains(t, fields, "password")
}

func TestNewPostgres_CancelledContext(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	origSqlOpen := sqlOpen
	sqlOpen = func(string, string) (*sql.DB, error) { return db, nil }
	defer func() { sqlOpen = origSqlOpen }()
	mock.ExpectPing().WillDelayFor(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := NewPostgres(ctx, config.DatabaseConfig{Host: "db", Port: "5432", User: "media", Name: "recordings"}, nil)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, context.Canceled)
}
