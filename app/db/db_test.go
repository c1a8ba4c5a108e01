package database

import (
	"io"
	"log/slog"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/tripcost-seeder/config"
	"github.com/FACorreiaa/tripcost-seeder/internal/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewDatabaseConfig(t *testing.T) {
	var cfg config.Config
	cfg.Repositories.Postgres = config.PostgresConfig{
		Host: "localhost", Port: "5432", Username: "travel", Password: "s3cr=t", DB: "travel",
	}

	dbCfg, err := NewDatabaseConfig(&cfg, discardLogger())
	require.NoError(t, err)

	u, err := url.Parse(dbCfg.ConnectionURL)
	require.NoError(t, err)
	assert.Equal(t, "postgresql", u.Scheme)
	assert.Equal(t, "localhost:5432", u.Host)
	assert.Equal(t, "/travel", u.Path)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
	pw, _ := u.User.Password()
	assert.Equal(t, "s3cr=t", pw)
}

func TestNewDatabaseConfig_Missing(t *testing.T) {
	_, err := NewDatabaseConfig(&config.Config{}, discardLogger())
	assert.ErrorIs(t, err, types.ErrMissingConfig)

	_, err = NewDatabaseConfig(nil, discardLogger())
	assert.ErrorIs(t, err, types.ErrMissingConfig)
}

func TestNewRemoteDatabaseConfig(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		dbCfg, err := NewRemoteDatabaseConfig(&config.Config{}, discardLogger())
		require.NoError(t, err)
		assert.Nil(t, dbCfg)
	})

	t.Run("url wins", func(t *testing.T) {
		var cfg config.Config
		cfg.Repositories.Remote = config.RemoteConfig{URL: "postgresql://a:b@remote:5432/db", Host: "ignored"}
		dbCfg, err := NewRemoteDatabaseConfig(&cfg, discardLogger())
		require.NoError(t, err)
		assert.Equal(t, "postgresql://a:b@remote:5432/db", dbCfg.ConnectionURL)
	})

	t.Run("host uses pooler defaults", func(t *testing.T) {
		var cfg config.Config
		cfg.Repositories.Remote = config.RemoteConfig{Host: "pooler.example.com", Username: "postgres.ref", Password: "pw"}
		dbCfg, err := NewRemoteDatabaseConfig(&cfg, discardLogger())
		require.NoError(t, err)

		u, err := url.Parse(dbCfg.ConnectionURL)
		require.NoError(t, err)
		assert.Equal(t, "pooler.example.com:6543", u.Host)
		assert.Equal(t, "/postgres", u.Path)
		assert.Equal(t, "require", u.Query().Get("sslmode"))
	})

	t.Run("host without user", func(t *testing.T) {
		var cfg config.Config
		cfg.Repositories.Remote = config.RemoteConfig{Host: "pooler.example.com"}
		_, err := NewRemoteDatabaseConfig(&cfg, discardLogger())
		assert.ErrorIs(t, err, types.ErrMissingConfig)
	})
}

func TestRunMigrations_RejectsBadScheme(t *testing.T) {
	err := RunMigrations("mysql://localhost/db", discardLogger())
	assert.Error(t, err)
}
