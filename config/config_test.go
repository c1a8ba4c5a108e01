package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/tripcost-seeder/internal/types"
)

func TestInitConfig_EnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "travel_test")
	t.Setenv("SUPABASE_URL", "postgresql://u:p@remote:6543/postgres")

	cfg, err := InitConfig()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Repositories.Postgres.Host)
	assert.Equal(t, "travel_test", cfg.Repositories.Postgres.DB)
	assert.True(t, cfg.Repositories.Remote.Configured())
	assert.Equal(t, 1000, cfg.Seeder.BatchSize)
	assert.Equal(t, 500, cfg.Seeder.ClearChunkSize)
	assert.Equal(t, 85, cfg.Seeder.FuzzyThreshold)
	assert.Contains(t, cfg.Seeder.SpotCheckCities, "Kinshasa")
	assert.Equal(t, 60*time.Second, cfg.Server.Timeout)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.Server.AllowedOrigins)
}

func TestSeederConfig_Defaults(t *testing.T) {
	var s SeederConfig
	s.applyDefaults()
	assert.Equal(t, SeederConfig{BatchSize: 1000, PageSize: 1000, ClearChunkSize: 500, FuzzyThreshold: 85}, s)

	s = SeederConfig{BatchSize: 10, FuzzyThreshold: 90}
	s.applyDefaults()
	assert.Equal(t, 10, s.BatchSize)
	assert.Equal(t, 90, s.FuzzyThreshold)
}

func TestPostgresConfig_Validate(t *testing.T) {
	ok := PostgresConfig{Host: "localhost", Username: "travel", DB: "travel"}
	assert.NoError(t, ok.Validate())

	err := PostgresConfig{Host: "localhost"}.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrMissingConfig)
	assert.Contains(t, err.Error(), "username, db")
}

func TestRemoteConfig_Configured(t *testing.T) {
	assert.False(t, RemoteConfig{}.Configured())
	assert.True(t, RemoteConfig{Host: "pooler.example.com"}.Configured())
}
