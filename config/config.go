package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/FACorreiaa/tripcost-seeder/internal/types"
)

//go:embed config.yml
var embeddedConfig []byte

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Password string `mapstructure:"password"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	DB       string `mapstructure:"db"`
	SSLMODE  string `mapstructure:"SSLMODE"`
}

// RemoteConfig points at the hosted copy of the database. URL wins over Host.
type RemoteConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMODE  string `mapstructure:"SSLMODE"`
}

// Configured reports whether any remote target was supplied.
func (r RemoteConfig) Configured() bool {
	return r.URL != "" || r.Host != ""
}

type SeederConfig struct {
	CitiesPath      string   `mapstructure:"citiesPath"`
	AirportsPath    string   `mapstructure:"airportsPath"`
	CostsPath       string   `mapstructure:"costsPath"`
	BatchSize       int      `mapstructure:"batchSize"`
	PageSize        int      `mapstructure:"pageSize"`
	ClearChunkSize  int      `mapstructure:"clearChunkSize"`
	FuzzyThreshold  int      `mapstructure:"fuzzyThreshold"`
	SpotCheckCities []string `mapstructure:"spotCheckCities"`
}

type ServerConfig struct {
	HTTPPort       string        `mapstructure:"HTTPPort"`
	Timeout        time.Duration `mapstructure:"HTTPTimeout"`
	AllowedOrigins []string      `mapstructure:"allowedOrigins"`
}

type Config struct {
	Mode         string `mapstructure:"mode"`
	Repositories struct {
		Postgres PostgresConfig `mapstructure:"postgres"`
		Remote   RemoteConfig   `mapstructure:"remote"`
	} `mapstructure:"repositories"`
	Server  ServerConfig `mapstructure:"server"`
	Logging struct {
		File       string `mapstructure:"file"`
		MaxSizeMB  int    `mapstructure:"maxSizeMB"`
		MaxBackups int    `mapstructure:"maxBackups"`
	} `mapstructure:"logging"`
	Seeder SeederConfig `mapstructure:"seeder"`
}

// envBindings maps config keys to the environment variables the deployment
// already uses.
var envBindings = map[string][]string{
	"mode":                           {"APP_ENV"},
	"repositories.postgres.host":     {"DB_HOST"},
	"repositories.postgres.port":     {"DB_PORT"},
	"repositories.postgres.username": {"DB_USER"},
	"repositories.postgres.password": {"DB_PASSWORD"},
	"repositories.postgres.db":       {"DB_NAME"},
	"repositories.remote.url":        {"SUPABASE_URL"},
	"repositories.remote.host":       {"SUPABASE_HOST"},
	"repositories.remote.username":   {"SUPABASE_USER"},
	"repositories.remote.password":   {"SUPABASE_PASSWORD"},
	"logging.file":                   {"LOG_FILE"},
	"seeder.citiesPath":              {"SEED_CITIES_CSV"},
	"seeder.airportsPath":            {"SEED_AIRPORTS_CSV"},
	"seeder.costsPath":               {"SEED_COSTS_CSV"},
	"server.HTTPPort":                {"HTTP_PORT"},
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	// Add file-based config paths
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	for key, envs := range envBindings {
		if err = v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return Config{}, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	config.Seeder.applyDefaults()
	return config, nil
}

func (s *SeederConfig) applyDefaults() {
	if s.BatchSize <= 0 {
		s.BatchSize = 1000
	}
	if s.PageSize <= 0 {
		s.PageSize = 1000
	}
	if s.ClearChunkSize <= 0 {
		s.ClearChunkSize = 500
	}
	if s.FuzzyThreshold <= 0 {
		s.FuzzyThreshold = 85
	}
}

// Validate reports the first required database setting that is empty.
func (p PostgresConfig) Validate() error {
	missing := make([]string, 0, 4)
	if strings.TrimSpace(p.Host) == "" {
		missing = append(missing, "host")
	}
	if strings.TrimSpace(p.Username) == "" {
		missing = append(missing, "username")
	}
	if strings.TrimSpace(p.DB) == "" {
		missing = append(missing, "db")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: postgres %s", types.ErrMissingConfig, strings.Join(missing, ", "))
	}
	return nil
}
