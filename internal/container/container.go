package container

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/tripcost-seeder/app/db"
	"github.com/FACorreiaa/tripcost-seeder/config"
	"github.com/FACorreiaa/tripcost-seeder/internal/api/city"
	"github.com/FACorreiaa/tripcost-seeder/internal/api/cost"
	"github.com/FACorreiaa/tripcost-seeder/internal/api/seedrun"
	"github.com/FACorreiaa/tripcost-seeder/internal/api/verify"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *slog.Logger
	Pool          *pgxpool.Pool
	ConnectionURL string
	CityService   *city.ServiceImpl
	CostService   *cost.ServiceImpl
	VerifyService *verify.ServiceImpl
	Tracker       *seedrun.Tracker
	CityHandler   *city.Handler
}

// NewContainer connects to the local database and wires repositories,
// services and handlers on top of the pool.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(ctx, dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	seeder := cfg.Seeder

	cityRepo := city.NewCityRepository(pool, logger)
	cityService := city.NewCityService(cityRepo, city.Options{
		BatchSize:      seeder.BatchSize,
		PageSize:       seeder.PageSize,
		ClearChunkSize: seeder.ClearChunkSize,
	}, logger)
	cityHandler := city.NewCityHandler(cityService, logger)

	costRepo := cost.NewCostRepository(pool, logger)
	costService := cost.NewCostService(costRepo, cost.Options{
		BatchSize: seeder.BatchSize,
		PageSize:  seeder.PageSize,
		Threshold: seeder.FuzzyThreshold,
	}, logger)

	seedRunRepo := seedrun.NewSeedRunRepository(pool, logger)
	tracker := seedrun.NewTracker(seedRunRepo, logger)

	verifyService := verify.NewVerifyService(verify.PoolConnector(logger), seeder.SpotCheckCities, logger)

	return &Container{
		Config:        cfg,
		Logger:        logger,
		Pool:          pool,
		ConnectionURL: dbConfig.ConnectionURL,
		CityService:   cityService,
		CostService:   costService,
		VerifyService: verifyService,
		Tracker:       tracker,
		CityHandler:   cityHandler,
	}, nil
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}

// RunMigrations runs database migrations
func (c *Container) RunMigrations() error {
	return database.RunMigrations(c.ConnectionURL, c.Logger)
}

// VerifyTargets lists the local database and, when configured, the remote
// one. An unconfigured remote gets an empty URL and is reported as skipped.
func (c *Container) VerifyTargets() ([]verify.Target, error) {
	targets := []verify.Target{{Name: verify.TargetLocal, URL: c.ConnectionURL}}
	remote, err := database.NewRemoteDatabaseConfig(c.Config, c.Logger)
	if err != nil {
		return nil, err
	}
	url := ""
	if remote != nil {
		url = remote.ConnectionURL
	}
	return append(targets, verify.Target{Name: verify.TargetRemote, URL: url}), nil
}
