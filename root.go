package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	appLogger "github.com/FACorreiaa/tripcost-seeder/app/logger"
	"github.com/FACorreiaa/tripcost-seeder/app/observability/metrics"
	"github.com/FACorreiaa/tripcost-seeder/app/tracer"
	"github.com/FACorreiaa/tripcost-seeder/config"
	"github.com/FACorreiaa/tripcost-seeder/internal/container"
	"github.com/FACorreiaa/tripcost-seeder/internal/types"
)

const serviceName = "tripcost-seeder"

// app is what every subcommand shares once the root pre-run has finished.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	providers *tracer.Providers
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Seed cities and cost-of-living data into Postgres",
		Long:          "Without a subcommand the full pipeline runs: migrate, seed cities, seed costs.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return a.providers.Shutdown(ctx)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPipeline(cmd.Context())
		},
	}

	cmd.AddCommand(newSeedCmd(a))
	cmd.AddCommand(newVerifyCmd(a))
	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newMigrateCmd(a))
	return cmd
}

func (a *app) init() error {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		return withCode(exitConfig, fmt.Errorf("initializing config: %w", err))
	}
	a.cfg = &cfg

	a.logger = appLogger.SetupLogger(appLogger.Options{
		Mode:       cfg.Mode,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	slog.SetDefault(a.logger)

	a.providers, err = tracer.InitTracingAndMetrics(serviceName)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	metrics.InitAppMetrics()
	return nil
}

// newContainer wires the application without touching the database yet.
func (a *app) newContainer(ctx context.Context) (*container.Container, error) {
	c, err := container.NewContainer(ctx, a.cfg, a.logger)
	if err != nil {
		if errors.Is(err, types.ErrMissingConfig) {
			return nil, withCode(exitConfig, err)
		}
		return nil, withCode(exitDB, err)
	}
	return c, nil
}

// connect builds the container and waits for the local database.
func (a *app) connect(ctx context.Context) (*container.Container, error) {
	c, err := a.newContainer(ctx)
	if err != nil {
		return nil, err
	}
	if !c.WaitForDB(ctx) {
		c.Close()
		return nil, withCode(exitDB, errors.New("database not ready after waiting"))
	}
	return c, nil
}

func (a *app) runPipeline(ctx context.Context) error {
	c, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.RunMigrations(); err != nil {
		return withCode(exitDB, err)
	}
	if err := a.seedCities(ctx, c); err != nil {
		return err
	}
	return a.seedCosts(ctx, c)
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}
