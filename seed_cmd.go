package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/tripcost-seeder/internal/container"
	"github.com/FACorreiaa/tripcost-seeder/internal/dataset"
	"github.com/FACorreiaa/tripcost-seeder/internal/types"
)

func newSeedCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed one dataset",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "cities",
		Short: "Upsert cities with their IATA city codes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withContainer(cmd.Context(), a.seedCities)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "costs",
		Short: "Match cost-of-living rows to cities and upsert daily costs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withContainer(cmd.Context(), a.seedCosts)
		},
	})
	return cmd
}

func (a *app) withContainer(ctx context.Context, fn func(context.Context, *container.Container) error) error {
	c, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(ctx, c)
}

func (a *app) seedCities(ctx context.Context, c *container.Container) error {
	l := a.logger.With(slog.String("step", types.SeedKindCities))

	cities, err := dataset.LoadCities(a.cfg.Seeder.CitiesPath)
	if err != nil {
		return withCode(exitValidation, fmt.Errorf("load cities: %w", err))
	}
	airports, err := loadAirports(l, a.cfg.Seeder.AirportsPath)
	if err != nil {
		return err
	}
	l.InfoContext(ctx, "Loaded city sources", slog.Int("cities", len(cities)), slog.Int("airports", len(airports)))

	summary, err := c.Tracker.Track(ctx, types.SeedKindCities, func(ctx context.Context) (*types.SeedSummary, error) {
		return c.CityService.SeedCities(ctx, cities, airports)
	})
	if err != nil {
		return withCode(exitDB, err)
	}
	logSummary(ctx, l, summary)
	return nil
}

// loadAirports treats a missing airports file as "no codes known" rather than
// a failed run.
func loadAirports(l *slog.Logger, path string) ([]types.AirportSource, error) {
	airports, err := dataset.LoadAirports(path)
	if errors.Is(err, fs.ErrNotExist) {
		l.Warn("Airports file not found, cities will be seeded without IATA codes", slog.String("path", path))
		return nil, nil
	}
	if err != nil {
		return nil, withCode(exitValidation, fmt.Errorf("load airports: %w", err))
	}
	return airports, nil
}

func (a *app) seedCosts(ctx context.Context, c *container.Container) error {
	l := a.logger.With(slog.String("step", types.SeedKindCosts))

	rows, err := dataset.LoadCosts(a.cfg.Seeder.CostsPath)
	if err != nil {
		return withCode(exitValidation, fmt.Errorf("load costs: %w", err))
	}
	l.InfoContext(ctx, "Loaded cost sources", slog.Int("rows", len(rows)))

	summary, err := c.Tracker.Track(ctx, types.SeedKindCosts, func(ctx context.Context) (*types.SeedSummary, error) {
		return c.CostService.SeedCosts(ctx, rows)
	})
	if err != nil {
		return withCode(exitDB, err)
	}
	logSummary(ctx, l, summary)
	return nil
}

func logSummary(ctx context.Context, l *slog.Logger, s *types.SeedSummary) {
	attrs := []any{
		slog.Int("prepared", s.Prepared),
		slog.Int("written", s.Upsert.Written),
		slog.Int("batches", s.Upsert.Batches),
		slog.Any("failed_batches", s.Upsert.FailedBatches),
	}
	switch s.Kind {
	case types.SeedKindCities:
		attrs = append(attrs, slog.Int("iata_matched", s.Matched), slog.Int("iata_cleared", s.Cleared))
	case types.SeedKindCosts:
		attrs = append(attrs, slog.Int("matched", s.Matched), slog.Int("unmatched", s.Unmatched))
	}
	if len(s.Upsert.FailedBatches) > 0 {
		l.WarnContext(ctx, "Seeding finished with failed batches", attrs...)
		return
	}
	l.InfoContext(ctx, "Seeding finished", attrs...)
}
