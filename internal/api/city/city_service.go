package city

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/tripcost-seeder/app/db"
	"github.com/FACorreiaa/tripcost-seeder/app/observability/metrics"
	"github.com/FACorreiaa/tripcost-seeder/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

const (
	minSearchLength = 2
	searchLimit     = 20
)

type Service interface {
	SeedCities(ctx context.Context, cities []types.CitySource, airports []types.AirportSource) (*types.SeedSummary, error)
	SearchCities(ctx context.Context, query string) ([]types.CityDetail, error)
}

// Options sizes the batched reads and writes of a seeding run.
type Options struct {
	BatchSize      int
	PageSize       int
	ClearChunkSize int
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 1000
	}
	if o.PageSize <= 0 {
		o.PageSize = 1000
	}
	if o.ClearChunkSize <= 0 {
		o.ClearChunkSize = 500
	}
	return o
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   CityRepository
	opts   Options
}

func NewCityService(repo CityRepository, opts Options, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		opts:   opts.withDefaults(),
	}
}

// SeedCities assigns IATA codes, clears codes that moved to another city and
// upserts the payload in batches. Batch failures are logged and skipped; only
// a failure to read the persisted assignments aborts the run.
func (s *ServiceImpl) SeedCities(ctx context.Context, cities []types.CitySource, airports []types.AirportSource) (*types.SeedSummary, error) {
	ctx, span := otel.Tracer("CityService").Start(ctx, "SeedCities", trace.WithAttributes(
		attribute.Int("cities.source_rows", len(cities)),
		attribute.Int("airports.source_rows", len(airports)),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "SeedCities"))
	m := metrics.Get()
	kind := metrics.Kind(types.SeedKindCities)

	matcher := NewIATAMatcher(airports)
	payload, matched := matcher.Assign(cities)
	l.InfoContext(ctx, "Prepared city payload",
		slog.Int("cities", len(payload)),
		slog.Int("iata_matched", matched),
		slog.Int("airport_keys", matcher.Size()))
	metrics.Add(ctx, m.RowsPreparedTotal, len(payload), kind)
	metrics.Add(ctx, m.IATAMatchesTotal, matched, kind)

	summary := &types.SeedSummary{
		Kind:     types.SeedKindCities,
		Prepared: len(payload),
		Matched:  matched,
	}
	if len(payload) == 0 {
		l.WarnContext(ctx, "No cities to seed")
		span.SetStatus(codes.Ok, "Nothing to seed")
		return summary, nil
	}

	existing, err := s.repo.IATAAssignments(ctx, s.opts.PageSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to fetch existing assignments")
		return summary, fmt.Errorf("fetch existing iata assignments: %w", err)
	}

	toClear := ResolveConflicts(payload, existing)
	if len(toClear) > 0 {
		l.InfoContext(ctx, "Clearing conflicting IATA codes", slog.Int("cities", len(toClear)))
	}
	for i, chunk := range database.Chunk(toClear, s.opts.ClearChunkSize) {
		n, err := s.repo.ClearIATACodes(ctx, chunk)
		if err != nil {
			// the upsert of the new owner may then hit the unique constraint;
			// that batch fails on its own and is reported below
			l.ErrorContext(ctx, "Failed to clear IATA chunk", slog.Int("chunk", i), slog.Any("error", err))
			metrics.Add(ctx, m.BatchFailuresTotal, 1, kind)
			continue
		}
		summary.Cleared += int(n)
	}
	metrics.Add(ctx, m.IATAClearedTotal, summary.Cleared, kind)

	summary.Upsert = s.upsert(ctx, l, payload)
	metrics.Add(ctx, m.RowsWrittenTotal, summary.Upsert.Written, kind)
	metrics.Add(ctx, m.BatchFailuresTotal, len(summary.Upsert.FailedBatches), kind)

	span.SetAttributes(
		attribute.Int("cities.written", summary.Upsert.Written),
		attribute.Int("cities.failed_batches", len(summary.Upsert.FailedBatches)),
	)
	l.InfoContext(ctx, "City seeding finished",
		slog.Int("written", summary.Upsert.Written),
		slog.Int("batches", summary.Upsert.Batches),
		slog.Int("failed_batches", len(summary.Upsert.FailedBatches)),
		slog.Int("iata_cleared", summary.Cleared))
	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "City seeding interrupted")
		return summary, fmt.Errorf("city seeding interrupted: %w", err)
	}
	span.SetStatus(codes.Ok, "Cities seeded")
	return summary, nil
}

func (s *ServiceImpl) upsert(ctx context.Context, l *slog.Logger, payload []types.CityDetail) types.UpsertResult {
	var res types.UpsertResult
	for i, batch := range database.Chunk(payload, s.opts.BatchSize) {
		res.Batches++
		if ctx.Err() != nil {
			res.FailedBatches = append(res.FailedBatches, i)
			continue
		}
		if _, err := s.repo.UpsertCities(ctx, batch); err != nil {
			l.ErrorContext(ctx, "City batch failed", slog.Int("batch", i), slog.Int("rows", len(batch)), slog.Any("error", err))
			res.FailedBatches = append(res.FailedBatches, i)
			continue
		}
		res.Written += len(batch)
		l.DebugContext(ctx, "City batch written", slog.Int("batch", i), slog.Int("rows", len(batch)))
	}
	return res
}

// SearchCities backs the autocomplete endpoint. Queries shorter than two
// characters return an empty list without touching the database.
func (s *ServiceImpl) SearchCities(ctx context.Context, query string) ([]types.CityDetail, error) {
	ctx, span := otel.Tracer("CityService").Start(ctx, "SearchCities")
	defer span.End()

	if len([]rune(query)) < minSearchLength {
		return []types.CityDetail{}, nil
	}
	cities, err := s.repo.SearchCities(ctx, query, searchLimit)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to search cities", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Search failed")
		return nil, err
	}
	return cities, nil
}
