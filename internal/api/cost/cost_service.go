package cost

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

type Service interface {
	SeedCosts(ctx context.Context, rows []types.CostSource) (*types.SeedSummary, error)
}

// Options tunes a cost seeding run.
type Options struct {
	BatchSize int
	PageSize  int
	Threshold int
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   CostRepository
	opts   Options
}

func NewCostService(repo CostRepository, opts Options, logger *slog.Logger) *ServiceImpl {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1000
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 1000
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		opts:   opts,
	}
}

// SeedCosts matches every cost row to a persisted city, derives the daily
// metrics and upserts them in batches. Rows without a city match or without a
// single usable metric are skipped. When several rows land on one city the
// last one wins.
func (s *ServiceImpl) SeedCosts(ctx context.Context, rows []types.CostSource) (*types.SeedSummary, error) {
	ctx, span := otel.Tracer("CostService").Start(ctx, "SeedCosts", trace.WithAttributes(
		attribute.Int("costs.source_rows", len(rows)),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "SeedCosts"))
	m := metrics.Get()
	kind := metrics.Kind(types.SeedKindCosts)
	summary := &types.SeedSummary{Kind: types.SeedKindCosts}

	keys, err := s.repo.ListCityKeys(ctx, s.opts.PageSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load city map")
		return summary, fmt.Errorf("load city map: %w", err)
	}
	matcher := NewMatcher(keys, s.opts.Threshold)
	l.InfoContext(ctx, "Loaded city map", slog.Int("cities", len(keys)), slog.Int("countries", matcher.Countries()))

	payload := make([]types.CostIndex, 0, len(rows))
	position := make(map[string]int, len(rows))
	empty := 0
	for _, row := range rows {
		cityID, ok := matcher.Resolve(row.City, row.Country)
		if !ok {
			summary.Unmatched++
			l.DebugContext(ctx, "No city match for cost row",
				slog.Int("line", row.Line),
				slog.String("city", row.City),
				slog.String("country", row.Country))
			continue
		}
		summary.Matched++

		idx := DeriveCostIndex(cityID, row)
		if idx.Empty() {
			empty++
			continue
		}
		if i, dup := position[cityID]; dup {
			payload[i] = idx
			continue
		}
		position[cityID] = len(payload)
		payload = append(payload, idx)
	}
	summary.Prepared = len(payload)

	metrics.Add(ctx, m.RowsPreparedTotal, summary.Prepared, kind)
	metrics.Add(ctx, m.UnmatchedRowsTotal, summary.Unmatched, kind)
	metrics.Add(ctx, m.FuzzyMatchesTotal, matcher.FuzzyHits(), kind)
	l.InfoContext(ctx, "Prepared cost payload",
		slog.Int("prepared", summary.Prepared),
		slog.Int("matched", summary.Matched),
		slog.Int("unmatched", summary.Unmatched),
		slog.Int("without_metrics", empty),
		slog.Int("fuzzy", matcher.FuzzyHits()))

	for i, batch := range database.Chunk(payload, s.opts.BatchSize) {
		summary.Upsert.Batches++
		if ctx.Err() != nil {
			summary.Upsert.FailedBatches = append(summary.Upsert.FailedBatches, i)
			continue
		}
		if _, err := s.repo.UpsertCostIndices(ctx, batch); err != nil {
			l.ErrorContext(ctx, "Cost batch failed", slog.Int("batch", i), slog.Int("rows", len(batch)), slog.Any("error", err))
			summary.Upsert.FailedBatches = append(summary.Upsert.FailedBatches, i)
			continue
		}
		summary.Upsert.Written += len(batch)
	}
	metrics.Add(ctx, m.RowsWrittenTotal, summary.Upsert.Written, kind)
	metrics.Add(ctx, m.BatchFailuresTotal, len(summary.Upsert.FailedBatches), kind)

	span.SetAttributes(
		attribute.Int("costs.written", summary.Upsert.Written),
		attribute.Int("costs.unmatched", summary.Unmatched),
	)
	l.InfoContext(ctx, "Cost seeding finished",
		slog.Int("written", summary.Upsert.Written),
		slog.Int("failed_batches", len(summary.Upsert.FailedBatches)))
	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "Cost seeding interrupted")
		return summary, fmt.Errorf("cost seeding interrupted: %w", err)
	}
	span.SetStatus(codes.Ok, "Costs seeded")
	return summary, nil
}
