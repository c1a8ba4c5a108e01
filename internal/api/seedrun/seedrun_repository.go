package seedrun

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/tripcost-seeder/app/db"
	"github.com/FACorreiaa/tripcost-seeder/app/observability/metrics"
	"github.com/FACorreiaa/tripcost-seeder/internal/types"
)

var _ Repository = (*PostgresSeedRunRepository)(nil)

type Repository interface {
	Start(ctx context.Context, run types.SeedRun) error
	Finish(ctx context.Context, run types.SeedRun) error
}

type PostgresSeedRunRepository struct {
	logger *slog.Logger
	db     database.Querier
}

func NewSeedRunRepository(db database.Querier, logger *slog.Logger) *PostgresSeedRunRepository {
	return &PostgresSeedRunRepository{
		logger: logger,
		db:     db,
	}
}

func (r *PostgresSeedRunRepository) Start(ctx context.Context, run types.SeedRun) error {
	ctx, span := otel.Tracer("SeedRunRepo").Start(ctx, "Start", trace.WithAttributes(
		attribute.String("seed_run.id", run.ID.String()),
		attribute.String("seed_run.kind", run.Kind),
	))
	defer span.End()

	start := time.Now()
	_, err := r.db.Exec(ctx,
		`INSERT INTO seed_runs (id, kind, started_at) VALUES ($1, $2, $3)`,
		run.ID, run.Kind, run.StartedAt)
	metrics.ObserveQuery(ctx, "seed_run_start", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return fmt.Errorf("failed to record seed run start: %w", err)
	}
	span.SetStatus(codes.Ok, "Seed run started")
	return nil
}

const finishSQL = `
	UPDATE seed_runs
	SET finished_at = $2, prepared = $3, written = $4, failed_batches = $5, unmatched = $6
	WHERE id = $1`

func (r *PostgresSeedRunRepository) Finish(ctx context.Context, run types.SeedRun) error {
	ctx, span := otel.Tracer("SeedRunRepo").Start(ctx, "Finish", trace.WithAttributes(
		attribute.String("seed_run.id", run.ID.String()),
	))
	defer span.End()

	start := time.Now()
	tag, err := r.db.Exec(ctx, finishSQL,
		run.ID, run.FinishedAt, run.Prepared, run.Written, run.FailedBatches, run.Unmatched)
	metrics.ObserveQuery(ctx, "seed_run_finish", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return fmt.Errorf("failed to record seed run finish: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "Seed run not found")
		return fmt.Errorf("seed run %s: %w", run.ID, types.ErrNotFound)
	}
	span.SetStatus(codes.Ok, "Seed run finished")
	return nil
}

// NewRun starts a run record for kind at the current time.
func NewRun(kind string) types.SeedRun {
	return types.SeedRun{
		ID:        uuid.New(),
		Kind:      kind,
		StartedAt: time.Now().UTC(),
	}
}
