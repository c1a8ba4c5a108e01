package seedrun

import (
	"context"
	"log/slog"
	"time"

	"github.com/FACorreiaa/tripcost-seeder/internal/types"
)

// Tracker wraps a seeding step with a seed_runs audit row. Audit writes are
// best effort: a failure is logged and the step still runs.
type Tracker struct {
	logger *slog.Logger
	repo   Repository
}

func NewTracker(repo Repository, logger *slog.Logger) *Tracker {
	return &Tracker{
		logger: logger,
		repo:   repo,
	}
}

// Track records the start of kind, runs step and records its counters. The
// step's own result and error are returned untouched.
func (t *Tracker) Track(ctx context.Context, kind string, step func(context.Context) (*types.SeedSummary, error)) (*types.SeedSummary, error) {
	l := t.logger.With(slog.String("method", "Track"), slog.String("kind", kind))

	run := NewRun(kind)
	started := true
	if err := t.repo.Start(ctx, run); err != nil {
		l.WarnContext(ctx, "Could not record seed run start", slog.Any("error", err))
		started = false
	}

	summary, stepErr := step(ctx)

	if !started {
		return summary, stepErr
	}
	finished := time.Now().UTC()
	run.FinishedAt = &finished
	if summary != nil {
		run.Prepared = summary.Prepared
		run.Written = summary.Upsert.Written
		run.FailedBatches = len(summary.Upsert.FailedBatches)
		run.Unmatched = summary.Unmatched
	}
	// the run context may already be cancelled; the audit row should still land
	if err := t.repo.Finish(context.WithoutCancel(ctx), run); err != nil {
		l.WarnContext(ctx, "Could not record seed run finish", slog.String("run_id", run.ID.String()), slog.Any("error", err))
	} else {
		l.InfoContext(ctx, "Seed run recorded", slog.String("run_id", run.ID.String()))
	}
	return summary, stepErr
}
