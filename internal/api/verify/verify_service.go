package verify

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	database "github.com/FACorreiaa/tripcost-seeder/app/db"
	"github.com/FACorreiaa/tripcost-seeder/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

const (
	TargetLocal  = "local"
	TargetRemote = "remote"
)

// DefaultSpotChecks are looked up when no list is configured.
var DefaultSpotChecks = []string{"Seoul", "Paris", "New York", "Kinshasa", "Yangon", "Rangoon"}

// Target is one database to report on. A target without URL is not configured
// and shows up as skipped.
type Target struct {
	Name string
	URL  string
}

// Connector opens a read-only repository for url. The returned func releases
// the connection.
type Connector func(ctx context.Context, url string) (Repository, func(), error)

// PoolConnector connects through a pgx pool and pings it once.
func PoolConnector(logger *slog.Logger) Connector {
	return func(ctx context.Context, url string) (Repository, func(), error) {
		pool, err := database.Init(ctx, url, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to reach database: %w", err)
		}
		return NewVerifyRepository(pool, logger), pool.Close, nil
	}
}

type Service interface {
	Verify(ctx context.Context, targets []Target) []types.VerificationReport
}

type ServiceImpl struct {
	logger     *slog.Logger
	connect    Connector
	spotChecks []string
}

func NewVerifyService(connect Connector, spotChecks []string, logger *slog.Logger) *ServiceImpl {
	if len(spotChecks) == 0 {
		spotChecks = DefaultSpotChecks
	}
	return &ServiceImpl{
		logger:     logger,
		connect:    connect,
		spotChecks: spotChecks,
	}
}

// Verify builds one report per target. Targets are checked concurrently and
// each records its own failure, so a dead remote never hides the local report.
// Reports come back in the order of targets.
func (s *ServiceImpl) Verify(ctx context.Context, targets []Target) []types.VerificationReport {
	ctx, span := otel.Tracer("VerifyService").Start(ctx, "Verify")
	defer span.End()

	reports := make([]types.VerificationReport, len(targets))
	var g errgroup.Group
	for i, target := range targets {
		g.Go(func() error {
			reports[i] = s.verifyTarget(ctx, target)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range reports {
		if r.Err != "" {
			span.SetStatus(codes.Error, "At least one target failed")
			return reports
		}
	}
	span.SetStatus(codes.Ok, "All targets verified")
	return reports
}

func (s *ServiceImpl) verifyTarget(ctx context.Context, target Target) types.VerificationReport {
	l := s.logger.With(slog.String("method", "verifyTarget"), slog.String("target", target.Name))
	report := types.VerificationReport{Target: target.Name, SpotChecks: []types.SpotCheck{}}

	if target.URL == "" {
		l.InfoContext(ctx, "Target not configured, skipping")
		report.Skipped = true
		return report
	}

	ctx, span := otel.Tracer("VerifyService").Start(ctx, "verifyTarget")
	defer span.End()
	span.SetAttributes(attribute.String("verify.target", target.Name))

	fail := func(err error) types.VerificationReport {
		l.ErrorContext(ctx, "Verification failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Verification failed")
		report.Err = err.Error()
		return report
	}

	repo, release, err := s.connect(ctx, target.URL)
	if err != nil {
		return fail(fmt.Errorf("connect: %w", err))
	}
	defer release()

	if report.Cities, report.CostRows, err = repo.Counts(ctx); err != nil {
		return fail(err)
	}
	if report.Coverage, err = repo.Coverage(ctx); err != nil {
		return fail(err)
	}
	for _, name := range s.spotChecks {
		check, err := repo.SpotCheck(ctx, name)
		if err != nil {
			return fail(err)
		}
		report.SpotChecks = append(report.SpotChecks, check)
	}

	l.InfoContext(ctx, "Target verified",
		slog.Int("cities", report.Cities),
		slog.Int("cost_rows", report.CostRows),
		slog.Int("with_iata", report.Coverage.WithIATA),
		slog.Int("with_cost", report.Coverage.WithCost),
		slog.Int("both", report.Coverage.Both))
	span.SetStatus(codes.Ok, "Target verified")
	return report
}
