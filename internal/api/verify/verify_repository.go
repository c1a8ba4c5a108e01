package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/tripcost-seeder/app/db"
	"github.com/FACorreiaa/tripcost-seeder/app/observability/metrics"
	"github.com/FACorreiaa/tripcost-seeder/internal/types"
)

var _ Repository = (*PostgresVerifyRepository)(nil)

// Repository holds the read-only queries behind a verification report.
type Repository interface {
	Counts(ctx context.Context) (cities, costRows int, err error)
	Coverage(ctx context.Context) (types.Coverage, error)
	SpotCheck(ctx context.Context, name string) (types.SpotCheck, error)
}

type PostgresVerifyRepository struct {
	logger *slog.Logger
	db     database.Querier
}

func NewVerifyRepository(db database.Querier, logger *slog.Logger) *PostgresVerifyRepository {
	return &PostgresVerifyRepository{
		logger: logger,
		db:     db,
	}
}

func (r *PostgresVerifyRepository) Counts(ctx context.Context) (int, int, error) {
	ctx, span := startSpan(ctx, "Counts")
	defer span.End()

	var cities, costRows int
	start := time.Now()
	err := r.db.QueryRow(ctx, `SELECT (SELECT count(*) FROM cities), (SELECT count(*) FROM cost_indices)`).
		Scan(&cities, &costRows)
	metrics.ObserveQuery(ctx, "verify_counts", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return 0, 0, fmt.Errorf("failed to count rows: %w", err)
	}
	span.SetStatus(codes.Ok, "Counted")
	return cities, costRows, nil
}

const coverageSQL = `
	SELECT
		count(*) FILTER (WHERE c.iata_code IS NOT NULL AND c.iata_code <> ''),
		count(ci.city_id),
		count(*) FILTER (WHERE c.iata_code IS NOT NULL AND c.iata_code <> '' AND ci.city_id IS NOT NULL)
	FROM cities c
	LEFT JOIN cost_indices ci ON ci.city_id = c.id`

func (r *PostgresVerifyRepository) Coverage(ctx context.Context) (types.Coverage, error) {
	ctx, span := startSpan(ctx, "Coverage")
	defer span.End()

	var cov types.Coverage
	start := time.Now()
	err := r.db.QueryRow(ctx, coverageSQL).Scan(&cov.WithIATA, &cov.WithCost, &cov.Both)
	metrics.ObserveQuery(ctx, "verify_coverage", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return types.Coverage{}, fmt.Errorf("failed to compute coverage: %w", err)
	}
	span.SetStatus(codes.Ok, "Coverage computed")
	return cov, nil
}

const spotCheckSQL = `
	SELECT c.name, c.country, ci.food_daily
	FROM cities c
	LEFT JOIN cost_indices ci ON ci.city_id = c.id
	WHERE c.name ILIKE $1
	ORDER BY c.id
	LIMIT 1`

// SpotCheck looks a city up by case-insensitive name. A missing city is not an
// error; it is reported with Found false.
func (r *PostgresVerifyRepository) SpotCheck(ctx context.Context, name string) (types.SpotCheck, error) {
	ctx, span := startSpan(ctx, "SpotCheck")
	defer span.End()
	span.SetAttributes(attribute.String("city.query", name))

	check := types.SpotCheck{Query: name}
	var food decimal.NullDecimal

	start := time.Now()
	err := r.db.QueryRow(ctx, spotCheckSQL, name).Scan(&check.Name, &check.Country, &food)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.ObserveQuery(ctx, "verify_spot_check", start, nil)
		span.SetStatus(codes.Ok, "City not found")
		return check, nil
	}
	metrics.ObserveQuery(ctx, "verify_spot_check", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return check, fmt.Errorf("failed spot check for %q: %w", name, err)
	}

	check.Found = true
	if food.Valid {
		check.FoodDaily = &food.Decimal
	}
	span.SetStatus(codes.Ok, "City found")
	return check, nil
}

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer("VerifyRepo").Start(ctx, name, trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
	))
}
