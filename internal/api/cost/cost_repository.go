package cost

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/tripcost-seeder/app/db"
	"github.com/FACorreiaa/tripcost-seeder/app/observability/metrics"
	"github.com/FACorreiaa/tripcost-seeder/internal/types"
)

var _ CostRepository = (*PostgresCostRepository)(nil)

type CostRepository interface {
	// ListCityKeys pages over every persisted city in id order.
	ListCityKeys(ctx context.Context, pageSize int) ([]types.CityKey, error)
	// UpsertCostIndices inserts or overwrites one batch keyed by city_id.
	UpsertCostIndices(ctx context.Context, batch []types.CostIndex) (int64, error)
}

type PostgresCostRepository struct {
	logger *slog.Logger
	db     database.Querier
}

func NewCostRepository(db database.Querier, logger *slog.Logger) *PostgresCostRepository {
	return &PostgresCostRepository{
		logger: logger,
		db:     db,
	}
}

const listCityKeysSQL = `
	SELECT id, name, country
	FROM cities
	ORDER BY id
	LIMIT $1 OFFSET $2`

func (r *PostgresCostRepository) ListCityKeys(ctx context.Context, pageSize int) ([]types.CityKey, error) {
	ctx, span := otel.Tracer("CostRepo").Start(ctx, "ListCityKeys", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "cities"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "ListCityKeys"))
	var keys []types.CityKey

	for offset := 0; ; offset += pageSize {
		start := time.Now()
		rows, err := r.db.Query(ctx, listCityKeysSQL, pageSize, offset)
		if err != nil {
			metrics.ObserveQuery(ctx, "list_city_keys", start, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "DB SELECT failed")
			return nil, fmt.Errorf("failed to list cities: %w", err)
		}

		n := 0
		for rows.Next() {
			var k types.CityKey
			if err := rows.Scan(&k.ID, &k.Name, &k.Country); err != nil {
				rows.Close()
				span.RecordError(err)
				return nil, fmt.Errorf("failed to scan city key: %w", err)
			}
			keys = append(keys, k)
			n++
		}
		rows.Close()
		err = rows.Err()
		metrics.ObserveQuery(ctx, "list_city_keys", start, err)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed iterating cities: %w", err)
		}
		if n < pageSize {
			break
		}
		l.DebugContext(ctx, "Fetched city page", slog.Int("total", len(keys)))
	}

	span.SetAttributes(attribute.Int("cities.count", len(keys)))
	span.SetStatus(codes.Ok, "City keys listed")
	return keys, nil
}

const costColumns = 5

const upsertCostIndicesSQL = `
	INSERT INTO cost_indices (city_id, accommodation_low, accommodation_mid, food_daily, local_transit_daily)
	VALUES %s
	ON CONFLICT (city_id) DO UPDATE SET
		accommodation_low = EXCLUDED.accommodation_low,
		accommodation_mid = EXCLUDED.accommodation_mid,
		food_daily = EXCLUDED.food_daily,
		local_transit_daily = EXCLUDED.local_transit_daily`

func (r *PostgresCostRepository) UpsertCostIndices(ctx context.Context, batch []types.CostIndex) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	ctx, span := otel.Tracer("CostRepo").Start(ctx, "UpsertCostIndices", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "cost_indices"),
		attribute.Int("batch.size", len(batch)),
	))
	defer span.End()

	args := make([]any, 0, len(batch)*costColumns)
	for _, c := range batch {
		args = append(args, c.CityID, c.AccommodationLow, c.AccommodationMid, c.FoodDaily, c.LocalTransitDaily)
	}
	query := fmt.Sprintf(upsertCostIndicesSQL, database.ValuesPlaceholders(len(batch), costColumns))

	start := time.Now()
	tag, err := r.db.Exec(ctx, query, args...)
	metrics.ObserveQuery(ctx, "upsert_cost_indices", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return 0, fmt.Errorf("failed to upsert cost indices: %w", err)
	}
	span.SetStatus(codes.Ok, "Cost indices upserted")
	return tag.RowsAffected(), nil
}
