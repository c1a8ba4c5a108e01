package city

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
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

var _ CityRepository = (*PostgresCityRepository)(nil)

type CityRepository interface {
	// UpsertCities inserts or overwrites one batch of cities by id.
	UpsertCities(ctx context.Context, batch []types.CityDetail) (int64, error)
	// IATAAssignments pages through every city holding a code and returns code -> id.
	IATAAssignments(ctx context.Context, pageSize int) (map[string]string, error)
	// ClearIATACodes nulls iata_code for the given ids.
	ClearIATACodes(ctx context.Context, ids []string) (int64, error)
	// SearchCities does a case-insensitive substring match on the name.
	SearchCities(ctx context.Context, query string, limit int) ([]types.CityDetail, error)
}

type PostgresCityRepository struct {
	logger *slog.Logger
	db     database.Querier
}

func NewCityRepository(db database.Querier, logger *slog.Logger) *PostgresCityRepository {
	return &PostgresCityRepository{
		logger: logger,
		db:     db,
	}
}

const cityColumns = 6

const upsertCitiesSQL = `
	INSERT INTO cities (id, name, country, latitude, longitude, iata_code)
	VALUES %s
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		country = EXCLUDED.country,
		latitude = EXCLUDED.latitude,
		longitude = EXCLUDED.longitude,
		iata_code = EXCLUDED.iata_code`

func (r *PostgresCityRepository) UpsertCities(ctx context.Context, batch []types.CityDetail) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	ctx, span := startSpan(ctx, "UpsertCities", "INSERT")
	defer span.End()

	args := make([]any, 0, len(batch)*cityColumns)
	for _, c := range batch {
		args = append(args, c.ID, c.Name, c.Country, c.Latitude, c.Longitude, c.IATACode)
	}
	query := fmt.Sprintf(upsertCitiesSQL, database.ValuesPlaceholders(len(batch), cityColumns))

	start := time.Now()
	tag, err := r.db.Exec(ctx, query, args...)
	metrics.ObserveQuery(ctx, "upsert_cities", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return 0, fmt.Errorf("failed to upsert cities: %w", err)
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", tag.RowsAffected()))
	span.SetStatus(codes.Ok, "Cities upserted")
	return tag.RowsAffected(), nil
}

const iataAssignmentsSQL = `
	SELECT id, iata_code
	FROM cities
	WHERE iata_code IS NOT NULL
	ORDER BY id
	LIMIT $1 OFFSET $2`

func (r *PostgresCityRepository) IATAAssignments(ctx context.Context, pageSize int) (map[string]string, error) {
	ctx, span := startSpan(ctx, "IATAAssignments", "SELECT")
	defer span.End()

	l := r.logger.With(slog.String("method", "IATAAssignments"))
	existing := make(map[string]string)

	for offset := 0; ; offset += pageSize {
		start := time.Now()
		rows, err := r.db.Query(ctx, iataAssignmentsSQL, pageSize, offset)
		if err != nil {
			metrics.ObserveQuery(ctx, "iata_assignments", start, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "DB SELECT failed")
			return nil, fmt.Errorf("failed to query iata assignments: %w", err)
		}

		n := 0
		for rows.Next() {
			var id, code string
			if err := rows.Scan(&id, &code); err != nil {
				rows.Close()
				span.RecordError(err)
				return nil, fmt.Errorf("failed to scan iata assignment: %w", err)
			}
			existing[code] = id
			n++
		}
		rows.Close()
		err = rows.Err()
		metrics.ObserveQuery(ctx, "iata_assignments", start, err)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed iterating iata assignments: %w", err)
		}

		if n < pageSize {
			break
		}
		l.DebugContext(ctx, "Fetched existing assignments", slog.Int("total", len(existing)))
	}

	span.SetAttributes(attribute.Int("iata.assignments", len(existing)))
	span.SetStatus(codes.Ok, "Assignments fetched")
	return existing, nil
}

func (r *PostgresCityRepository) ClearIATACodes(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ctx, span := startSpan(ctx, "ClearIATACodes", "UPDATE")
	defer span.End()

	start := time.Now()
	tag, err := r.db.Exec(ctx, `UPDATE cities SET iata_code = NULL WHERE id = ANY($1)`, ids)
	metrics.ObserveQuery(ctx, "clear_iata", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return 0, fmt.Errorf("failed to clear iata codes: %w", err)
	}
	span.SetStatus(codes.Ok, "IATA codes cleared")
	return tag.RowsAffected(), nil
}

const searchCitiesSQL = `
	SELECT id, name, country, latitude, longitude, iata_code
	FROM cities
	WHERE name ILIKE '%' || $1 || '%' ESCAPE '\'
	ORDER BY name, id
	LIMIT $2`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *PostgresCityRepository) SearchCities(ctx context.Context, query string, limit int) ([]types.CityDetail, error) {
	ctx, span := startSpan(ctx, "SearchCities", "SELECT")
	defer span.End()

	start := time.Now()
	rows, err := r.db.Query(ctx, searchCitiesSQL, likeEscaper.Replace(query), limit)
	if err != nil {
		metrics.ObserveQuery(ctx, "search_cities", start, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("failed to search cities: %w", err)
	}
	defer rows.Close()

	cities := make([]types.CityDetail, 0, limit)
	for rows.Next() {
		var c types.CityDetail
		if err := rows.Scan(&c.ID, &c.Name, &c.Country, &c.Latitude, &c.Longitude, &c.IATACode); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan city: %w", err)
		}
		cities = append(cities, c)
	}
	err = rows.Err()
	metrics.ObserveQuery(ctx, "search_cities", start, err)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed iterating cities: %w", err)
	}
	span.SetStatus(codes.Ok, "Cities found")
	return cities, nil
}

func startSpan(ctx context.Context, name, operation string) (context.Context, trace.Span) {
	return otel.Tracer("CityRepo").Start(ctx, name, trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", operation),
		attribute.String("db.sql.table", "cities"),
	))
}
