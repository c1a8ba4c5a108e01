package metrics

import (
	"context"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the seeder's metric instruments.
type AppMetrics struct {
	RowsPreparedTotal      metric.Int64Counter
	RowsWrittenTotal       metric.Int64Counter
	BatchFailuresTotal     metric.Int64Counter
	IATAMatchesTotal       metric.Int64Counter
	IATAClearedTotal       metric.Int64Counter
	UnmatchedRowsTotal     metric.Int64Counter
	FuzzyMatchesTotal      metric.Int64Counter
	DbQueryDurationSeconds metric.Float64Histogram
	DbQueryErrorsTotal     metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE, using
// the Meter from the globally configured MeterProvider. Call it after the
// provider is installed; otherwise the instruments are no-ops.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("tripcost-seeder")
		m := &AppMetrics{}

		m.RowsPreparedTotal = mustCounter(meter, "seed_rows_prepared_total", "Rows prepared from source files", "{row}")
		m.RowsWrittenTotal = mustCounter(meter, "seed_rows_written_total", "Rows upserted into the database", "{row}")
		m.BatchFailuresTotal = mustCounter(meter, "seed_batch_failures_total", "Upsert batches that failed", "{batch}")
		m.IATAMatchesTotal = mustCounter(meter, "seed_iata_matches_total", "Cities assigned an IATA city code", "{city}")
		m.IATAClearedTotal = mustCounter(meter, "seed_iata_cleared_total", "Persisted IATA codes cleared by conflict resolution", "{city}")
		m.UnmatchedRowsTotal = mustCounter(meter, "seed_unmatched_rows_total", "Source rows dropped without a city match", "{row}")
		m.FuzzyMatchesTotal = mustCounter(meter, "seed_fuzzy_matches_total", "Names resolved by fuzzy matching", "{match}")
		m.DbQueryErrorsTotal = mustCounter(meter, "db_query_errors_total", "Total number of database query errors", "{error}")

		var err error
		m.DbQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		appMetrics = m
	})
}

func mustCounter(meter metric.Meter, name, description, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return c
}

// Get returns the global AppMetrics, initializing no-op-backed instruments
// when InitAppMetrics was never called (tests, one-off commands).
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}

// Kind tags a measurement with the seeding step it belongs to.
func Kind(kind string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("seed.kind", kind))
}

// Add is a nil-safe shorthand for counters that may be skipped.
func Add(ctx context.Context, c metric.Int64Counter, n int, opts ...metric.AddOption) {
	if c == nil || n == 0 {
		return
	}
	c.Add(ctx, int64(n), opts...)
}

// ObserveQuery records the duration of a named query and counts it as an
// error when err is non-nil.
func ObserveQuery(ctx context.Context, query string, start time.Time, err error) {
	m := Get()
	attrs := metric.WithAttributes(attribute.String("db.query", query))
	m.DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		m.DbQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}
