package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jinzhu/gorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/VitaminP8/postgraph/internal/storage/postgres"

type queryMetrics struct {
	count    metric.Int64Counter
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

type telemetry struct {
	tracer  trace.Tracer
	metrics *queryMetrics
}

// пока UseTelemetry не вызван, операции не трассируются
var current atomic.Pointer[telemetry]

// UseTelemetry включает трейсы и метрики операций хранилища
func UseTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) error {
	metrics, err := newQueryMetrics(mp.Meter(instrumentationName))
	if err != nil {
		return fmt.Errorf("could not create storage metrics: %w", err)
	}

	current.Store(&telemetry{
		tracer:  tp.Tracer(instrumentationName),
		metrics: metrics,
	})
	return nil
}

// DisableTelemetry отключает трейсы и метрики
func DisableTelemetry() {
	current.Store(nil)
}

func newQueryMetrics(meter metric.Meter) (*queryMetrics, error) {
	count, countErr := meter.Int64Counter("postgraph.db.query.count",
		metric.WithDescription("Total number of storage operations"),
		metric.WithUnit("{query}"),
	)
	duration, durationErr := meter.Float64Histogram("postgraph.db.query.duration",
		metric.WithDescription("Storage operation duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000),
	)
	errs, errsErr := meter.Int64Counter("postgraph.db.query.errors",
		metric.WithDescription("Total number of failed storage operations"),
		metric.WithUnit("{error}"),
	)
	if err := errors.Join(countErr, durationErr, errsErr); err != nil {
		return nil, err
	}

	return &queryMetrics{count: count, duration: duration, errors: errs}, nil
}

// observe оборачивает операцию хранилища в span и пишет метрики.
// "record not found" ошибкой не считается.
func observe(ctx context.Context, operation string, fn func() error) error {
	t := current.Load()
	if t == nil {
		return fn()
	}

	attrs := []attribute.KeyValue{
		attribute.String("db.operation", operation),
		attribute.String("db.system", dialectName()),
	}

	ctx, span := t.tracer.Start(ctx, operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	start := time.Now()
	err := fn()

	set := metric.WithAttributes(attrs...)
	t.metrics.count.Add(ctx, 1, set)
	t.metrics.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000, set)

	if err != nil && !gorm.IsRecordNotFoundError(err) {
		t.metrics.errors.Add(ctx, 1, set)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return err
}

func dialectName() string {
	if DB == nil {
		return "unknown"
	}
	return DB.Dialect().GetName()
}
