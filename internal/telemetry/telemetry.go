package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"

	"github.com/VitaminP8/postgraph/internal/config"
)

// metricInterval - период выгрузки метрик в stdout
const metricInterval = 30 * time.Second

// Providers - провайдеры трейсов и метрик процесса
type Providers struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
}

// New собирает провайдеров с экспортером из cfg.Exporter.
// stdout пишет трейсы и метрики в out, otlp отправляет трейсы коллектору
// по OTEL_EXPORTER_OTLP_ENDPOINT, none только собирает данные в процессе.
func New(ctx context.Context, cfg config.TelemetryConfig, out io.Writer) (*Providers, error) {
	res := resource.NewSchemaless(semconv.ServiceName(cfg.ServiceName))

	traceOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	metricOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	switch cfg.Exporter {
	case config.TelemetryStdout:
		spans, err := stdouttrace.New(stdouttrace.WithWriter(out))
		if err != nil {
			return nil, fmt.Errorf("could not create trace exporter: %w", err)
		}
		metrics, err := stdoutmetric.New(stdoutmetric.WithWriter(out))
		if err != nil {
			return nil, fmt.Errorf("could not create metric exporter: %w", err)
		}
		traceOpts = append(traceOpts, sdktrace.WithBatcher(spans))
		metricOpts = append(metricOpts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(metrics, sdkmetric.WithInterval(metricInterval)),
		))

	case config.TelemetryOTLP:
		spans, err := otlptracehttp.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("could not create otlp trace exporter: %w", err)
		}
		traceOpts = append(traceOpts, sdktrace.WithBatcher(spans))

	case config.TelemetryNone, "":

	default:
		return nil, fmt.Errorf("unknown telemetry exporter %q", cfg.Exporter)
	}

	return &Providers{
		TracerProvider: sdktrace.NewTracerProvider(traceOpts...),
		MeterProvider:  sdkmetric.NewMeterProvider(metricOpts...),
	}, nil
}

// Install делает провайдеров глобальными, ошибки otel уходят в log
func (p *Providers) Install(log *zap.Logger) {
	otel.SetTracerProvider(p.TracerProvider)
	otel.SetMeterProvider(p.MeterProvider)
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		log.Warn("telemetry error", zap.Error(err))
	}))
}

// Shutdown выгружает накопленные данные и останавливает провайдеров
func (p *Providers) Shutdown(ctx context.Context) error {
	return errors.Join(
		p.TracerProvider.Shutdown(ctx),
		p.MeterProvider.Shutdown(ctx),
	)
}
