package infrastructure

import (
	"context"
	"fmt"
	"log/slog"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"poscore/internal/config"
)

// OTelProviders bundles the telemetry handles the application needs: the
// meter provider for instruments, the prometheus registry backing the
// /metrics endpoint, and the tracer provider spanning the entitlement and
// registration operations.
type OTelProviders struct {
	MeterProvider  *sdkmetric.MeterProvider
	TracerProvider *sdktrace.TracerProvider
	Registry       *promclient.Registry
}

// InitializeOTel sets up a meter provider that exports through the
// prometheus registry, and a tracer provider per the telemetry config.
func InitializeOTel(serviceName, version string, cfg config.TelemetryConfig, logger *slog.Logger) (*OTelProviders, error) {
	registry := promclient.NewRegistry()

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(version),
	)

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	providers := &OTelProviders{MeterProvider: provider, Registry: registry}

	if err := initializeTracing(cfg, res, providers, logger); err != nil {
		return nil, err
	}

	logger.Info("telemetry initialized",
		slog.String("metric_exporter", "prometheus"),
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("service", serviceName),
	)
	return providers, nil
}

func initializeTracing(cfg config.TelemetryConfig, res *resource.Resource, providers *OTelProviders, logger *slog.Logger) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "none":
		// Tracing disabled; spans fall through to the global noop provider.
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}
	if err != nil {
		return fmt.Errorf("create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.TraceSampleRatio)),
	)
	providers.TracerProvider = tp
	otel.SetTracerProvider(tp)

	logger.Info("tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.TraceSampleRatio),
	)
	return nil
}

// Meter returns a named meter from the provider.
func (p *OTelProviders) Meter(name string) metric.Meter {
	return p.MeterProvider.Meter(name)
}

// Shutdown flushes and stops the providers.
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			return fmt.Errorf("tracer provider shutdown: %w", err)
		}
	}
	return p.MeterProvider.Shutdown(ctx)
}

// TraceIDFromContext extracts the trace ID of the active span, for
// correlating log lines and API responses with exported spans.
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}
