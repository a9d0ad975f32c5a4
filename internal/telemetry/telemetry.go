// Package telemetry installs the OpenTelemetry tracer provider.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/lehigh-university-libraries/coursemarketer/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Shutdown flushes and stops the tracer provider
type Shutdown func(context.Context) error

func noop(context.Context) error { return nil }

// Init installs a global tracer provider for the configured exporter. With
// no exporter configured spans are dropped.
func Init(ctx context.Context, cfg config.TracingConfig, version string) (Shutdown, error) {
	exporter, err := newExporter(ctx, cfg.Exporter)
	if err != nil {
		return noop, err
	}
	if exporter == nil {
		return noop, nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", version),
	))
	if err != nil {
		slog.Warn("otel resource init failed (continuing)", "err", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	slog.Info("Tracing initialized", "exporter", cfg.Exporter, "service", cfg.ServiceName)
	return tp.Shutdown, nil
}

func newExporter(ctx context.Context, name string) (sdktrace.SpanExporter, error) {
	switch name {
	case "", "none":
		return nil, nil
	case "otlp":
		// endpoint and headers come from the standard OTEL_EXPORTER_OTLP_* variables
		return otlptracehttp.New(ctx)
	case "stdout":
		return stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
	default:
		return nil, fmt.Errorf("unknown tracing exporter %q", name)
	}
}
