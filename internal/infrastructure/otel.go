package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"powerstats/internal/config"
)

// TracerName is the instrumentation scope used by every dataset build
const TracerName = "powerstats"

// TracingProvider holds the SDK provider installed for a run
type TracingProvider struct {
	TracerProvider *sdktrace.TracerProvider
	Tracer         trace.Tracer
}

// InitializeTracing installs a global tracer provider exporting spans to w.
// When tracing is disabled it returns a provider backed by the global no-op tracer.
func InitializeTracing(ctx context.Context, cfg config.TracingConfig, w io.Writer, logger *slog.Logger) (*TracingProvider, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if !cfg.Enabled || cfg.Exporter == "none" {
		return &TracingProvider{Tracer: otel.Tracer(TracerName)}, nil
	}

	var exporter sdktrace.SpanExporter
	var err error
	switch cfg.Exporter {
	case "stdout", "":
		exporter, err = stdouttrace.New(
			stdouttrace.WithWriter(w),
			stdouttrace.WithPrettyPrint(),
		)
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", config.AppName),
		attribute.String("service.version", config.AppVersion),
	)

	// Batch runs are short; export each span as it ends.
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	logger.InfoContext(ctx, "Tracing initialized", slog.String("exporter", cfg.Exporter))

	return &TracingProvider{
		TracerProvider: tp,
		Tracer:         tp.Tracer(TracerName, trace.WithInstrumentationVersion(config.AppVersion)),
	}, nil
}

// Shutdown flushes and stops the SDK provider, if one was installed
func (p *TracingProvider) Shutdown(ctx context.Context) error {
	if p == nil || p.TracerProvider == nil {
		return nil
	}
	return p.TracerProvider.Shutdown(ctx)
}
