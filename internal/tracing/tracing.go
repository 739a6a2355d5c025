// Package tracing installs an OpenTelemetry tracer provider that exports
// spans as JSON lines, and wraps pipeline stages in spans.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"tmdbetl/internal/config"
)

// InstrumentationName names the tracer.
const InstrumentationName = "tmdbetl"

// Shutdown flushes pending spans and releases the exporter.
type Shutdown func(ctx context.Context) error

// Setup installs a global tracer provider when tracing is enabled. Output
// "stdout" writes to standard output; any other value is a file path,
// truncated on open. When tracing is disabled the global no-op provider stays
// in place and Shutdown does nothing.
func Setup(cfg config.Tracing, job string, log *slog.Logger) (Shutdown, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	var (
		w      io.Writer = os.Stdout
		closer io.Closer
	)
	if cfg.Output != "" && cfg.Output != config.DefaultTraceOutput {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return nil, fmt.Errorf("tracing: open %s: %w", cfg.Output, err)
		}
		w, closer = f, f
	}

	exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, fmt.Errorf("tracing: create exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", InstrumentationName),
		attribute.String("tmdbetl.job", job),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	log.Info("tracing enabled", "output", cfg.Output)

	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if closer != nil {
			err = errors.Join(err, closer.Close())
		}
		return err
	}, nil
}

// Tracer returns the package tracer from the global provider.
func Tracer() trace.Tracer { return otel.Tracer(InstrumentationName) }

// Start opens a span named name under ctx.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
