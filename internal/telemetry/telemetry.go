// Package telemetry installs the OpenTelemetry tracer provider used by the
// outbound backend transport.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/frahmantamala/construction-dashboard/internal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// Version is reported as service.version on every span.
var Version = "dev"

func newStdoutExporter(w io.Writer) (trace.SpanExporter, error) {
	return stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
		stdouttrace.WithoutTimestamps(),
	)
}

func newCollectorExporter(ctx context.Context, endpoint string) (trace.SpanExporter, error) {
	insecure := !strings.HasPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "http://"), "https://")

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, opts...)
}

func newResource(serviceName string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(Version),
	)
}

// NewProvider installs the global tracer provider and returns its teardown.
// With tracing disabled the teardown is a no-op and nothing is installed.
//
// Spans go to the OTLP collector when an endpoint is configured, otherwise to
// the output file (stderr when empty).
func NewProvider(ctx context.Context, cfg internal.TracingConfig, logger *slog.Logger) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		return noop, nil
	}

	var (
		exp    trace.SpanExporter
		output *os.File
		err    error
	)
	switch {
	case cfg.Endpoint != "":
		exp, err = newCollectorExporter(ctx, cfg.Endpoint)
	case cfg.Output != "":
		output, err = os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return noop, fmt.Errorf("failed to open trace output: %w", err)
		}
		exp, err = newStdoutExporter(output)
	default:
		exp, err = newStdoutExporter(os.Stderr)
	}
	if err != nil {
		if output != nil {
			_ = output.Close()
		}
		return noop, fmt.Errorf("failed to create span exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(newResource(cfg.ServiceName)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	logger.Info("tracing enabled", "service", cfg.ServiceName, "endpoint", cfg.Endpoint, "output", cfg.Output)

	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if output != nil {
			if cerr := output.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
		return err
	}, nil
}
