// Package tracing sets up OpenTelemetry spans across MessageRouter
// dispatch and MCPAdapter subprocess calls. When OTEL_EXPORTER_OTLP_ENDPOINT
// is unset, the global tracer is a no-op and span creation costs nothing
// beyond the interface call.
package tracing

import (
	"context"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/gridctl/agenthub"

// Shutdown flushes and stops the tracer provider. A no-op if tracing
// was never configured with an OTLP endpoint.
type Shutdown func(context.Context) error

// Setup installs a global TracerProvider. If OTEL_EXPORTER_OTLP_ENDPOINT
// is unset, the default no-op provider is left in place and Setup
// returns a no-op Shutdown.
func Setup(ctx context.Context, serviceVersion string) (Shutdown, error) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceNameKey.String("agenthub"),
		semconv.ServiceVersionKey.String(serviceVersion),
	))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return func(shutdownCtx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(shutdownCtx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(shutdownCtx)
	}, nil
}

// StartDispatch starts a span around one MessageRouter.Dispatch call.
func StartDispatch(ctx context.Context, class, msgType string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "router.dispatch",
		trace.WithAttributes(
			attribute.String("agenthub.connection_class", class),
			attribute.String("agenthub.message_type", msgType),
		),
	)
	return ctx, span
}

// StartMCPCall starts a span around one MCPAdapter subprocess call.
func StartMCPCall(ctx context.Context, serverID, toolName string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "mcp.execute_tool",
		trace.WithAttributes(
			attribute.String("agenthub.mcp_server_id", serverID),
			attribute.String("agenthub.mcp_tool_name", toolName),
		),
	)
	return ctx, span
}
