package telemetry

import (
	"context"
	"fmt"

	"lecture-rag-backend/internal/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// InitTracer initializes OpenTelemetry tracing with an OTLP gRPC exporter.
// An empty endpoint leaves the global no-op tracer in place, so spans cost
// nothing when no collector is running.
func InitTracer(serviceName, endpoint string) (func(), error) {
	if endpoint == "" {
		logger.Debug("Tracing disabled: no OTLP endpoint configured")
		return func() {}, nil
	}

	ctx := context.Background()

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)

	logger.Info("OpenTelemetry tracer initialized", "service", serviceName, "endpoint", endpoint)

	return func() {
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Failed to shutdown tracer", "error", err)
		}
	}, nil
}
