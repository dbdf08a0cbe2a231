// Package observability provides OpenTelemetry tracing for the
// authorization service.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// InitTracer initializes the OpenTelemetry tracer
func InitTracer(serviceName, endpoint string) (*sdktrace.TracerProvider, error) {
	ctx := context.Background()

	// Create OTLP exporter
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating exporter: %w", err)
	}

	// Create resource with service attributes
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String("0.1.0"),
			attribute.String("deployment.environment", "production"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	// Create tracer provider with batch processor
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(
			sdktrace.TraceIDRatioBased(0.1), // 10% sampling
		)),
	)

	otel.SetTracerProvider(tp)
	return tp, nil
}

// Tracer returns the global tracer
func Tracer() trace.Tracer {
	return otel.Tracer("hodei-authz")
}

// RequestAttributes describes the principal/action/resource triple under
// evaluation, attached to an orchestrator.Evaluate span as soon as the
// request is validated.
func RequestAttributes(principalHRN, action, resourceHRN string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("authz.principal_hrn", principalHRN),
		attribute.String("authz.action", action),
		attribute.String("authz.resource_hrn", resourceHRN),
	}
}

// DecisionAttributes records the outcome of an evaluation on a span.
func DecisionAttributes(decision string, explicit bool, determiningPolicies int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("authz.decision", decision),
		attribute.Bool("authz.explicit", explicit),
		attribute.Int("authz.determining_policies", determiningPolicies),
	}
}

// CacheAttributes records whether a decision was served from cache.
func CacheAttributes(hit bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool("authz.cache_hit", hit),
	}
}

// StartEvaluationSpan starts a span for one authorization evaluation.
func StartEvaluationSpan(ctx context.Context, principalHRN, action, resourceHRN string) (context.Context, trace.Span) {
	attrs := RequestAttributes(principalHRN, action, resourceHRN)
	return Tracer().Start(ctx, "orchestrator.Evaluate",
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// RecordDecision records the outcome of an evaluation on a span.
func RecordDecision(span trace.Span, decision string, explicit bool, determiningPolicies int) {
	if span.IsRecording() {
		span.SetAttributes(DecisionAttributes(decision, explicit, determiningPolicies)...)
	}
}
