package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "jan-server/quadchart-api"
)

// GetTracer returns the tracer for the quadchart-api service.
func GetTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSubprocessSpan starts a span around a renderer or analyzer run.
func StartSubprocessSpan(ctx context.Context, operation, interpreter, templatePath string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "subprocess."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("subprocess.interpreter", interpreter),
			attribute.String("subprocess.template", templatePath),
		),
	)
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error, kind string) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String("error.kind", kind))
}
