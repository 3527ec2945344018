package observability

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"jan-server/services/quadchart-api/internal/config"
)

// Shutdown flushes pending spans and stops the exporter.
type Shutdown func(ctx context.Context) error

func noopShutdown(context.Context) error { return nil }

// Setup installs the global tracer provider when ENABLE_TRACING is set and a
// collector endpoint is configured. Render and analyze subprocess spans hang off it.
func Setup(ctx context.Context, cfg *config.Config, log zerolog.Logger) (Shutdown, error) {
	if !cfg.EnableTracing || strings.TrimSpace(cfg.OTLPEndpoint) == "" {
		log.Info().Msg("tracing disabled")
		return noopShutdown, nil
	}

	target, err := parseCollectorEndpoint(cfg.OTLPEndpoint)
	if err != nil {
		return nil, err
	}
	exporter, err := otlptracehttp.New(ctx, target.options()...)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(newSampler(cfg.TraceSampleRate)),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	log.Info().
		Str("collector", target.host).
		Bool("insecure", target.insecure).
		Float64("sample_ratio", cfg.TraceSampleRate).
		Msg("tracing enabled")
	return tp.Shutdown, nil
}

type collectorEndpoint struct {
	host     string
	path     string
	insecure bool
}

// parseCollectorEndpoint accepts either a bare host:port, which is dialed over
// plain HTTP, or a full URL whose scheme decides TLS.
func parseCollectorEndpoint(raw string) (collectorEndpoint, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		return collectorEndpoint{host: raw, insecure: true}, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return collectorEndpoint{}, fmt.Errorf("parse OTEL_EXPORTER_OTLP_ENDPOINT: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return collectorEndpoint{}, fmt.Errorf("OTEL_EXPORTER_OTLP_ENDPOINT scheme %q is not http or https", u.Scheme)
	}
	if u.Host == "" {
		return collectorEndpoint{}, fmt.Errorf("OTEL_EXPORTER_OTLP_ENDPOINT %q has no host", raw)
	}
	endpoint := collectorEndpoint{host: u.Host, insecure: u.Scheme == "http"}
	if path := strings.TrimSuffix(u.Path, "/"); path != "" {
		endpoint.path = path
	}
	return endpoint, nil
}

func (c collectorEndpoint) options() []otlptracehttp.Option {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(c.host)}
	if c.path != "" {
		opts = append(opts, otlptracehttp.WithURLPath(c.path))
	}
	if c.insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return opts
}

func newSampler(ratio float64) sdktrace.Sampler {
	if ratio >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

func newResource(ctx context.Context, cfg *config.Config) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
}
