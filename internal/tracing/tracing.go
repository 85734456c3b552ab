// Package tracing provides OpenTelemetry distributed tracing configuration.
//
//	Service (OTel SDK) → OTLP/gRPC (4317) → Jaeger Collector
//
// Envoy forwards B3 multi-header context, so the B3 propagator is installed next to W3C.
package tracing

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/eco2-team/backend/domains/platform-authz/internal/constants"
)

// Default configuration
const (
	defaultEndpoint     = "jaeger-collector-clusterip.istio-system.svc.cluster.local:4317"
	defaultSamplingRate = 1.0
	defaultTimeout      = 5 * time.Second
)

// Environment variable names
const (
	envEndpoint     = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envSamplingRate = "OTEL_SAMPLING_RATE"
	envEnabled      = "OTEL_ENABLED"
)

// Config holds tracing configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	SamplingRate   float64
	Enabled        bool
}

// DefaultConfig reads tracing configuration for the named service from the environment.
// Tracing is off unless OTEL_ENABLED=true.
func DefaultConfig(service string) *Config {
	samplingRate := defaultSamplingRate
	if v := os.Getenv(envSamplingRate); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			samplingRate = f
		}
	}

	endpoint := os.Getenv(envEndpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	return &Config{
		ServiceName:    service,
		ServiceVersion: constants.ServiceVersion,
		Environment:    os.Getenv(constants.EnvEnvironment),
		Endpoint:       endpoint,
		SamplingRate:   samplingRate,
		Enabled:        os.Getenv(envEnabled) == "true",
	}
}

// TracerProvider wraps the OpenTelemetry TracerProvider.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
}

// Init initializes OpenTelemetry tracing. It returns a nil provider when tracing is disabled;
// Shutdown is safe to call on it.
func Init(ctx context.Context, cfg *Config) (*TracerProvider, error) {
	if cfg == nil {
		cfg = DefaultConfig(constants.ServiceName)
	}

	// Propagation is installed even when export is off so B3 ids still reach the logs.
	SetPropagator()

	if !cfg.Enabled {
		return nil, nil
	}

	conn, err := grpc.NewClient(
		cfg.Endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, err
	}

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}

	// resource.New instead of resource.Merge avoids schema URL conflicts
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("deployment.environment", cfg.Environment),
			attribute.String("telemetry.sdk.name", "opentelemetry"),
			attribute.String("telemetry.sdk.language", "go"),
		),
		resource.WithHost(),
		resource.WithProcess(),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SamplingRate))),
		sdktrace.WithBatcher(exporter,
			sdktrace.WithMaxQueueSize(2048),
			sdktrace.WithMaxExportBatchSize(512),
			sdktrace.WithBatchTimeout(time.Second),
		),
	)

	otel.SetTracerProvider(tp)
	return &TracerProvider{provider: tp}, nil
}

// SetPropagator installs W3C trace context, baggage and B3 multi-header propagation.
func SetPropagator() {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
		b3.New(b3.WithInjectEncoding(b3.B3MultipleHeader)),
	))
}

// Shutdown flushes pending spans and shuts down the tracer provider.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp == nil || tp.provider == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return tp.provider.Shutdown(ctx)
}

// Tracer returns a tracer for the given name.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// StartSpan starts a new span with the given name and attributes.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer(constants.TracerInstrumentID).Start(ctx, name, trace.WithAttributes(attrs...))
}

// SetError marks the span as an error.
func SetError(ctx context.Context, err error, description string) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, description)
}

// Middleware extracts the incoming trace context and opens a server span per request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := Tracer(constants.TracerInstrumentID).Start(ctx, r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("url.path", r.URL.Path),
			),
		)
		defer span.End()

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
