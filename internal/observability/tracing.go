package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/signalsfoundry/radar-track-ingest/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Exporter names where finished spans are sent.
type Exporter string

const (
	ExporterStdout Exporter = "stdout"
	ExporterOTLP   Exporter = "otlp"
)

const (
	defaultServiceName   = "trackd"
	defaultOTLPEndpoint  = "localhost:4317"
	tracingFlushDeadline = 5 * time.Second
)

// ParseExporter maps a configured exporter name to an Exporter. An empty
// name selects stdout.
func ParseExporter(name string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "stdout":
		return ExporterStdout, nil
	case "otlp", "otlpgrpc":
		return ExporterOTLP, nil
	default:
		return "", fmt.Errorf("unsupported tracing exporter: %s", name)
	}
}

// TracingConfig governs how tracing is initialised.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Exporter    string
	Endpoint    string // OTLP collector host:port
	SampleRatio float64

	// Writer receives stdout exporter output; defaults to os.Stdout.
	Writer io.Writer
}

// Tracing owns the process-wide tracer provider. The zero value and a
// disabled Tracing are no-ops.
type Tracing struct {
	provider *sdktrace.TracerProvider
	log      logging.Logger
}

// InitTracing installs the global tracer provider and propagators. When
// tracing is disabled a noop provider is installed so dispatcher spans
// cost nothing.
func InitTracing(ctx context.Context, cfg TracingConfig, log logging.Logger) (*Tracing, error) {
	if log == nil {
		log = logging.Noop()
	}
	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		otel.SetTextMapPropagator(propagation.TraceContext{})
		log.Debug(ctx, "tracing disabled")
		return &Tracing{log: log}, nil
	}

	kind, err := ParseExporter(cfg.Exporter)
	if err != nil {
		return nil, err
	}
	exp, err := newExporter(ctx, kind, cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s exporter: %w", kind, err)
	}

	service := cfg.ServiceName
	if service == "" {
		service = defaultServiceName
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", service),
			attribute.String("service.namespace", "radar"),
		),
		resource.WithHost(),
		resource.WithProcessPID(),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	sampler := newSampler(cfg.SampleRatio)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sampler),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info(ctx, "tracing enabled",
		logging.String("exporter", string(kind)),
		logging.String("service_name", service),
		logging.String("sampler", sampler.Description()),
	)
	return &Tracing{provider: tp, log: log}, nil
}

// Enabled reports whether spans are being exported.
func (t *Tracing) Enabled() bool {
	return t != nil && t.provider != nil
}

// Close flushes buffered spans and stops the provider, giving up after a
// fixed deadline. Failures are logged, not returned.
func (t *Tracing) Close(ctx context.Context) {
	if !t.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, tracingFlushDeadline)
	defer cancel()
	if err := t.provider.Shutdown(ctx); err != nil {
		t.log.Warn(ctx, "tracing shutdown failed", logging.Err(err))
	}
}

// newSampler honours upstream sampling decisions and samples root spans
// at ratio. Ratios at or beyond the bounds collapse to always or never.
func newSampler(ratio float64) sdktrace.Sampler {
	var root sdktrace.Sampler
	switch {
	case ratio >= 1:
		root = sdktrace.AlwaysSample()
	case ratio <= 0:
		root = sdktrace.NeverSample()
	default:
		root = sdktrace.TraceIDRatioBased(ratio)
	}
	return sdktrace.ParentBased(root)
}

func newExporter(ctx context.Context, kind Exporter, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	if kind == ExporterOTLP {
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = defaultOTLPEndpoint
		}
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
	}
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	return stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
		stdouttrace.WithoutTimestamps(),
	)
}
