package observability

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestParseExporter(t *testing.T) {
	cases := map[string]Exporter{
		"":          ExporterStdout,
		"STDOUT":    ExporterStdout,
		"otlp":      ExporterOTLP,
		" otlpgrpc": ExporterOTLP,
	}
	for in, want := range cases {
		got, err := ParseExporter(in)
		if err != nil || got != want {
			t.Fatalf("ParseExporter(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseExporter("zipkin"); err == nil {
		t.Fatal("ParseExporter(zipkin) succeeded")
	}
}

func TestNewSamplerBounds(t *testing.T) {
	cases := []struct {
		ratio float64
		want  string
	}{
		{1, "AlwaysOnSampler"},
		{1.5, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}
	for _, tc := range cases {
		desc := newSampler(tc.ratio).Description()
		if !strings.HasPrefix(desc, "ParentBased{root:"+tc.want) {
			t.Fatalf("newSampler(%v) = %s, want root %s", tc.ratio, desc, tc.want)
		}
	}
}

func TestInitTracingDisabledIsNoop(t *testing.T) {
	tr, err := InitTracing(context.Background(), TracingConfig{Enabled: false}, nil)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	if tr.Enabled() {
		t.Fatal("disabled tracing reports Enabled")
	}
	tr.Close(context.Background())

	var zero *Tracing
	zero.Close(context.Background())
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "zipkin"}, nil)
	if err == nil || !strings.Contains(err.Error(), "unsupported tracing exporter") {
		t.Fatalf("InitTracing error = %v, want unsupported exporter", err)
	}
}

func TestInitTracingStdoutExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	tr, err := InitTracing(context.Background(), TracingConfig{
		Enabled:     true,
		Exporter:    "stdout",
		SampleRatio: 1,
		Writer:      &buf,
	}, nil)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	t.Cleanup(func() {
		_, _ = InitTracing(context.Background(), TracingConfig{}, nil)
	})

	_, span := otel.Tracer("test").Start(context.Background(), "frame")
	span.End()
	tr.Close(context.Background())

	out := buf.String()
	if !strings.Contains(out, `"Name": "frame"`) {
		t.Fatalf("stdout exporter output missing span: %s", out)
	}
	if !strings.Contains(out, `"service.namespace"`) || !strings.Contains(out, `"radar"`) {
		t.Fatalf("span resource missing namespace: %s", out)
	}
}
