package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestUnaryInterceptorRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewIngestCollector(reg)
	if err != nil {
		t.Fatalf("NewIngestCollector: %v", err)
	}

	interceptor := collector.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/trackd.ingest.v1.FrameIngest/Submit"}

	_, err = interceptor(context.Background(), struct{}{}, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("interceptor handler returned error: %v", err)
	}

	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("FrameIngest", "Submit", "OK")); got != 1 {
		t.Fatalf("trackd_grpc_requests_total = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "trackd_grpc_request_duration_seconds", map[string]string{
		"service": "FrameIngest",
		"method":  "Submit",
	}); count != 1 {
		t.Fatalf("trackd_grpc_request_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestUnaryInterceptorRecordsErrorCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewIngestCollector(reg)
	if err != nil {
		t.Fatalf("NewIngestCollector: %v", err)
	}

	interceptor := collector.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/trackd.ingest.v1.FrameIngest/Submit"}

	_, _ = interceptor(context.Background(), struct{}{}, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.InvalidArgument, "boom")
	})

	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("FrameIngest", "Submit", "InvalidArgument")); got != 1 {
		t.Fatalf("trackd_grpc_requests_total error label = %v, want 1", got)
	}
}

func TestFrameAndRecordCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewIngestCollector(reg)
	if err != nil {
		t.Fatalf("NewIngestCollector: %v", err)
	}

	collector.ObserveFrame(FrameAccepted, time.Millisecond)
	collector.ObserveFrame(FrameTruncated, time.Microsecond)
	collector.AddRecords(RecordUpserted, 3)
	collector.AddRecords(RecordDeleted, 0)
	collector.SetActiveTracks(7)
	collector.DatagramDropped()

	if got := testutil.ToFloat64(collector.Frames.WithLabelValues(FrameAccepted)); got != 1 {
		t.Fatalf("frames accepted = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.Records.WithLabelValues(RecordUpserted)); got != 3 {
		t.Fatalf("records upsert = %v, want 3", got)
	}
	if got := testutil.ToFloat64(collector.ActiveTracks); got != 7 {
		t.Fatalf("tracks_active = %v, want 7", got)
	}
	if got := testutil.ToFloat64(collector.Datagrams.WithLabelValues("dropped")); got != 1 {
		t.Fatalf("datagrams dropped = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(collector.DecodeDuration); got != 1 {
		t.Fatalf("decode histogram series = %d, want 1", got)
	}
}

func TestRegisteringTwiceReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewIngestCollector(reg)
	if err != nil {
		t.Fatalf("NewIngestCollector: %v", err)
	}
	second, err := NewIngestCollector(reg)
	if err != nil {
		t.Fatalf("second NewIngestCollector: %v", err)
	}
	first.ObserveFrame(FrameAccepted, 0)
	if got := testutil.ToFloat64(second.Frames.WithLabelValues(FrameAccepted)); got != 1 {
		t.Fatalf("shared counter = %v, want 1", got)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *IngestCollector
	c.ObserveFrame(FrameAccepted, 0)
	c.AddRecords(RecordUpserted, 1)
	c.SetActiveTracks(1)
	c.DatagramQueued()
}

func TestMetricsHandlerExposesIngestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewIngestCollector(reg)
	if err != nil {
		t.Fatalf("NewIngestCollector: %v", err)
	}
	collector.ObserveFrame(FrameAccepted, time.Millisecond)
	collector.AddRecords(RecordFiltered, 2)
	collector.SetActiveTracks(4)
	collector.RPCRequests.WithLabelValues("svc", "method", "OK").Inc()
	collector.RPCDurations.WithLabelValues("svc", "method").Observe(0.01)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"trackd_frames_total",
		"trackd_records_total",
		"trackd_frame_decode_seconds",
		"trackd_tracks_active 4",
		"trackd_grpc_requests_total",
		"trackd_grpc_request_duration_seconds",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func TestSplitMethod(t *testing.T) {
	cases := map[string][2]string{
		"":                                     {"unknown", "unknown"},
		"/trackd.ingest.v1.FrameIngest/Submit": {"FrameIngest", "Submit"},
		"Submit":                               {"unknown", "unknown"},
		"/svc/":                                {"svc", "unknown"},
	}
	for in, want := range cases {
		s, m := SplitMethod(in)
		if s != want[0] || m != want[1] {
			t.Fatalf("SplitMethod(%q) = %q/%q, want %q/%q", in, s, m, want[0], want[1])
		}
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
