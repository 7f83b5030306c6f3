package observability

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Frame results used as the "result" label of trackd_frames_total.
const (
	FrameAccepted  = "accepted"
	FrameTooShort  = "too_short"
	FrameBadCount  = "bad_count"
	FrameTruncated = "truncated"
)

// Record actions used as the "action" label of trackd_records_total.
const (
	RecordUpserted = "upsert"
	RecordDeleted  = "delete"
	RecordFiltered = "filtered"
	RecordUnknown  = "unknown_status"
)

// IngestCollector bundles Prometheus metrics for frame ingestion and the
// gRPC surface, and provides helpers to wire them into servers and HTTP
// handlers.
type IngestCollector struct {
	gatherer prometheus.Gatherer

	Frames         *prometheus.CounterVec
	Records        *prometheus.CounterVec
	DecodeDuration prometheus.Histogram
	ActiveTracks   prometheus.Gauge
	Datagrams      *prometheus.CounterVec

	RPCRequests  *prometheus.CounterVec
	RPCDurations *prometheus.HistogramVec
}

// NewIngestCollector registers ingest Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when nil.
func NewIngestCollector(reg prometheus.Registerer) (*IngestCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	frames, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trackd_frames_total",
		Help: "Track-report frames processed, labeled by result.",
	}, []string{"result"}), "trackd_frames_total")
	if err != nil {
		return nil, err
	}

	records, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trackd_records_total",
		Help: "Track records visited in accepted frames, labeled by routing action.",
	}, []string{"action"}), "trackd_records_total")
	if err != nil {
		return nil, err
	}

	decode, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "trackd_frame_decode_seconds",
		Help:    "Time spent decoding and dispatching one frame.",
		Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05},
	}), "trackd_frame_decode_seconds")
	if err != nil {
		return nil, err
	}

	active, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "trackd_tracks_active",
		Help: "Current number of tracks in the track file.",
	}), "trackd_tracks_active")
	if err != nil {
		return nil, err
	}

	datagrams, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trackd_datagrams_total",
		Help: "UDP datagrams received, labeled by outcome (queued or dropped).",
	}, []string{"outcome"}), "trackd_datagrams_total")
	if err != nil {
		return nil, err
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trackd_grpc_requests_total",
		Help: "Total number of handled RPCs, labeled by service, method, and gRPC status code.",
	}, []string{"service", "method", "code"}), "trackd_grpc_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trackd_grpc_request_duration_seconds",
		Help:    "RPC latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"service", "method"}), "trackd_grpc_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &IngestCollector{
		gatherer:       gatherer,
		Frames:         frames,
		Records:        records,
		DecodeDuration: decode,
		ActiveTracks:   active,
		Datagrams:      datagrams,
		RPCRequests:    requests,
		RPCDurations:   durations,
	}, nil
}

// ObserveFrame counts one frame under result and records how long it took.
func (c *IngestCollector) ObserveFrame(result string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.Frames.WithLabelValues(result).Inc()
	c.DecodeDuration.Observe(elapsed.Seconds())
}

// AddRecords counts n records routed with the given action.
func (c *IngestCollector) AddRecords(action string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.Records.WithLabelValues(action).Add(float64(n))
}

// SetActiveTracks satisfies kb.MetricsRecorder.
func (c *IngestCollector) SetActiveTracks(n int) {
	if c == nil {
		return
	}
	c.ActiveTracks.Set(float64(n))
}

// DatagramQueued counts a datagram handed to a worker.
func (c *IngestCollector) DatagramQueued() {
	if c == nil {
		return
	}
	c.Datagrams.WithLabelValues("queued").Inc()
}

// DatagramDropped counts a datagram discarded because the queue was full.
func (c *IngestCollector) DatagramDropped() {
	if c == nil {
		return
	}
	c.Datagrams.WithLabelValues("dropped").Inc()
}

// UnaryServerInterceptor records request counts and durations for unary RPCs.
func (c *IngestCollector) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		if c == nil {
			return resp, err
		}

		fullMethod := ""
		if info != nil {
			fullMethod = info.FullMethod
		}
		service, method := SplitMethod(fullMethod)
		code := status.Code(err).String()

		c.RPCRequests.WithLabelValues(service, method, code).Inc()
		c.RPCDurations.WithLabelValues(service, method).Observe(time.Since(start).Seconds())

		return resp, err
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *IngestCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SplitMethod parses a fully-qualified gRPC method name into service and method
// components. It tolerates empty strings and partial paths, returning
// "unknown"/"unknown" when parsing fails.
func SplitMethod(fullMethod string) (string, string) {
	if fullMethod == "" {
		return "unknown", "unknown"
	}
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 2 {
		return "unknown", "unknown"
	}
	service := parts[len(parts)-2]
	method := parts[len(parts)-1]
	if dot := strings.LastIndex(service, "."); dot >= 0 && dot+1 < len(service) {
		service = service[dot+1:]
	}
	if service == "" {
		service = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	return service, method
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
