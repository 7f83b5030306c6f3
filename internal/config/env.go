package config

import (
	"strconv"
	"strings"
)

// applyEnv overlays TRACKD_* variables. LOG_LEVEL and LOG_FORMAT are
// honoured when their TRACKD_ forms are unset. Unparseable numbers are
// ignored.
func (c *Config) applyEnv(getenv func(string) string) {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}
	integer := func(dst *int, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	float := func(dst *float64, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}
	boolean := func(dst *bool, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	str(&c.Ingest.ByteOrder, "TRACKD_BYTE_ORDER")
	str(&c.Ingest.TimeZone, "TRACKD_TIME_ZONE")
	integer(&c.Ingest.MaxTracks, "TRACKD_MAX_TRACKS")
	str(&c.Ingest.UDPListen, "TRACKD_UDP_LISTEN")
	integer(&c.Ingest.Workers, "TRACKD_WORKERS")
	integer(&c.Ingest.QueueDepth, "TRACKD_QUEUE_DEPTH")

	str(&c.GRPC.Listen, "TRACKD_GRPC_LISTEN")
	str(&c.Metrics.Listen, "TRACKD_METRICS_LISTEN")

	str(&c.Logging.Level, "TRACKD_LOG_LEVEL", "LOG_LEVEL")
	str(&c.Logging.Format, "TRACKD_LOG_FORMAT", "LOG_FORMAT")

	boolean(&c.Tracing.Enabled, "TRACKD_TRACING_ENABLED")
	str(&c.Tracing.Exporter, "TRACKD_TRACING_EXPORTER")
	str(&c.Tracing.Endpoint, "TRACKD_OTLP_ENDPOINT")
	str(&c.Tracing.ServiceName, "TRACKD_TRACING_SERVICE_NAME")
	float(&c.Tracing.SampleRatio, "TRACKD_TRACING_SAMPLE_RATIO")

	boolean(&c.Archive.Enabled, "TRACKD_ARCHIVE_ENABLED")
	str(&c.Archive.Path, "TRACKD_ARCHIVE_PATH")
	boolean(&c.Recording.Enabled, "TRACKD_RECORDING_ENABLED")
	str(&c.Recording.Dir, "TRACKD_RECORDING_DIR")
}
