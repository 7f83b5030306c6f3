package config

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Ingest.MaxTracks != DefaultMaxTracks || cfg.Ingest.UDPListen != DefaultUDPListen {
		t.Fatalf("unexpected ingest defaults: %+v", cfg.Ingest)
	}
	if cfg.ByteOrder() != binary.LittleEndian {
		t.Fatalf("ByteOrder() = %v, want little endian", cfg.ByteOrder())
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "trackd.yaml", `
ingest:
  byte_order: BIG
  max_tracks: 64
  time_zone: UTC
geo:
  origin_lat: 39.9
  origin_lon: 116.3
archive:
  enabled: true
  path: /tmp/tracks.db
  retention_hours: 48
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ByteOrder() != binary.BigEndian {
		t.Fatalf("ByteOrder() = %v, want big endian", cfg.ByteOrder())
	}
	if cfg.Ingest.MaxTracks != 64 || cfg.Ingest.Workers != DefaultWorkers {
		t.Fatalf("ingest = %+v", cfg.Ingest)
	}
	if cfg.Geo.OriginLat != 39.9 || cfg.Geo.OriginLon != 116.3 {
		t.Fatalf("geo = %+v", cfg.Geo)
	}
	if cfg.Retention().Hours() != 48 {
		t.Fatalf("Retention() = %v", cfg.Retention())
	}
	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("Location() = %v, %v", loc, err)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "trackd.toml", `
[ingest]
max_tracks = 32
udp_listen = ":7000"

[logging]
level = "debug"
format = "json"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Ingest.MaxTracks != 32 || cfg.Ingest.UDPListen != ":7000" {
		t.Fatalf("ingest = %+v", cfg.Ingest)
	}
	lc := cfg.LoggingConfig()
	if lc.Level != "debug" || lc.Format != "json" {
		t.Fatalf("LoggingConfig() = %+v", lc)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "trackd.yaml", "ingest:\n  max_tracks: 64\n")
	t.Setenv("TRACKD_MAX_TRACKS", "128")
	t.Setenv("TRACKD_UDP_LISTEN", "127.0.0.1:9000")
	t.Setenv("TRACKD_TRACING_ENABLED", "true")
	t.Setenv("TRACKD_TRACING_EXPORTER", "OTLP")
	t.Setenv("TRACKD_TRACING_SAMPLE_RATIO", "0.25")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Ingest.MaxTracks != 128 || cfg.Ingest.UDPListen != "127.0.0.1:9000" {
		t.Fatalf("ingest = %+v", cfg.Ingest)
	}
	tc := cfg.TracingConfig()
	if !tc.Enabled || tc.Exporter != "otlp" || tc.SampleRatio != 0.25 {
		t.Fatalf("TracingConfig() = %+v", tc)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("Logging.Level = %q, want warn from LOG_LEVEL", cfg.Logging.Level)
	}
}

func TestEnvIgnoresGarbageNumbers(t *testing.T) {
	cfg := Default()
	cfg.applyEnv(func(k string) string {
		if k == "TRACKD_MAX_TRACKS" {
			return "lots"
		}
		return ""
	})
	if cfg.Ingest.MaxTracks != DefaultMaxTracks {
		t.Fatalf("MaxTracks = %d, want default", cfg.Ingest.MaxTracks)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"byte order":     func(c *Config) { c.Ingest.ByteOrder = "middle" },
		"max tracks":     func(c *Config) { c.Ingest.MaxTracks = 0 },
		"max tracks big": func(c *Config) { c.Ingest.MaxTracks = 70000 },
		"workers":        func(c *Config) { c.Ingest.Workers = 0 },
		"queue":          func(c *Config) { c.Ingest.QueueDepth = -1 },
		"time zone":      func(c *Config) { c.Ingest.TimeZone = "Mars/Olympus" },
		"log level":      func(c *Config) { c.Logging.Level = "loud" },
		"log format":     func(c *Config) { c.Logging.Format = "xml" },
		"exporter":       func(c *Config) { c.Tracing.Enabled = true; c.Tracing.Exporter = "zipkin" },
		"ratio":          func(c *Config) { c.Tracing.Enabled = true; c.Tracing.SampleRatio = 2 },
		"geo lat":        func(c *Config) { c.Geo.OriginLat = 91 },
		"archive path":   func(c *Config) { c.Archive.Enabled = true; c.Archive.Path = "" },
		"retention":      func(c *Config) { c.Archive.RetentionHours = -1 },
		"recording dir":  func(c *Config) { c.Recording.Enabled = true; c.Recording.Dir = "" },
		"grpc listen":    func(c *Config) { c.GRPC.Listen = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("Validate() accepted %s", name)
			}
		})
	}
}

func TestLoadReportsParseErrors(t *testing.T) {
	path := writeFile(t, "bad.yaml", "ingest: [unclosed")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %v, want parse error", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("Load of missing file succeeded")
	}
}

func TestSampleConfigMatchesDefaults(t *testing.T) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(SampleConfig()), &cfg); err != nil {
		t.Fatalf("parse sample: %v", err)
	}
	def := Default()
	if cfg.Ingest != def.Ingest || cfg.GRPC != def.GRPC || cfg.Metrics != def.Metrics {
		t.Fatalf("sample diverges from defaults:\n%+v\n%+v", cfg, def)
	}
	if cfg.Archive.Path != def.Archive.Path || cfg.Recording.Dir != def.Recording.Dir {
		t.Fatalf("sample paths diverge from defaults")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample does not validate: %v", err)
	}
}
