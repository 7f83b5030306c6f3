// Package config loads trackd settings from YAML or TOML files with
// TRACKD_* environment overrides.
package config

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/radar-track-ingest/internal/logging"
	"github.com/signalsfoundry/radar-track-ingest/internal/observability"
)

//go:embed sample_config.yaml
var sampleConfig string

// Ingest controls frame decoding and the UDP listener.
type Ingest struct {
	ByteOrder  string `yaml:"byte_order" toml:"byte_order"` // little or big
	TimeZone   string `yaml:"time_zone" toml:"time_zone"`   // zone of header timestamps
	MaxTracks  int    `yaml:"max_tracks" toml:"max_tracks"`
	UDPListen  string `yaml:"udp_listen" toml:"udp_listen"`
	Workers    int    `yaml:"workers" toml:"workers"`
	QueueDepth int    `yaml:"queue_depth" toml:"queue_depth"`
}

// GRPC controls the frame submission service.
type GRPC struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Listen  string `yaml:"listen" toml:"listen"`
}

// Metrics controls the Prometheus endpoint.
type Metrics struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Listen  string `yaml:"listen" toml:"listen"`
}

// Logging mirrors logging.Config.
type Logging struct {
	Level     string `yaml:"level" toml:"level"`
	Format    string `yaml:"format" toml:"format"`
	AddSource bool   `yaml:"add_source" toml:"add_source"`
}

// Tracing mirrors observability.TracingConfig.
type Tracing struct {
	Enabled     bool    `yaml:"enabled" toml:"enabled"`
	ServiceName string  `yaml:"service_name" toml:"service_name"`
	Exporter    string  `yaml:"exporter" toml:"exporter"`
	Endpoint    string  `yaml:"endpoint" toml:"endpoint"`
	SampleRatio float64 `yaml:"sample_ratio" toml:"sample_ratio"`
}

// Geo anchors the local map frame. The zero value puts the origin at
// 0°N 0°E on the ellipsoid.
type Geo struct {
	OriginLat    float64 `yaml:"origin_lat" toml:"origin_lat"`
	OriginLon    float64 `yaml:"origin_lon" toml:"origin_lon"`
	OriginHeight float64 `yaml:"origin_height" toml:"origin_height"`
}

// Archive controls the SQLite track history.
type Archive struct {
	Enabled        bool   `yaml:"enabled" toml:"enabled"`
	Path           string `yaml:"path" toml:"path"`
	RetentionHours int    `yaml:"retention_hours" toml:"retention_hours"`
}

// Recording controls live capture files.
type Recording struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Dir     string `yaml:"dir" toml:"dir"`
}

// Config is the full trackd configuration.
type Config struct {
	Ingest    Ingest    `yaml:"ingest" toml:"ingest"`
	GRPC      GRPC      `yaml:"grpc" toml:"grpc"`
	Metrics   Metrics   `yaml:"metrics" toml:"metrics"`
	Logging   Logging   `yaml:"logging" toml:"logging"`
	Tracing   Tracing   `yaml:"tracing" toml:"tracing"`
	Geo       Geo       `yaml:"geo" toml:"geo"`
	Archive   Archive   `yaml:"archive" toml:"archive"`
	Recording Recording `yaml:"recording" toml:"recording"`
}

// Load reads the file at path over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
// Files ending in .toml are parsed as TOML, everything else as YAML.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := decode(path, data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv(os.Getenv)
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SampleConfig returns an annotated example configuration.
func SampleConfig() string {
	return sampleConfig
}

func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

func (c *Config) normalize() {
	c.Ingest.ByteOrder = strings.ToLower(strings.TrimSpace(c.Ingest.ByteOrder))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Tracing.Exporter = strings.ToLower(strings.TrimSpace(c.Tracing.Exporter))
}

// ByteOrder returns the wire byte order.
func (c *Config) ByteOrder() binary.ByteOrder {
	if c.Ingest.ByteOrder == "big" {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Location returns the zone header timestamps are expressed in.
func (c *Config) Location() (*time.Location, error) {
	if c.Ingest.TimeZone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Ingest.TimeZone)
}

// LoggingConfig converts to the logging package's config.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:     c.Logging.Level,
		Format:    c.Logging.Format,
		AddSource: c.Logging.AddSource,
	}
}

// TracingConfig converts to the observability package's config.
func (c *Config) TracingConfig() observability.TracingConfig {
	return observability.TracingConfig{
		Enabled:     c.Tracing.Enabled,
		ServiceName: c.Tracing.ServiceName,
		Exporter:    c.Tracing.Exporter,
		Endpoint:    c.Tracing.Endpoint,
		SampleRatio: c.Tracing.SampleRatio,
	}
}

// Retention returns the archive retention window, zero meaning forever.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Archive.RetentionHours) * time.Hour
}
