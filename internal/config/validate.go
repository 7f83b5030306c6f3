package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/signalsfoundry/radar-track-ingest/internal/observability"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateTracing(); err != nil {
		return err
	}
	if err := c.validateGeo(); err != nil {
		return err
	}
	if c.Archive.Enabled && c.Archive.Path == "" {
		return errors.New("archive.path must be set when the archive is enabled")
	}
	if c.Archive.RetentionHours < 0 {
		return errors.New("archive.retention_hours must not be negative")
	}
	if c.Recording.Enabled && c.Recording.Dir == "" {
		return errors.New("recording.dir must be set when recording is enabled")
	}
	if c.GRPC.Enabled && c.GRPC.Listen == "" {
		return errors.New("grpc.listen must be set when gRPC is enabled")
	}
	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		return errors.New("metrics.listen must be set when metrics are enabled")
	}
	return nil
}

func (c *Config) validateIngest() error {
	switch c.Ingest.ByteOrder {
	case "little", "big":
	default:
		return fmt.Errorf("ingest.byte_order must be little or big, got %q", c.Ingest.ByteOrder)
	}
	if c.Ingest.MaxTracks <= 0 || c.Ingest.MaxTracks > 0xFFFF {
		return fmt.Errorf("ingest.max_tracks must be between 1 and 65535, got %d", c.Ingest.MaxTracks)
	}
	if c.Ingest.Workers <= 0 {
		return errors.New("ingest.workers must be positive")
	}
	if c.Ingest.QueueDepth <= 0 {
		return errors.New("ingest.queue_depth must be positive")
	}
	if c.Ingest.TimeZone != "" {
		if _, err := time.LoadLocation(c.Ingest.TimeZone); err != nil {
			return fmt.Errorf("ingest.time_zone: %w", err)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("logging.format %q is not json or text", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateTracing() error {
	if !c.Tracing.Enabled {
		return nil
	}
	if _, err := observability.ParseExporter(c.Tracing.Exporter); err != nil {
		return fmt.Errorf("tracing.exporter %q is not stdout or otlp", c.Tracing.Exporter)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return errors.New("tracing.sample_ratio must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateGeo() error {
	if c.Geo.OriginLat < -90 || c.Geo.OriginLat > 90 {
		return fmt.Errorf("geo.origin_lat %v out of range", c.Geo.OriginLat)
	}
	if c.Geo.OriginLon < -180 || c.Geo.OriginLon > 180 {
		return fmt.Errorf("geo.origin_lon %v out of range", c.Geo.OriginLon)
	}
	return nil
}
