package config

// Default values.
const (
	DefaultMaxTracks  = 512
	DefaultUDPListen  = ":6100"
	DefaultGRPCListen = ":6101"
	DefaultMetrics    = ":9464"
	DefaultWorkers    = 4
	DefaultQueueDepth = 1024
)

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Ingest: Ingest{
			ByteOrder:  "little",
			MaxTracks:  DefaultMaxTracks,
			UDPListen:  DefaultUDPListen,
			Workers:    DefaultWorkers,
			QueueDepth: DefaultQueueDepth,
		},
		GRPC: GRPC{
			Enabled: true,
			Listen:  DefaultGRPCListen,
		},
		Metrics: Metrics{
			Enabled: true,
			Listen:  DefaultMetrics,
		},
		Logging: Logging{
			Level: "info",
		},
		Tracing: Tracing{
			ServiceName: "trackd",
			Exporter:    "stdout",
			SampleRatio: 1,
		},
		Archive: Archive{
			Path: "data/tracks.db",
		},
		Recording: Recording{
			Dir: "data/captures",
		},
	}
}
