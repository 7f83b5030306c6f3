package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/signalsfoundry/radar-track-ingest/internal/archive"
	"github.com/signalsfoundry/radar-track-ingest/internal/config"
	"github.com/signalsfoundry/radar-track-ingest/internal/ingest"
	"github.com/signalsfoundry/radar-track-ingest/internal/logging"
	"github.com/signalsfoundry/radar-track-ingest/internal/observability"
	"github.com/signalsfoundry/radar-track-ingest/internal/playback"
	"github.com/signalsfoundry/radar-track-ingest/internal/transport"
	"github.com/signalsfoundry/radar-track-ingest/kb"
	"github.com/signalsfoundry/radar-track-ingest/protocol"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Receive track-report frames over UDP and gRPC",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log := ctx.logger(cmd)
			dec, err := ctx.decoder()
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			tracing, err := observability.InitTracing(runCtx, cfg.TracingConfig(), log)
			if err != nil {
				return fmt.Errorf("init tracing: %w", err)
			}
			defer tracing.Close(context.Background())

			d, err := newDaemon(runCtx, cfg, dec, log, prometheus.DefaultRegisterer)
			if err != nil {
				return err
			}
			defer d.close(context.Background())
			return d.run(runCtx)
		},
	}
}

// daemon owns the live ingest pipeline:
// listeners -> [recording] -> dispatcher -> [archive] -> track file.
type daemon struct {
	cfg       *config.Config
	log       logging.Logger
	collector *observability.IngestCollector

	tracks   *kb.TrackFile
	archive  *archive.Archive
	recorder *playback.Recorder
	manager  *playback.Manager
	sink     ingest.FrameSink
}

func newDaemon(ctx context.Context, cfg *config.Config, dec *protocol.Decoder, log logging.Logger, reg prometheus.Registerer) (*daemon, error) {
	collector, err := observability.NewIngestCollector(reg)
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	d := &daemon{
		cfg:       cfg,
		log:       log,
		collector: collector,
		manager:   playback.NewManager(),
	}
	d.tracks = kb.NewTrackFile(cfg.Ingest.MaxTracks, kb.WithMetricsRecorder(collector))
	d.tracks.Subscribe(func(ev kb.Event) {
		if ev.Type == kb.EventTrackEvicted {
			log.Info(context.Background(), "track file full, evicted stalest track", logging.Uint16("target", ev.ID))
		}
	})

	var store ingest.TrackStore = d.tracks
	if cfg.Archive.Enabled {
		a, err := archive.Open(ctx, cfg.Archive.Path)
		if err != nil {
			return nil, err
		}
		d.archive = a
		store = archive.NewArchivingStore(store, a, log)
	}

	d.sink = ingest.NewDispatcher(dec, store, d.manager, log, ingest.WithMetrics(collector))

	if cfg.Recording.Enabled {
		rec, err := playback.NewRecorder(cfg.Recording.Dir)
		if err != nil {
			d.close(ctx)
			return nil, err
		}
		d.recorder = rec
		d.sink = playback.NewRecordingSink(d.sink, rec, d.manager, log)
		log.Info(ctx, "recording live frames", logging.String("capture", rec.Path()))
	}
	return d, nil
}

// run serves until ctx is cancelled, then drains every listener.
func (d *daemon) run(ctx context.Context) error {
	udp, err := d.listenUDP()
	if err != nil {
		return err
	}
	return d.serve(ctx, udp)
}

func (d *daemon) listenUDP() (*transport.UDPListener, error) {
	return transport.ListenUDP(d.cfg.Ingest.UDPListen, d.sink, d.log,
		transport.WithWorkers(d.cfg.Ingest.Workers),
		transport.WithQueueDepth(d.cfg.Ingest.QueueDepth),
		transport.WithDatagramMetrics(d.collector),
	)
}

// serve returns only after udp.Serve has drained its workers, so every
// queued frame reaches the archive before close runs.
func (d *daemon) serve(ctx context.Context, udp *transport.UDPListener) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	udpDone := make(chan error, 1)
	go func() { udpDone <- udp.Serve(ctx) }()

	var grpcSrv *transport.Server
	grpcErrs := make(chan error, 1)
	if d.cfg.GRPC.Enabled {
		lis, err := net.Listen("tcp", d.cfg.GRPC.Listen)
		if err != nil {
			stop()
			<-udpDone
			return fmt.Errorf("listen grpc %s: %w", d.cfg.GRPC.Listen, err)
		}
		grpcSrv = transport.NewServer(d.sink, d.log, d.collector)
		d.log.Info(ctx, "starting gRPC server", logging.String("addr", lis.Addr().String()))
		go func() {
			if err := grpcSrv.Serve(lis); err != nil {
				grpcErrs <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	var metricsSrv *http.Server
	if d.cfg.Metrics.Enabled {
		metricsSrv = serveMetrics(d.cfg.Metrics.Listen, d.collector, d.log)
	}

	if d.archive != nil && d.cfg.Retention() > 0 {
		go d.pruneLoop(ctx, d.cfg.Retention())
	}

	var runErr error
	udpFinished := false
	select {
	case <-ctx.Done():
	case runErr = <-grpcErrs:
	case runErr = <-udpDone:
		udpFinished = true
	}

	d.log.Info(context.Background(), "shutting down trackd")
	stop()
	if grpcSrv != nil {
		grpcSrv.Stop()
	}
	if !udpFinished {
		if err := <-udpDone; err != nil && runErr == nil {
			runErr = err
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return runErr
}

func (d *daemon) pruneLoop(ctx context.Context, retention time.Duration) {
	interval := retention / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			d.prune(ctx, now.Add(-retention))
		}
	}
}

func (d *daemon) prune(ctx context.Context, cutoff time.Time) {
	n, err := d.archive.Prune(ctx, cutoff)
	if err != nil {
		d.log.Warn(ctx, "archive prune failed", logging.Err(err))
		return
	}
	if n > 0 {
		d.log.Info(ctx, "pruned archived track events", logging.Any("rows", n), logging.String("cutoff", cutoff.Format(time.RFC3339)))
	}
}

func (d *daemon) close(ctx context.Context) {
	if d.recorder != nil {
		if err := d.recorder.Close(); err != nil {
			d.log.Warn(ctx, "closing capture failed", logging.Err(err))
		} else {
			d.log.Info(ctx, "capture closed", logging.String("capture", d.recorder.Path()), logging.Int("frames", d.recorder.Entries()))
		}
		d.recorder = nil
	}
	if d.archive != nil {
		if err := d.archive.Close(); err != nil {
			d.log.Warn(ctx, "closing archive failed", logging.Err(err))
		}
		d.archive = nil
	}
}

func serveMetrics(addr string, collector *observability.IngestCollector, log logging.Logger) *http.Server {
	if collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
