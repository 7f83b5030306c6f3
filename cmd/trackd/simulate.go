package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/radar-track-ingest/core"
	"github.com/signalsfoundry/radar-track-ingest/internal/logging"
	"github.com/signalsfoundry/radar-track-ingest/internal/playback"
	"github.com/signalsfoundry/radar-track-ingest/internal/transport"
	"github.com/signalsfoundry/radar-track-ingest/model"
	"github.com/signalsfoundry/radar-track-ingest/protocol"
)

// scenario describes synthetic traffic: targets flying straight lines
// outward from the station, one frame per interval.
type scenario struct {
	Station  uint16
	Targets  int
	Frames   int
	Interval time.Duration
	Start    time.Time

	// Site is the radar position in degrees and metres; target ECEF
	// positions are placed relative to it.
	SiteLat, SiteLon, SiteHeight float64

	// Drop marks every target lost in a final extra frame.
	Drop bool
}

type stampedFrame struct {
	At    time.Time
	Frame []byte
}

func (s scenario) build(enc *protocol.Encoder) []stampedFrame {
	out := make([]stampedFrame, 0, s.Frames+1)
	for k := 0; k < s.Frames; k++ {
		at := s.Start.Add(time.Duration(k) * s.Interval)
		items := make([]model.WireTrackItem, 0, s.Targets)
		for i := 0; i < s.Targets; i++ {
			items = append(items, protocol.Quantize(s.target(i, at, model.StatusTracking)))
		}
		out = append(out, stampedFrame{At: at, Frame: enc.EncodeFrame(s.header(k, at), items, protocol.Trailer{})})
	}
	if s.Drop && s.Targets > 0 {
		at := s.Start.Add(time.Duration(s.Frames) * s.Interval)
		items := make([]model.WireTrackItem, 0, s.Targets)
		for i := 0; i < s.Targets; i++ {
			items = append(items, protocol.Quantize(s.target(i, at, model.StatusLost)))
		}
		out = append(out, stampedFrame{At: at, Frame: enc.EncodeFrame(s.header(s.Frames, at), items, protocol.Trailer{})})
	}
	return out
}

func (s scenario) header(seq int, at time.Time) model.FrameHeader {
	return model.FrameHeader{
		MsgCode:   protocol.SyncCode,
		Command:   protocol.CommandTrackReport,
		Sequence:  uint16(seq),
		StationID: s.Station,
		Sensor:    model.SensorFused,
		BCD:       protocol.BCDFromTime(at),
		Ticks:     uint16(time.Duration(at.Nanosecond()) / protocol.TickDuration),
	}
}

func (s scenario) target(i int, at time.Time, status model.Status) model.TrackRecord {
	const speed = 150.0 // m/s
	elapsed := at.Sub(s.Start).Seconds()
	heading := math.Mod(float64(i)*37.0, 360.0)
	midnight := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
	rng := 5000 + 1000*float64(i) + speed*elapsed
	elev := 2 + float64(i%5)

	return model.TrackRecord{
		StationID:      s.Station,
		Sensor:         model.SensorFused,
		ID:             uint16(i + 1),
		Hits:           uint16(elapsed/s.Interval.Seconds()) + 1,
		Status:         status,
		Quality:        10,
		TimeOfDay:      at.Sub(midnight),
		Range:          rng,
		Azimuth:        heading,
		Elevation:      elev,
		RadialVelocity: speed,
		Speed:          speed,
		Course:         heading,
		ECEF:           s.ecef(rng, heading, elev),
	}
}

// ecef offsets a target from the site on a flat earth, which is plenty
// for tens of kilometres of synthetic traffic.
func (s scenario) ecef(rng, az, el float64) model.Position {
	const metersPerDegree = 111320.0
	azr, elr := az*math.Pi/180, el*math.Pi/180
	ground := rng * math.Cos(elr)
	lat := s.SiteLat + ground*math.Cos(azr)/metersPerDegree
	lon := s.SiteLon + ground*math.Sin(azr)/(metersPerDegree*math.Cos(s.SiteLat*math.Pi/180))
	p := core.GeodeticToECEF(lat, lon, s.SiteHeight+rng*math.Sin(elr))
	return model.Position{X: p.X, Y: p.Y, Z: p.Z}
}

func newSimulateCommand(ctx *commandContext) *cobra.Command {
	var (
		sc       scenario
		addr     string
		useGRPC  bool
		record   string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Send synthetic track-report frames to a running trackd",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log := ctx.logger(cmd)
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			if sc.Frames < 1 {
				return fmt.Errorf("frames must be at least 1")
			}
			if sc.Targets < 1 || sc.Targets > cfg.Ingest.MaxTracks {
				return fmt.Errorf("targets must be between 1 and %d", cfg.Ingest.MaxTracks)
			}

			sc.Interval = interval
			if sc.Interval <= 0 {
				sc.Interval = time.Second
			}
			sc.Start = time.Now().In(loc).Truncate(time.Millisecond)
			sc.SiteLat, sc.SiteLon, sc.SiteHeight = cfg.Geo.OriginLat, cfg.Geo.OriginLon, cfg.Geo.OriginHeight
			frames := sc.build(protocol.NewEncoder(cfg.ByteOrder()))

			out := cmd.OutOrStdout()
			switch {
			case record != "":
				if err := writeCapture(record, frames); err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote %d frames to %s\n", len(frames), record)
				return nil
			case useGRPC:
				if addr == "" {
					addr = dialable(cfg.GRPC.Listen)
				}
				return sendGRPC(cmd.Context(), log, addr, frames, sc.Interval, out)
			default:
				if addr == "" {
					addr = dialable(cfg.Ingest.UDPListen)
				}
				return sendUDP(cmd.Context(), log, addr, frames, sc.Interval, out)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Destination address (defaults to the configured listener)")
	cmd.Flags().BoolVar(&useGRPC, "grpc", false, "Submit over gRPC instead of UDP")
	cmd.Flags().StringVar(&record, "record", "", "Write a capture file instead of sending")
	cmd.Flags().IntVar(&sc.Frames, "frames", 10, "Number of frames")
	cmd.Flags().IntVar(&sc.Targets, "targets", 3, "Targets per frame")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Time between frames")
	cmd.Flags().Uint16Var(&sc.Station, "station", 1, "Station id stamped in headers")
	cmd.Flags().BoolVar(&sc.Drop, "drop", true, "Finish with a frame marking every target lost")
	return cmd
}

func writeCapture(path string, frames []stampedFrame) error {
	rec, err := playback.CreateCapture(path)
	if err != nil {
		return err
	}
	for _, f := range frames {
		if err := rec.Write(f.At, f.Frame); err != nil {
			_ = rec.Close()
			return err
		}
	}
	return rec.Close()
}

func sendUDP(ctx context.Context, log logging.Logger, addr string, frames []stampedFrame, interval time.Duration, out io.Writer) error {
	for i, f := range frames {
		if i > 0 {
			if err := wait(ctx, interval); err != nil {
				return err
			}
		}
		if err := transport.SendUDP(ctx, addr, f.Frame); err != nil {
			return err
		}
		log.Debug(ctx, "frame sent", logging.Int("seq", i), logging.String("addr", addr))
	}
	fmt.Fprintf(out, "Sent %d frames to udp://%s\n", len(frames), addr)
	return nil
}

func sendGRPC(ctx context.Context, log logging.Logger, addr string, frames []stampedFrame, interval time.Duration, out io.Writer) error {
	conn, err := transport.Dial(addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	client := transport.NewFrameIngestClient(conn)

	var upserts, deletes int
	for i, f := range frames {
		if i > 0 {
			if err := wait(ctx, interval); err != nil {
				return err
			}
		}
		reply, err := client.Submit(ctx, f.Frame)
		if err != nil {
			return fmt.Errorf("submit frame %d: %w", i, err)
		}
		upserts += reply.Upserts
		deletes += reply.Deletes
		log.Debug(ctx, "frame submitted", logging.Int("seq", int(reply.Sequence)), logging.Int("records", reply.Records))
	}
	fmt.Fprintf(out, "Submitted %d frames to %s (%d upserts, %d deletes)\n", len(frames), addr, upserts, deletes)
	return nil
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// dialable turns a listen address such as ":6100" into one a client can
// dial on this host.
func dialable(listen string) string {
	if strings.HasPrefix(listen, ":") {
		return "127.0.0.1" + listen
	}
	if strings.HasPrefix(listen, "0.0.0.0:") {
		return "127.0.0.1" + strings.TrimPrefix(listen, "0.0.0.0")
	}
	return listen
}
