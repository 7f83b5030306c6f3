package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/radar-track-ingest/internal/playback"
	"github.com/signalsfoundry/radar-track-ingest/model"
	"github.com/signalsfoundry/radar-track-ingest/protocol"
)

func newDecodeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <frame-file|capture.trk>",
		Short: "Decode a raw frame or every frame of a capture and print its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dec, err := ctx.decoder()
			if err != nil {
				return err
			}

			path := args[0]
			out := cmd.OutOrStdout()
			if !strings.EqualFold(filepath.Ext(path), playback.CaptureExt) {
				buf, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read frame: %w", err)
				}
				return printFrame(out, dec, buf, cfg.Ingest.MaxTracks)
			}

			r, err := playback.OpenCapture(path)
			if err != nil {
				return err
			}
			defer r.Close()
			for {
				e, err := r.Next()
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "@ %s\n", e.Time.UTC().Format("2006-01-02T15:04:05.000Z"))
				if err := printFrame(out, dec, e.Frame, cfg.Ingest.MaxTracks); err != nil {
					fmt.Fprintf(out, "rejected: %v\n", err)
				}
			}
		},
	}
}

func printFrame(out io.Writer, dec *protocol.Decoder, buf []byte, maxTracks int) error {
	frame, err := dec.DecodeFrame(buf, maxTracks)
	if err != nil {
		return err
	}
	hdr := frame.Header
	ts := "invalid"
	if !hdr.Timestamp.IsZero() {
		ts = hdr.Timestamp.Format("2006-01-02 15:04:05.000000 MST")
	}
	fmt.Fprintf(out, "station %d  sensor %s  seq %d  time %s  targets %d\n",
		hdr.StationID, hdr.Sensor, hdr.Sequence, ts, frame.Count)

	rows := make([][]string, 0, frame.Count)
	off := protocol.RecordsOffset
	for i := 0; i < frame.Count; i++ {
		rec := dec.DecodeRecord(hdr, buf[off:off+protocol.RecordSize])
		off += protocol.RecordSize
		rows = append(rows, recordRow(rec))
	}
	fmt.Fprintln(out, renderTable(recordColumns, rows))
	return nil
}

var recordColumns = []column{
	num("ID"), label("Status"), num("Range (m)"), num("Az (°)"), num("El (°)"),
	num("Speed (m/s)"), num("Course (°)"), num("Lat"), num("Lon"), num("Height (m)"),
}

func recordRow(rec model.TrackRecord) []string {
	f := func(v float64, prec int) string { return strconv.FormatFloat(v, 'f', prec, 64) }
	return []string{
		strconv.Itoa(int(rec.ID)),
		rec.Status.String(),
		f(rec.Range, 1),
		f(rec.Azimuth, 3),
		f(rec.Elevation, 3),
		f(rec.Speed, 1),
		f(rec.Course, 1),
		f(rec.Latitude, 6),
		f(rec.Longitude, 6),
		f(rec.Height, 1),
	}
}
