package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/radar-track-ingest/internal/ingest"
	"github.com/signalsfoundry/radar-track-ingest/internal/logging"
	"github.com/signalsfoundry/radar-track-ingest/internal/playback"
	"github.com/signalsfoundry/radar-track-ingest/kb"
	"github.com/signalsfoundry/radar-track-ingest/timectrl"
)

func newReplayCommand(ctx *commandContext) *cobra.Command {
	var speed float64
	var fast bool
	var filter []uint

	cmd := &cobra.Command{
		Use:   "replay <capture.trk>",
		Short: "Replay a recorded capture into a fresh track file",
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
			log := ctx.logger(cmd)

			mode := timectrl.RealTime
			if fast {
				mode = timectrl.Accelerated
			}
			clock := timectrl.NewTimeController(mode, speed)

			manager := playback.NewManager()
			if len(filter) > 0 {
				ids := make([]uint16, 0, len(filter))
				for _, id := range filter {
					if id > 0xFFFF {
						return fmt.Errorf("filter id %d out of range", id)
					}
					ids = append(ids, uint16(id))
				}
				manager.SetFilter(ids...)
			}

			tracks := kb.NewTrackFile(cfg.Ingest.MaxTracks)
			dispatcher := ingest.NewDispatcher(dec, tracks, manager, log)
			replayer := playback.NewReplayer(dispatcher, manager, clock, log)

			stats, err := replayer.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]column{num("Frames"), num("Rejected"), num("Upserts"), num("Deletes"), num("Filtered"), num("Span")},
				[][]string{{
					strconv.Itoa(stats.Frames),
					strconv.Itoa(stats.Rejected),
					strconv.Itoa(stats.Upserts),
					strconv.Itoa(stats.Deletes),
					strconv.Itoa(stats.Filtered),
					stats.Last.Sub(stats.First).Round(time.Millisecond).String(),
				}},
			))

			list := tracks.List()
			rows := make([][]string, 0, len(list))
			for _, t := range list {
				rows = append(rows, recordRow(t.TrackRecord))
			}
			fmt.Fprintln(out, renderTable(recordColumns, rows))
			log.Debug(cmd.Context(), "replay summary printed", logging.Int("tracks", len(list)))
			return nil
		},
	}

	cmd.Flags().Float64Var(&speed, "speed", 1, "Playback speed multiplier for real-time pacing")
	cmd.Flags().BoolVar(&fast, "fast", false, "Replay without pacing")
	cmd.Flags().UintSliceVar(&filter, "filter", nil, "Only keep these target ids (repeatable or comma separated)")
	return cmd
}
