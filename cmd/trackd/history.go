package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/radar-track-ingest/internal/archive"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var path string

	cmd := &cobra.Command{
		Use:   "history <target-id>",
		Short: "Show archived events for one target, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			id, err := strconv.ParseUint(args[0], 10, 16)
			if err != nil {
				return fmt.Errorf("invalid target id %q: %w", args[0], err)
			}
			if path == "" {
				path = cfg.Archive.Path
			}

			a, err := archive.Open(cmd.Context(), path)
			if err != nil {
				return err
			}
			defer a.Close()

			events, err := a.History(cmd.Context(), uint16(id), limit)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No archived events for target %d\n", id)
				return nil
			}

			rows := make([][]string, 0, len(events))
			for _, ev := range events {
				rows = append(rows, []string{
					ev.RecordedAt.UTC().Format("2006-01-02 15:04:05.000"),
					ev.Action,
					strconv.Itoa(int(ev.StationID)),
					strconv.FormatFloat(ev.Range, 'f', 1, 64),
					strconv.FormatFloat(ev.Azimuth, 'f', 3, 64),
					strconv.FormatFloat(ev.Elevation, 'f', 3, 64),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]column{label("Time"), label("Action"), num("Station"), num("Range (m)"), num("Az (°)"), num("El (°)")},
				rows,
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum events to show")
	cmd.Flags().StringVar(&path, "db", "", "Archive database (defaults to archive.path)")
	return cmd
}
