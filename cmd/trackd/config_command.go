package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/radar-track-ingest/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	configCmd.AddCommand(newConfigSampleCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	return configCmd
}

func newConfigSampleCommand() *cobra.Command {
	var target string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "sample",
		Short:       "Print or write an annotated sample configuration",
		Annotations: map[string]string{skipConfigLoad: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if target == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), config.SampleConfig())
				return err
			}
			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				}
			}
			if err := os.WriteFile(target, []byte(config.SampleConfig()), 0o644); err != nil {
				return fmt.Errorf("write sample config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&target, "path", "p", "", "Write to this file instead of stdout")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite an existing file")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rows := [][]string{
				{"byte order", cfg.Ingest.ByteOrder},
				{"max tracks", fmt.Sprint(cfg.Ingest.MaxTracks)},
				{"udp", cfg.Ingest.UDPListen},
				{"grpc", enabledAddr(cfg.GRPC.Enabled, cfg.GRPC.Listen)},
				{"metrics", enabledAddr(cfg.Metrics.Enabled, cfg.Metrics.Listen)},
				{"archive", enabledAddr(cfg.Archive.Enabled, cfg.Archive.Path)},
				{"recording", enabledAddr(cfg.Recording.Enabled, cfg.Recording.Dir)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{label("Setting"), label("Value")}, rows))
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration valid")
			return nil
		},
	}
}

func enabledAddr(enabled bool, addr string) string {
	if !enabled {
		return "disabled"
	}
	return addr
}
