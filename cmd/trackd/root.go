package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/radar-track-ingest/core"
	"github.com/signalsfoundry/radar-track-ingest/internal/config"
	"github.com/signalsfoundry/radar-track-ingest/internal/logging"
	"github.com/signalsfoundry/radar-track-ingest/protocol"
)

const skipConfigLoad = "skipConfigLoad"

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

// logger builds a logger writing to the command's stderr.
func (c *commandContext) logger(cmd *cobra.Command) logging.Logger {
	cfg, err := c.ensureConfig()
	if err != nil || cfg == nil {
		return logging.New(logging.Config{Output: cmd.ErrOrStderr()})
	}
	lc := cfg.LoggingConfig()
	lc.Output = cmd.ErrOrStderr()
	return logging.New(lc)
}

// decoder builds a frame decoder from the ingest and geo settings.
func (c *commandContext) decoder() (*protocol.Decoder, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return protocol.NewDecoder(
		protocol.WithByteOrder(cfg.ByteOrder()),
		protocol.WithLocation(loc),
		protocol.WithGeoTransform(core.NewMapProjection(cfg.Geo.OriginLat, cfg.Geo.OriginLon, cfg.Geo.OriginHeight)),
	), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipConfigLoad] == "true" {
			return true
		}
	}
	return false
}

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "trackd",
		Short:         "Radar track-report ingest daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (.yaml or .toml)")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newDecodeCommand(ctx))
	rootCmd.AddCommand(newReplayCommand(ctx))
	rootCmd.AddCommand(newSimulateCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
