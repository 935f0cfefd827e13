// Package cmd implements the media-player command line.
package cmd

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"media-player/internal/config"
	"media-player/internal/logging"
)

var (
	// Version is set at build time.
	Version = "dev"

	configFile string
	logLevel   string

	cfg    *config.Config
	logger *log.Logger

	rootCmd = &cobra.Command{
		Use:           "media-player",
		Short:         "Play media URLs through ffmpeg with an optional engine cache",
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cfg, err = config.Load(configFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = logLevel
			}
			logger, err = logging.Setup(os.Stderr, cfg.Log.Level)
			return err
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: media-player.yaml in the user config directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(playCmd, serveCmd, configCmd)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error("media-player failed", "err", err)
		os.Exit(1)
	}
}
