package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"media-player/internal/config"
	"media-player/internal/source"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printConfig(cmd.OutOrStdout(), cfg)
	},
}

func printConfig(w io.Writer, c *config.Config) error {
	appCtx, err := c.AppContext()
	if err != nil {
		return err
	}
	maxBytes, err := c.CacheMaxBytes()
	if err != nil {
		return err
	}

	cacheDir := c.Cache.Dir
	if cacheDir == "" {
		cacheDir = filepath.Join(appCtx.CacheDir(), source.DefaultCacheDirName)
	}
	key := c.Cache.Key
	if key == "" {
		key = config.KeyURI
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	rows := [][2]string{
		{"app.name", appCtx.AppName()},
		{"app.cache_root", appCtx.CacheDir()},
		{"log.level", c.Log.Level},
		{"engine.binary", c.Engine.Binary},
		{"engine.device", c.Engine.Device},
		{"engine.channels", fmt.Sprint(c.Engine.Channels)},
		{"engine.sample_rate", fmt.Sprint(c.Engine.SampleRate)},
		{"cache.enabled", fmt.Sprint(c.Cache.Enabled)},
		{"cache.dir", cacheDir},
		{"cache.max_size", fmt.Sprintf("%s (%d bytes)", humanize.IBytes(uint64(maxBytes)), maxBytes)},
		{"cache.key", key},
		{"server.addr", c.Server.Addr},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", r[0], r[1])
	}
	return tw.Flush()
}
