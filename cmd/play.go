package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"media-player/internal/config"
	"media-player/internal/player"
	"media-player/internal/player/ffmpeg"
	"media-player/pkg/deps"
)

var (
	playHeaders []string
	playStartAt time.Duration
	playLoop    bool
	playVolume  float64
	playSpeed   float64
	playNoCache bool

	playCmd = &cobra.Command{
		Use:   "play URL",
		Short: "Play a single media URL until it ends or is interrupted",
		Example: `  media-player play https://example.com/episode.mp3
  media-player play -H "Authorization: Bearer abc" --start 1m30s https://cdn.example.com/a.m4a`,
		Args: cobra.ExactArgs(1),
		RunE: runPlay,
	}
)

func init() {
	f := playCmd.Flags()
	f.StringArrayVarP(&playHeaders, "header", "H", nil, `request header "Key: Value" (repeatable)`)
	f.DurationVar(&playStartAt, "start", 0, "start position")
	f.BoolVar(&playLoop, "loop", false, "loop playback")
	f.Float64Var(&playVolume, "volume", 1, "volume multiplier")
	f.Float64Var(&playSpeed, "speed", 1, "playback speed")
	f.BoolVar(&playNoCache, "no-cache", false, "ignore the configured engine cache")
}

// newFactory builds the ffmpeg factory and application context from the
// loaded configuration, after checking the engine binary is installed.
func newFactory(c *config.Config, l *log.Logger) (*ffmpeg.Factory, player.AppContext, error) {
	if err := deps.NewChecker(c.Engine.Binary).Check(l); err != nil {
		return nil, nil, err
	}

	appCtx, err := c.AppContext()
	if err != nil {
		return nil, nil, err
	}
	cacheCfg, err := c.CacheConfig()
	if err != nil {
		return nil, nil, err
	}

	f := ffmpeg.Create(
		ffmpeg.WithConfig(c.EngineConfig()),
		ffmpeg.WithLogger(l),
	).SetCacheConfig(cacheCfg)
	return f, appCtx, nil
}

func parseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		k, v, ok := strings.Cut(h, ":")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid header %q, want \"Key: Value\"", h)
		}
		headers[k] = strings.TrimSpace(v)
	}
	return headers, nil
}

// playbackWaiter turns player callbacks into a single terminal result.
type playbackWaiter struct {
	logger *log.Logger
	done   chan error
}

func (w *playbackWaiter) OnPrepared()   { w.logger.Info("playback started") }
func (w *playbackWaiter) OnCompletion() { w.finish(nil) }
func (w *playbackWaiter) OnError(err error) {
	w.finish(err)
}

func (w *playbackWaiter) OnInfo(what, extra int) {
	switch what {
	case player.InfoBufferingStart:
		w.logger.Info("buffering")
	case player.InfoBufferingEnd:
		w.logger.Info("buffering done")
	}
}

func (w *playbackWaiter) finish(err error) {
	select {
	case w.done <- err:
	default:
	}
}

func runPlay(cmd *cobra.Command, args []string) error {
	headers, err := parseHeaders(playHeaders)
	if err != nil {
		return err
	}

	factory, appCtx, err := newFactory(cfg, logger)
	if err != nil {
		return err
	}
	if playNoCache {
		factory.SetCacheConfig(nil)
	}

	p, err := factory.CreatePlayer(appCtx)
	if err != nil {
		return fmt.Errorf("create player: %w", err)
	}
	defer p.Release()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	waiter := &playbackWaiter{logger: logger, done: make(chan error, 1)}
	p.SetEventListener(waiter)
	p.SetLooping(playLoop)
	p.SetVolume(playVolume, playVolume)
	p.SetSpeed(playSpeed)

	if err := p.SetDataSource(args[0], headers); err != nil {
		return err
	}
	if src := p.MediaSource(); src != nil {
		logger.Info("source", "uri", src.URI, "kind", src.Kind, "cached", src.Cached())
	}
	if playStartAt > 0 {
		if err := p.SeekTo(playStartAt); err != nil {
			return err
		}
	}
	if err := p.Prepare(ctx); err != nil {
		return err
	}

	logger.Info("press Ctrl+C to stop")
	select {
	case err := <-waiter.done:
		if err != nil {
			return err
		}
		logger.Info("playback finished", "position", p.CurrentPosition().Round(time.Second))
		return nil
	case <-ctx.Done():
		logger.Info("interrupted", "position", p.CurrentPosition().Round(time.Second))
		if err := context.Cause(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}
