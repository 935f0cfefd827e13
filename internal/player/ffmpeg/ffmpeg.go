// Package ffmpeg implements player.Player on top of the ffmpeg binary,
// which acts as the external playback engine: demuxing, decoding, network
// fetching and the engine cache all happen inside the ffmpeg process.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"media-player/internal/player"
	"media-player/internal/source"
)

// Player implements player.Player using FFmpeg.
type Player struct {
	appCtx      player.AppContext
	cacheConfig *player.CacheConfig
	config      Config
	helper      *source.Helper
	launch      launchFunc
	logger      *log.Logger
	goos        string
	now         func() time.Time

	mu       sync.Mutex
	src      *source.MediaSource
	runCtx   context.Context
	proc     process
	cancel   context.CancelFunc
	gen      uint64
	paused   bool
	released bool
	listener player.EventListener

	looping bool
	volume  float64
	speed   float64

	// Position bookkeeping: offset is the media position the current
	// process started at, played the wall time it has spent unpaused
	// before resumedAt.
	startAt   time.Duration
	offset    time.Duration
	played    time.Duration
	resumedAt time.Time
}

var _ player.Player = (*Player)(nil)

// New creates a player bound to appCtx. cfg may be nil, in which case the
// engine plays without its cache. An invalid cfg is rejected here.
func New(appCtx player.AppContext, cfg *player.CacheConfig, opts ...Option) (*Player, error) {
	if appCtx == nil {
		return nil, errors.New("ffmpeg: nil app context")
	}
	if cfg != nil {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("ffmpeg: invalid cache config: %w", err)
		}
	}

	o := options{
		config: DefaultConfig(),
		logger: log.Default(),
		launch: launchExec,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Default()
	}
	if o.helper == nil {
		o.helper = source.Shared(appCtx)
	}

	return &Player{
		appCtx:      appCtx,
		cacheConfig: cfg,
		config:      o.config,
		helper:      o.helper,
		launch:      o.launch,
		logger:      o.logger.WithPrefix("ffmpeg"),
		goos:        runtime.GOOS,
		now:         time.Now,
		volume:      1,
		speed:       1,
	}, nil
}

// Name returns the player implementation name.
func (p *Player) Name() string {
	return "ffmpeg"
}

// AppContext returns the context the player was created with.
func (p *Player) AppContext() player.AppContext {
	return p.appCtx
}

// CacheConfig returns the cache configuration, or nil.
func (p *Player) CacheConfig() *player.CacheConfig {
	return p.cacheConfig
}

// MediaSource returns the resolved data source, or nil.
func (p *Player) MediaSource() *source.MediaSource {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.src
}

func (p *Player) SetDataSource(uri string, headers map[string]string) error {
	if uri == "" {
		return nil
	}
	useCache := p.cacheConfig != nil && p.cacheConfig.UseBuiltInCache()
	src, err := p.helper.MediaSource(uri, headers, useCache, p.cacheConfig)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return player.ErrReleased
	}
	p.src = src
	return nil
}

// Prepare launches the engine for the current data source. ctx bounds the
// lifetime of playback.
func (p *Player) Prepare(ctx context.Context) error {
	p.mu.Lock()
	if p.released {
		p.mu.Unlock()
		return player.ErrReleased
	}
	if p.src == nil {
		p.mu.Unlock()
		return player.ErrNoDataSource
	}
	p.stopLocked()
	p.runCtx = ctx
	startAt := p.startAt
	p.startAt = 0
	if err := p.launchLocked(startAt); err != nil {
		p.mu.Unlock()
		return err
	}
	l := p.listener
	p.mu.Unlock()

	if l != nil {
		l.OnPrepared()
		l.OnInfo(player.InfoRenderingStart, 0)
	}
	return nil
}

func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return player.ErrReleased
	}
	if p.proc == nil || !p.paused {
		return nil
	}
	if err := p.proc.Continue(); err != nil {
		return fmt.Errorf("resume FFmpeg: %w", err)
	}
	p.paused = false
	p.resumedAt = p.now()
	p.logger.Debug("resumed", "pid", p.proc.Pid())
	return nil
}

func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return player.ErrReleased
	}
	if p.proc == nil || p.paused {
		return nil
	}
	if err := p.proc.Suspend(); err != nil {
		return fmt.Errorf("pause FFmpeg: %w", err)
	}
	p.played += p.now().Sub(p.resumedAt)
	p.paused = true
	p.logger.Debug("paused", "pid", p.proc.Pid())
	return nil
}

func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.offset = 0
	return nil
}

func (p *Player) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.src = nil
	p.offset = 0
	p.startAt = 0
	return nil
}

func (p *Player) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.src = nil
	p.listener = nil
	p.released = true
	p.speed = 1
	return nil
}

func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.proc != nil && !p.paused
}

// SeekTo relaunches the engine at pos. Before Prepare the position is kept
// and used as the starting point.
func (p *Player) SeekTo(pos time.Duration) error {
	if pos < 0 {
		pos = 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return player.ErrReleased
	}
	if p.proc == nil {
		p.startAt = pos
		return nil
	}
	return p.relaunchLocked(pos)
}

func (p *Player) CurrentPosition() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

// SetVolume sets the output volume as the mean of both channels. It takes
// effect on the next launch.
func (p *Player) SetVolume(left, right float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = (left + right) / 2
}

// SetLooping takes effect on the next launch.
func (p *Player) SetLooping(looping bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.looping = looping
}

// SetSpeed changes the playback rate, relaunching a running engine at the
// current position. Non-positive speeds are ignored.
func (p *Player) SetSpeed(speed float64) {
	if speed <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.proc == nil {
		p.speed = speed
		return
	}
	pos := p.positionLocked()
	p.speed = speed
	if err := p.relaunchLocked(pos); err != nil {
		p.logger.Error("speed change failed", "speed", speed, "err", err)
	}
}

func (p *Player) Speed() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.speed
}

func (p *Player) SetEventListener(l player.EventListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listener = l
}

func (p *Player) launchLocked(offset time.Duration) error {
	spec := launchSpec{
		binary: p.config.Binary,
		args: buildArgs(p.config, p.goos, p.src, playback{
			offset:  offset,
			looping: p.looping,
			volume:  p.volume,
			speed:   p.speed,
		}),
	}
	if p.src.Cached() {
		dir, err := p.src.Cache.PartitionDir(p.src.CacheKey)
		if err != nil {
			return err
		}
		spec.dir = dir
		spec.env = []string{"TMPDIR=" + dir}
	}

	base := p.runCtx
	if base == nil {
		base = context.Background()
	}
	ctx, cancel := context.WithCancel(base)
	proc, err := p.launch(ctx, spec)
	if err != nil {
		cancel()
		return err
	}

	p.gen++
	p.proc = proc
	p.cancel = cancel
	p.paused = false
	p.offset = offset
	p.played = 0
	p.resumedAt = p.now()

	p.logger.Info("FFmpeg running", "pid", proc.Pid(), "uri", p.src.URI, "kind", p.src.Kind, "cached", p.src.Cached())
	go p.watch(proc, p.gen)
	return nil
}

func (p *Player) relaunchLocked(pos time.Duration) error {
	wasPaused := p.paused
	p.stopLocked()
	if err := p.launchLocked(pos); err != nil {
		return err
	}
	if wasPaused {
		if err := p.proc.Suspend(); err != nil {
			return fmt.Errorf("pause FFmpeg: %w", err)
		}
		p.paused = true
	}
	return nil
}

// stopLocked kills the running engine. Its exit is not reported to the
// listener.
func (p *Player) stopLocked() {
	if p.proc == nil {
		return
	}
	p.offset = p.positionLocked()
	p.gen++
	pid := p.proc.Pid()
	p.cancel()
	if err := p.proc.Kill(); err != nil {
		p.logger.Debug("kill", "pid", pid, "err", err)
	}
	p.proc = nil
	p.cancel = nil
	p.paused = false
	p.played = 0
	p.logger.Debug("stopped", "pid", pid)
}

func (p *Player) positionLocked() time.Duration {
	if p.proc == nil {
		return p.offset
	}
	wall := p.played
	if !p.paused {
		wall += p.now().Sub(p.resumedAt)
	}
	return p.offset + time.Duration(float64(wall)*p.speed)
}

// watch reports the exit of proc unless it was superseded.
func (p *Player) watch(proc process, gen uint64) {
	err := proc.Wait()

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return
	}
	p.offset = p.positionLocked()
	p.proc = nil
	p.cancel()
	p.cancel = nil
	p.paused = false
	cancelled := p.runCtx != nil && p.runCtx.Err() != nil
	l := p.listener
	p.mu.Unlock()

	if cancelled {
		p.logger.Info("Stopping...", "reason", "context done")
		return
	}
	if err != nil {
		p.logger.Error("FFmpeg exited", "err", err)
		if l != nil {
			l.OnError(fmt.Errorf("FFmpeg exited: %w", err))
		}
		return
	}
	p.logger.Info("Playback finished.")
	if l != nil {
		l.OnCompletion()
	}
}
