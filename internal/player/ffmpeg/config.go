package ffmpeg

import (
	"github.com/charmbracelet/log"

	"media-player/internal/source"
)

// Config holds engine output settings.
type Config struct {
	Binary     string // FFmpeg executable (default: "ffmpeg")
	Channels   int    // Number of audio channels (default: 2)
	SampleRate int    // Sample rate in Hz (default: 48000)
	Device     string // Output device (default: "default")
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		Binary:     "ffmpeg",
		Channels:   2,
		SampleRate: 48000,
		Device:     "default",
	}
}

type options struct {
	config Config
	logger *log.Logger
	helper *source.Helper
	launch launchFunc
}

// Option customizes a Player.
type Option func(*options)

func WithBinary(path string) Option {
	return func(o *options) { o.config.Binary = path }
}

func WithDevice(device string) Option {
	return func(o *options) { o.config.Device = device }
}

func WithChannels(n int) Option {
	return func(o *options) { o.config.Channels = n }
}

func WithSampleRate(hz int) Option {
	return func(o *options) { o.config.SampleRate = hz }
}

// WithConfig replaces every engine output setting at once.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.config = cfg }
}

func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHelper sets the source helper. Without it the process-wide helper
// for the player's context is used.
func WithHelper(h *source.Helper) Option {
	return func(o *options) { o.helper = h }
}

func withLauncher(fn launchFunc) Option {
	return func(o *options) { o.launch = fn }
}
