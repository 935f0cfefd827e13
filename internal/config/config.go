// Package config loads media-player settings from a YAML file and
// MEDIA_PLAYER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"

	"media-player/internal/player"
	"media-player/internal/player/ffmpeg"
)

const (
	// AppName names the config file, the env prefix and the user dirs.
	AppName = "media-player"

	envPrefix = "MEDIA_PLAYER"
)

// Key strategy names accepted by cache.key.
const (
	KeyURI        = "uri"
	KeyStripQuery = "strip-query"
)

type Config struct {
	App    AppSettings    `mapstructure:"app"`
	Log    LogSettings    `mapstructure:"log"`
	Engine EngineSettings `mapstructure:"engine"`
	Cache  CacheSettings  `mapstructure:"cache"`
	Server ServerSettings `mapstructure:"server"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	// CacheRoot overrides the per-user cache directory.
	CacheRoot string `mapstructure:"cache_root"`
}

type LogSettings struct {
	Level string `mapstructure:"level"`
}

type EngineSettings struct {
	Binary     string `mapstructure:"binary"`
	Device     string `mapstructure:"device"`
	Channels   int    `mapstructure:"channels"`
	SampleRate int    `mapstructure:"sample_rate"`
}

type CacheSettings struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
	MaxSize string `mapstructure:"max_size"` // e.g. "512MiB"
	Key     string `mapstructure:"key"`      // "uri" or "strip-query"
}

type ServerSettings struct {
	Addr string `mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	engine := ffmpeg.DefaultConfig()

	v.SetDefault("app.name", AppName)
	v.SetDefault("app.cache_root", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("engine.binary", engine.Binary)
	v.SetDefault("engine.device", engine.Device)
	v.SetDefault("engine.channels", engine.Channels)
	v.SetDefault("engine.sample_rate", engine.SampleRate)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.max_size", humanize.IBytes(uint64(player.DefaultCacheMaxBytes)))
	v.SetDefault("cache.key", KeyURI)
	v.SetDefault("server.addr", ":8180")
}

// Load reads path, or media-player.yaml from the user config directories
// when path is empty. A missing file in the default locations is not an
// error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		scope := gap.NewScope(gap.User, AppName)
		dirs, err := scope.ConfigDirs()
		if err != nil {
			return nil, fmt.Errorf("find configuration directory: %w", err)
		}
		for _, d := range dirs {
			v.AddConfigPath(d)
		}
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that would otherwise fail at player creation.
func (c *Config) Validate() error {
	if _, err := c.CacheMaxBytes(); err != nil {
		return err
	}
	if _, err := c.KeyResolver(); err != nil {
		return err
	}
	if c.Engine.Binary == "" {
		return errors.New("engine.binary must not be empty")
	}
	if c.Engine.Channels <= 0 || c.Engine.SampleRate <= 0 {
		return fmt.Errorf("engine channels and sample_rate must be positive, got %d and %d",
			c.Engine.Channels, c.Engine.SampleRate)
	}
	return nil
}

// CacheMaxBytes parses cache.max_size.
func (c *Config) CacheMaxBytes() (int64, error) {
	if c.Cache.MaxSize == "" {
		return player.DefaultCacheMaxBytes, nil
	}
	n, err := humanize.ParseBytes(c.Cache.MaxSize)
	if err != nil {
		return 0, fmt.Errorf("invalid cache.max_size %q: %w", c.Cache.MaxSize, err)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("cache.max_size %q is too large", c.Cache.MaxSize)
	}
	return int64(n), nil
}

// KeyResolver returns the resolver named by cache.key. The "uri" strategy
// is the engine default and yields nil.
func (c *Config) KeyResolver() (player.KeyResolver, error) {
	return ResolverByName(c.Cache.Key)
}

// ResolverByName maps a key strategy name to its resolver.
func ResolverByName(name string) (player.KeyResolver, error) {
	switch name {
	case "", KeyURI:
		return nil, nil
	case KeyStripQuery:
		return player.StripQueryKeyResolver{}, nil
	default:
		return nil, fmt.Errorf("unknown cache.key strategy %q", name)
	}
}

// CacheConfig builds the engine cache configuration.
func (c *Config) CacheConfig() (*player.CacheConfig, error) {
	maxBytes, err := c.CacheMaxBytes()
	if err != nil {
		return nil, err
	}
	resolver, err := c.KeyResolver()
	if err != nil {
		return nil, err
	}
	return player.NewCacheConfigBuilder().
		SetUseBuiltInCache(c.Cache.Enabled).
		SetCacheDir(c.Cache.Dir).
		SetCacheMaxBytes(maxBytes).
		SetCacheKeyResolver(resolver).
		Build(), nil
}

// EngineConfig returns the ffmpeg output settings.
func (c *Config) EngineConfig() ffmpeg.Config {
	return ffmpeg.Config{
		Binary:     c.Engine.Binary,
		Channels:   c.Engine.Channels,
		SampleRate: c.Engine.SampleRate,
		Device:     c.Engine.Device,
	}
}

// AppContext returns the execution context players are bound to.
func (c *Config) AppContext() (player.AppContext, error) {
	if c.App.CacheRoot != "" {
		return player.NewAppContextAt(c.App.Name, c.App.CacheRoot), nil
	}
	return player.NewAppContext(c.App.Name)
}
