package ffmpeg

import "media-player/internal/player"

// Factory creates ffmpeg players sharing one cache configuration.
// It is not safe for concurrent use.
type Factory struct {
	cacheConfig *player.CacheConfig
	opts        []Option
}

var _ player.Factory[*Player] = (*Factory)(nil)

// Create returns a factory with no cache configuration. opts are applied to
// every player it creates.
func Create(opts ...Option) *Factory {
	return &Factory{opts: opts}
}

// SetCacheConfig replaces the cache configuration used by later
// CreatePlayer calls. nil removes it.
func (f *Factory) SetCacheConfig(cfg *player.CacheConfig) *Factory {
	f.cacheConfig = cfg
	return f
}

// CacheConfig returns the stored cache configuration, or nil.
func (f *Factory) CacheConfig() *player.CacheConfig {
	return f.cacheConfig
}

// CreatePlayer returns a new player for ctx using the stored cache
// configuration. Constructor errors are returned as is.
func (f *Factory) CreatePlayer(ctx player.AppContext) (*Player, error) {
	return New(ctx, f.cacheConfig, f.opts...)
}
