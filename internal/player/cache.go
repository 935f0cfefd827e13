package player

import (
	"errors"
	"net/url"
)

// DefaultCacheMaxBytes is the cache size handed to the engine when the
// caller does not choose one (512 MiB).
const DefaultCacheMaxBytes int64 = 512 * 1024 * 1024

// ErrNegativeCacheSize is returned by Validate for a negative byte budget.
var ErrNegativeCacheSize = errors.New("cache max bytes must not be negative")

// KeyResolver maps a playback request URI to the key the engine's cache
// stores its data under.
type KeyResolver interface {
	ResolveKey(uri string) string
}

// KeyResolverFunc adapts a plain function to KeyResolver.
type KeyResolverFunc func(uri string) string

// ResolveKey calls f(uri).
func (f KeyResolverFunc) ResolveKey(uri string) string {
	return f(uri)
}

// StripQueryKeyResolver keys entries by scheme, host and path, so that
// signed URLs differing only in their query tokens share cached data.
type StripQueryKeyResolver struct{}

// ResolveKey returns uri without its query string and fragment.
// Unparsable URIs are returned unchanged.
func (StripQueryKeyResolver) ResolveKey(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

// CacheConfig describes how the playback engine should cache media.
// It is immutable once built; use CacheConfigBuilder to create one.
type CacheConfig struct {
	useBuiltInCache  bool
	cacheDir         string
	cacheMaxBytes    int64
	cacheKeyResolver KeyResolver
}

// UseBuiltInCache reports whether the engine's own cache should be used.
func (c *CacheConfig) UseBuiltInCache() bool { return c.useBuiltInCache }

// CacheDir returns the cache directory. Empty means the engine default.
func (c *CacheConfig) CacheDir() string { return c.cacheDir }

// CacheMaxBytes returns the maximum cache size in bytes.
func (c *CacheConfig) CacheMaxBytes() int64 { return c.cacheMaxBytes }

// CacheKeyResolver returns the key strategy, or nil for the engine default.
func (c *CacheConfig) CacheKeyResolver() KeyResolver { return c.cacheKeyResolver }

// Validate checks the configuration before it is handed to an engine.
func (c *CacheConfig) Validate() error {
	if c.cacheMaxBytes < 0 {
		return ErrNegativeCacheSize
	}
	return nil
}

// CacheConfigBuilder accumulates CacheConfig fields. Setters never fail and
// return the builder for chaining.
type CacheConfigBuilder struct {
	useBuiltInCache  bool
	cacheDir         string
	cacheMaxBytes    int64
	cacheKeyResolver KeyResolver
}

// NewCacheConfigBuilder returns a builder holding the default values.
func NewCacheConfigBuilder() *CacheConfigBuilder {
	return &CacheConfigBuilder{
		cacheMaxBytes: DefaultCacheMaxBytes,
	}
}

func (b *CacheConfigBuilder) SetUseBuiltInCache(use bool) *CacheConfigBuilder {
	b.useBuiltInCache = use
	return b
}

func (b *CacheConfigBuilder) SetCacheDir(dir string) *CacheConfigBuilder {
	b.cacheDir = dir
	return b
}

func (b *CacheConfigBuilder) SetCacheMaxBytes(n int64) *CacheConfigBuilder {
	b.cacheMaxBytes = n
	return b
}

func (b *CacheConfigBuilder) SetCacheKeyResolver(r KeyResolver) *CacheConfigBuilder {
	b.cacheKeyResolver = r
	return b
}

// Build returns a new snapshot of the builder's current values. Each call
// yields a distinct instance.
func (b *CacheConfigBuilder) Build() *CacheConfig {
	return &CacheConfig{
		useBuiltInCache:  b.useBuiltInCache,
		cacheDir:         b.cacheDir,
		cacheMaxBytes:    b.cacheMaxBytes,
		cacheKeyResolver: b.cacheKeyResolver,
	}
}
