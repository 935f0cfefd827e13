// Package source turns a media URI into an engine-ready MediaSource: it
// infers the stream kind, prepares request headers and attaches the
// engine cache a CacheConfig asks for.
package source

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"media-player/internal/player"
)

// DefaultCacheDirName is the directory created under AppContext.CacheDir
// when a CacheConfig does not name one.
const DefaultCacheDirName = "ffmpeg-media-cache"

const userAgentHeader = "User-Agent"

// MediaSource is everything the engine needs to open one URI.
type MediaSource struct {
	URI       string
	Kind      Kind
	UserAgent string

	// Headers are forwarded to network sources. User-Agent is never
	// present here; it is carried in UserAgent.
	Headers map[string]string

	// Cache is nil when the source is played without the engine cache.
	Cache    *Cache
	CacheKey string
}

// Cached reports whether the engine cache is attached.
func (s *MediaSource) Cached() bool {
	return s.Cache != nil
}

// Helper builds media sources for one application context. It memoizes
// cache handles so that every player sharing a directory shares a handle.
type Helper struct {
	appCtx    player.AppContext
	userAgent string
	registry  *Registry
	logger    *log.Logger

	mu     sync.Mutex
	caches map[string]*Cache
}

// NewHelper creates a helper bound to appCtx.
func NewHelper(appCtx player.AppContext, logger *log.Logger) *Helper {
	if logger == nil {
		logger = log.Default()
	}
	return &Helper{
		appCtx:    appCtx,
		userAgent: DefaultUserAgent(appCtx.AppName()),
		registry:  DefaultRegistry(),
		logger:    logger.WithPrefix("source"),
		caches:    make(map[string]*Cache),
	}
}

var (
	sharedMu     sync.Mutex
	sharedHelper *Helper
)

// Shared returns the process-wide helper, creating it with appCtx on first
// use. Later contexts are ignored.
func Shared(appCtx player.AppContext) *Helper {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if sharedHelper == nil {
		sharedHelper = NewHelper(appCtx, nil)
	}
	return sharedHelper
}

// DefaultUserAgent returns the user agent sent when the caller supplies none.
func DefaultUserAgent(appName string) string {
	return fmt.Sprintf("%s (%s; %s) media-player", appName, runtime.GOOS, runtime.GOARCH)
}

// UserAgent returns the helper's default user agent.
func (h *Helper) UserAgent() string {
	return h.userAgent
}

// MediaSource resolves uri. When useCache is set, and the kind is not a live
// protocol, the cache described by cfg (or the defaults when cfg is nil) is
// attached.
func (h *Helper) MediaSource(uri string, headers map[string]string, useCache bool, cfg *player.CacheConfig) (*MediaSource, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, errors.New("empty media uri")
	}

	src := &MediaSource{
		URI:       uri,
		Kind:      h.registry.Infer(uri),
		UserAgent: h.userAgent,
	}
	src.Headers = splitUserAgent(headers, src)

	if !useCache || src.Kind.Live() {
		return src, nil
	}

	c, err := h.cacheFor(cfg)
	if err != nil {
		return nil, err
	}
	src.Cache = c
	src.CacheKey = uri
	if cfg != nil && cfg.CacheKeyResolver() != nil {
		src.CacheKey = cfg.CacheKeyResolver().ResolveKey(uri)
	}

	h.logger.Debug("resolved media source", "uri", uri, "kind", src.Kind, "cache", c.Dir, "key", src.CacheKey)
	return src, nil
}

// splitUserAgent copies headers without User-Agent, moving a non-empty
// User-Agent value into src.UserAgent.
func splitUserAgent(headers map[string]string, src *MediaSource) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := maps.Clone(headers)
	for k, v := range out {
		if !strings.EqualFold(k, userAgentHeader) {
			continue
		}
		if strings.TrimSpace(v) != "" {
			src.UserAgent = v
		}
		delete(out, k)
	}
	return out
}

func (h *Helper) cacheFor(cfg *player.CacheConfig) (*Cache, error) {
	dir := filepath.Join(h.appCtx.CacheDir(), DefaultCacheDirName)
	maxBytes := player.DefaultCacheMaxBytes
	if cfg != nil {
		if cfg.CacheDir() != "" {
			dir = cfg.CacheDir()
		}
		maxBytes = cfg.CacheMaxBytes()
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	id := cacheID(dir, maxBytes)

	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.caches[id]; ok {
		return c, nil
	}
	c, err := openCache(dir, maxBytes)
	if err != nil {
		return nil, err
	}
	h.caches[id] = c
	h.logger.Info("opened engine cache", "dir", c.Dir, "max", humanize.IBytes(uint64(max(maxBytes, 0))))
	return c, nil
}

// Close releases every cache handle opened by the helper.
func (h *Helper) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var errs []error
	for id, c := range h.caches {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(h.caches, id)
	}
	return errors.Join(errs...)
}
