package source

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-player/internal/player"
)

func newTestHelper(t *testing.T) (*Helper, string) {
	t.Helper()
	root := t.TempDir()
	h := NewHelper(player.NewAppContextAt("test-app", root), nil)
	t.Cleanup(func() { _ = h.Close() })
	return h, root
}

func TestRegistry_Infer(t *testing.T) {
	tests := []struct {
		uri  string
		want Kind
	}{
		{"rtmp://live.example.com/app/stream", KindRTMP},
		{"RTSP://cam.local/stream1", KindRTSP},
		{"https://cdn.example.com/manifest.mpd", KindDASH},
		{"https://cdn.example.com/live/index.M3U8?token=1", KindHLS},
		{"https://cdn.example.com/clip.mp4", KindProgressive},
		{"/home/user/music/song.flac", KindProgressive},
		{"rtmp://host/app/list.m3u8", KindRTMP},
	}

	r := DefaultRegistry()
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.Infer(tt.uri), tt.uri)
	}
}

func TestRegistry_Kinds(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []Kind{KindRTMP, KindRTSP, KindDASH, KindHLS}, r.Kinds())
	assert.Empty(t, NewRegistry().Kinds())
	assert.Equal(t, KindProgressive, NewRegistry().Infer("rtmp://x"))
}

func TestHelper_MediaSourceNoCache(t *testing.T) {
	h, _ := newTestHelper(t)

	src, err := h.MediaSource("https://example.com/a.mp4", nil, false, nil)
	require.NoError(t, err)

	assert.Equal(t, KindProgressive, src.Kind)
	assert.False(t, src.Cached())
	assert.Empty(t, src.CacheKey)
	assert.Nil(t, src.Headers)
	assert.Equal(t, h.UserAgent(), src.UserAgent)
	assert.True(t, strings.HasPrefix(src.UserAgent, "test-app ("))
}

func TestHelper_MediaSourceEmptyURI(t *testing.T) {
	h, _ := newTestHelper(t)

	_, err := h.MediaSource("  ", nil, false, nil)
	assert.Error(t, err)
}

func TestHelper_UserAgentHeader(t *testing.T) {
	h, _ := newTestHelper(t)
	headers := map[string]string{
		"user-agent": "CustomAgent/1.0",
		"Referer":    "https://example.com",
	}

	src, err := h.MediaSource("https://example.com/a.mp4", headers, false, nil)
	require.NoError(t, err)

	assert.Equal(t, "CustomAgent/1.0", src.UserAgent)
	assert.Equal(t, map[string]string{"Referer": "https://example.com"}, src.Headers)
	assert.Len(t, headers, 2, "caller headers must not be modified")
}

func TestHelper_EmptyUserAgentKeepsDefault(t *testing.T) {
	h, _ := newTestHelper(t)

	src, err := h.MediaSource("https://example.com/a.mp4", map[string]string{"User-Agent": ""}, false, nil)
	require.NoError(t, err)

	assert.Equal(t, h.UserAgent(), src.UserAgent)
	assert.Empty(t, src.Headers)
}

func TestHelper_DefaultCacheLocation(t *testing.T) {
	h, root := newTestHelper(t)

	src, err := h.MediaSource("https://example.com/a.mp4", nil, true, nil)
	require.NoError(t, err)
	require.True(t, src.Cached())

	assert.Equal(t, filepath.Join(root, DefaultCacheDirName), src.Cache.Dir)
	assert.Equal(t, player.DefaultCacheMaxBytes, src.Cache.MaxBytes)
	assert.Equal(t, "https://example.com/a.mp4", src.CacheKey)
	assert.FileExists(t, filepath.Join(src.Cache.Dir, lockFileName))
}

func TestHelper_ConfiguredCache(t *testing.T) {
	h, _ := newTestHelper(t)
	dir := t.TempDir()
	cfg := player.NewCacheConfigBuilder().
		SetUseBuiltInCache(true).
		SetCacheDir(dir).
		SetCacheMaxBytes(64 << 20).
		SetCacheKeyResolver(player.StripQueryKeyResolver{}).
		Build()

	src, err := h.MediaSource("https://example.com/a.mp4?sig=1", nil, true, cfg)
	require.NoError(t, err)

	assert.Equal(t, dir, src.Cache.Dir)
	assert.Equal(t, int64(64<<20), src.Cache.MaxBytes)
	assert.Equal(t, "https://example.com/a.mp4", src.CacheKey)
}

func TestHelper_CacheHandleShared(t *testing.T) {
	h, _ := newTestHelper(t)
	cfg := player.NewCacheConfigBuilder().SetCacheDir(t.TempDir()).Build()

	a, err := h.MediaSource("https://example.com/a.mp4", nil, true, cfg)
	require.NoError(t, err)
	b, err := h.MediaSource("https://example.com/b.mp4", nil, true, cfg)
	require.NoError(t, err)

	assert.Same(t, a.Cache, b.Cache)
}

func TestHelper_LiveKindsBypassCache(t *testing.T) {
	h, _ := newTestHelper(t)

	for _, uri := range []string{"rtmp://live/app/s", "rtsp://cam/1"} {
		src, err := h.MediaSource(uri, nil, true, nil)
		require.NoError(t, err)
		assert.False(t, src.Cached(), uri)
	}
}

func TestHelper_DirectoryOwnedByOneCache(t *testing.T) {
	h, _ := newTestHelper(t)
	dir := t.TempDir()

	_, err := h.MediaSource("https://example.com/a.mp4", nil, true,
		player.NewCacheConfigBuilder().SetCacheDir(dir).SetCacheMaxBytes(1024).Build())
	require.NoError(t, err)

	_, err = h.MediaSource("https://example.com/a.mp4", nil, true,
		player.NewCacheConfigBuilder().SetCacheDir(dir).SetCacheMaxBytes(2048).Build())
	assert.ErrorIs(t, err, ErrCacheDirLocked)
}

func TestHelper_CloseReleasesLocks(t *testing.T) {
	h, _ := newTestHelper(t)
	dir := t.TempDir()
	cfg := player.NewCacheConfigBuilder().SetCacheDir(dir).Build()

	_, err := h.MediaSource("https://example.com/a.mp4", nil, true, cfg)
	require.NoError(t, err)
	require.NoError(t, h.Close())

	other := NewHelper(player.NewAppContextAt("other", t.TempDir()), nil)
	defer other.Close()
	_, err = other.MediaSource("https://example.com/a.mp4", nil, true, cfg)
	assert.NoError(t, err)
}

func TestCache_PartitionDir(t *testing.T) {
	c, err := openCache(t.TempDir(), 1024)
	require.NoError(t, err)
	defer c.Close()

	a, err := c.PartitionDir("https://example.com/a.mp4")
	require.NoError(t, err)
	again, err := c.PartitionDir("https://example.com/a.mp4")
	require.NoError(t, err)
	b, err := c.PartitionDir("https://example.com/b.mp4")
	require.NoError(t, err)

	assert.Equal(t, a, again)
	assert.NotEqual(t, a, b)
	assert.DirExists(t, a)

	rel, err := filepath.Rel(c.Dir, a)
	require.NoError(t, err)
	parts := strings.Split(rel, string(filepath.Separator))
	require.Len(t, parts, 2)
	assert.Len(t, parts[0], shardPrefixLen)
	assert.True(t, strings.HasPrefix(parts[1], parts[0]))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "hls", KindHLS.String())
	assert.Equal(t, "unknown", Kind(99).String())
	assert.True(t, KindRTSP.Live())
	assert.False(t, KindDASH.Live())
}
