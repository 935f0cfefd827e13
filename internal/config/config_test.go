package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-player/internal/player"
	"media-player/internal/player/ffmpeg"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "media-player.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, AppName, cfg.App.Name)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ffmpeg.DefaultConfig(), cfg.EngineConfig())
	assert.Equal(t, ":8180", cfg.Server.Addr)

	cc, err := cfg.CacheConfig()
	require.NoError(t, err)
	assert.False(t, cc.UseBuiltInCache())
	assert.Empty(t, cc.CacheDir())
	assert.Equal(t, player.DefaultCacheMaxBytes, cc.CacheMaxBytes())
	assert.Nil(t, cc.CacheKeyResolver())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
app:
  name: tv
  cache_root: /srv/cache
log:
  level: debug
engine:
  binary: /usr/local/bin/ffmpeg
  device: hw:1
  channels: 1
  sample_rate: 44100
cache:
  enabled: true
  dir: /srv/cache/media
  max_size: 1GiB
  key: strip-query
server:
  addr: 127.0.0.1:9000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ffmpeg.Config{
		Binary:     "/usr/local/bin/ffmpeg",
		Channels:   1,
		SampleRate: 44100,
		Device:     "hw:1",
	}, cfg.EngineConfig())
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)

	cc, err := cfg.CacheConfig()
	require.NoError(t, err)
	assert.True(t, cc.UseBuiltInCache())
	assert.Equal(t, "/srv/cache/media", cc.CacheDir())
	assert.Equal(t, int64(1<<30), cc.CacheMaxBytes())
	assert.IsType(t, player.StripQueryKeyResolver{}, cc.CacheKeyResolver())

	appCtx, err := cfg.AppContext()
	require.NoError(t, err)
	assert.Equal(t, "tv", appCtx.AppName())
	assert.Equal(t, "/srv/cache", appCtx.CacheDir())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MEDIA_PLAYER_CACHE_ENABLED", "true")
	t.Setenv("MEDIA_PLAYER_CACHE_MAX_SIZE", "64MB")

	cfg, err := Load(writeConfig(t, "cache:\n  enabled: false\n"))
	require.NoError(t, err)

	assert.True(t, cfg.Cache.Enabled)
	n, err := cfg.CacheMaxBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(64_000_000), n)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad size", "cache:\n  max_size: lots\n"},
		{"negative size", "cache:\n  max_size: -5MiB\n"},
		{"bad key", "cache:\n  key: md5\n"},
		{"no binary", "engine:\n  binary: \"\"\n"},
		{"zero channels", "engine:\n  channels: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestKeyResolver(t *testing.T) {
	c := &Config{}
	r, err := c.KeyResolver()
	require.NoError(t, err)
	assert.Nil(t, r)

	c.Cache.Key = KeyURI
	r, err = c.KeyResolver()
	require.NoError(t, err)
	assert.Nil(t, r)
}
