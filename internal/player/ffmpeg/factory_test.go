package ffmpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-player/internal/player"
)

func TestFactory_CreateWithoutCacheConfig(t *testing.T) {
	appCtx := player.NewAppContextAt("test", t.TempDir())

	p, err := Create().CreatePlayer(appCtx)
	require.NoError(t, err)

	assert.Nil(t, p.CacheConfig())
	assert.Same(t, appCtx, p.AppContext())
	assert.Equal(t, "ffmpeg", p.Name())
}

func TestFactory_ForwardsCacheConfig(t *testing.T) {
	appCtx := player.NewAppContextAt("test", t.TempDir())
	cfg := player.NewCacheConfigBuilder().SetUseBuiltInCache(true).Build()

	p, err := Create().SetCacheConfig(cfg).CreatePlayer(appCtx)
	require.NoError(t, err)

	assert.Same(t, cfg, p.CacheConfig())
	assert.Same(t, appCtx, p.AppContext())
}

func TestFactory_SetCacheConfigLastWriteWins(t *testing.T) {
	appCtx := player.NewAppContextAt("test", t.TempDir())
	first := player.NewCacheConfigBuilder().Build()
	second := player.NewCacheConfigBuilder().SetCacheMaxBytes(1).Build()

	f := Create()
	assert.Same(t, f, f.SetCacheConfig(first))
	f.SetCacheConfig(second)

	p, err := f.CreatePlayer(appCtx)
	require.NoError(t, err)
	assert.Same(t, second, p.CacheConfig())
}

func TestFactory_SetNilResetsCacheConfig(t *testing.T) {
	appCtx := player.NewAppContextAt("test", t.TempDir())
	cfg := player.NewCacheConfigBuilder().SetUseBuiltInCache(true).Build()

	f := Create().SetCacheConfig(cfg)
	before, err := f.CreatePlayer(appCtx)
	require.NoError(t, err)
	require.Same(t, cfg, before.CacheConfig())

	f.SetCacheConfig(nil)
	assert.Nil(t, f.CacheConfig())

	after, err := f.CreatePlayer(appCtx)
	require.NoError(t, err)
	assert.Nil(t, after.CacheConfig())
	assert.Same(t, cfg, before.CacheConfig(), "existing players keep their config")
}

func TestFactory_NewPlayerPerCall(t *testing.T) {
	appCtx := player.NewAppContextAt("test", t.TempDir())
	f := Create()

	a, err := f.CreatePlayer(appCtx)
	require.NoError(t, err)
	b, err := f.CreatePlayer(appCtx)
	require.NoError(t, err)

	assert.NotSame(t, a, b)
}

func TestFactory_ConstructorErrorPropagates(t *testing.T) {
	cfg := player.NewCacheConfigBuilder().SetCacheMaxBytes(-1).Build()

	p, err := Create().SetCacheConfig(cfg).CreatePlayer(player.NewAppContextAt("test", t.TempDir()))

	assert.Nil(t, p)
	assert.ErrorIs(t, err, player.ErrNegativeCacheSize)
}

func TestFactory_NilContext(t *testing.T) {
	_, err := Create().CreatePlayer(nil)
	assert.Error(t, err)
}

func TestFactory_OptionsApplied(t *testing.T) {
	p, err := Create(WithBinary("/opt/ffmpeg/bin/ffmpeg"), WithChannels(1), WithSampleRate(44100), WithDevice("hw:0")).
		CreatePlayer(player.NewAppContextAt("test", t.TempDir()))
	require.NoError(t, err)

	assert.Equal(t, Config{
		Binary:     "/opt/ffmpeg/bin/ffmpeg",
		Channels:   1,
		SampleRate: 44100,
		Device:     "hw:0",
	}, p.config)
}

func TestFactory_Generic(t *testing.T) {
	cfg := player.NewCacheConfigBuilder().Build()
	f := player.Generic[*Player](Create().SetCacheConfig(cfg))

	p, err := f.CreatePlayer(player.NewAppContextAt("test", t.TempDir()))
	require.NoError(t, err)

	fp, ok := p.(*Player)
	require.True(t, ok)
	assert.Same(t, cfg, fp.CacheConfig())
}
