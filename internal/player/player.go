// Package player defines the playback contract shared by every engine
// adapter, together with the cache configuration handed to engines and
// the factory used to construct players.
package player

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoDataSource is returned by Prepare before a data source is set.
	ErrNoDataSource = errors.New("no data source set")

	// ErrReleased is returned by operations on a released player.
	ErrReleased = errors.New("player released")
)

// Info codes passed to EventListener.OnInfo.
const (
	InfoRenderingStart = 3
	InfoBufferingStart = 701
	InfoBufferingEnd   = 702
)

// EventListener receives playback events from a Player. Callbacks may run
// on the engine's own goroutine.
type EventListener interface {
	OnPrepared()
	OnCompletion()
	OnError(err error)
	OnInfo(what, extra int)
}

// Player is a media player backed by an external playback engine.
type Player interface {
	// SetDataSource selects the media to play. headers are forwarded to
	// network sources; an empty uri is ignored.
	SetDataSource(uri string, headers map[string]string) error

	// Prepare hands the data source to the engine and begins playback.
	Prepare(ctx context.Context) error

	Start() error
	Pause() error
	Stop() error

	// Reset stops playback and forgets the data source.
	Reset() error

	// Release frees engine resources. The player is unusable afterwards.
	Release() error

	IsPlaying() bool
	SeekTo(pos time.Duration) error
	CurrentPosition() time.Duration

	SetVolume(left, right float64)
	SetLooping(looping bool)
	SetSpeed(speed float64)
	Speed() float64

	SetEventListener(l EventListener)

	// Name returns the engine implementation name (e.g., "ffmpeg").
	Name() string
}
