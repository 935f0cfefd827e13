package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"media-player/internal/player"
	"media-player/internal/player/ffmpeg"
)

// ErrSessionNotFound is returned for operations on an unknown session.
var ErrSessionNotFound = errors.New("session not found")

// SessionState represents the current state of a session.
type SessionState int

const (
	StateIdle SessionState = iota
	StatePreparing
	StatePlaying
	StatePaused
	StateStopped
	StateFinished
	StateError
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreparing:
		return "preparing"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	case StateFinished:
		return "finished"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// PlayerFactory is the factory surface the server drives. Its cache
// configuration can be replaced between sessions.
type PlayerFactory interface {
	CreatePlayer(ctx player.AppContext) (player.Player, error)
	SetCacheConfig(cfg *player.CacheConfig)
	CacheConfig() *player.CacheConfig
}

type ffmpegFactory struct {
	f *ffmpeg.Factory
}

// NewFFmpegFactory adapts an ffmpeg factory to PlayerFactory.
func NewFFmpegFactory(f *ffmpeg.Factory) PlayerFactory {
	return ffmpegFactory{f: f}
}

func (a ffmpegFactory) CreatePlayer(ctx player.AppContext) (player.Player, error) {
	return player.Generic[*ffmpeg.Player](a.f).CreatePlayer(ctx)
}

func (a ffmpegFactory) SetCacheConfig(cfg *player.CacheConfig) { a.f.SetCacheConfig(cfg) }

func (a ffmpegFactory) CacheConfig() *player.CacheConfig { return a.f.CacheConfig() }

// Session represents an active playback session. It listens to its
// player's events to track state.
type Session struct {
	ID     string
	URL    string
	Player player.Player
	Cancel context.CancelFunc

	mu    sync.Mutex
	state SessionState
	err   error
}

var _ player.EventListener = (*Session)(nil)

// SetState updates the session state.
func (s *Session) SetState(state SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// State returns the current session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the engine error that ended the session, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) OnPrepared() { s.SetState(StatePlaying) }

func (s *Session) OnCompletion() { s.SetState(StateFinished) }

func (s *Session) OnError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateError
	s.err = err
}

func (s *Session) OnInfo(what, extra int) {}

// Stop stops the session and releases its player.
func (s *Session) Stop() {
	if s.Cancel != nil {
		s.Cancel()
	}
	if s.Player != nil {
		_ = s.Player.Release()
	}
	s.SetState(StateStopped)
}

// SessionManager manages playback sessions. Only one session is active at
// a time; starting a new one stops the previous.
type SessionManager struct {
	ctx     context.Context
	appCtx  player.AppContext
	factory PlayerFactory
	logger  *log.Logger

	mu      sync.Mutex
	current *Session
}

// NewSessionManager creates a session manager. ctx bounds every session.
func NewSessionManager(ctx context.Context, appCtx player.AppContext, factory PlayerFactory, logger *log.Logger) *SessionManager {
	if logger == nil {
		logger = log.Default()
	}
	return &SessionManager{
		ctx:     ctx,
		appCtx:  appCtx,
		factory: factory,
		logger:  logger.WithPrefix("session"),
	}
}

// StartPlayback creates a player for url and starts it, replacing any
// current session.
func (m *SessionManager) StartPlayback(id, url string, headers map[string]string, startAt time.Duration) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.current.Stop()
		m.current = nil
	}

	p, err := m.factory.CreatePlayer(m.appCtx)
	if err != nil {
		return nil, fmt.Errorf("create player: %w", err)
	}

	s := &Session{ID: id, URL: url, Player: p, state: StatePreparing}
	p.SetEventListener(s)

	if err := p.SetDataSource(url, headers); err != nil {
		_ = p.Release()
		return nil, fmt.Errorf("set data source: %w", err)
	}
	if startAt > 0 {
		if err := p.SeekTo(startAt); err != nil {
			_ = p.Release()
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(m.ctx)
	s.Cancel = cancel
	if err := p.Prepare(ctx); err != nil {
		cancel()
		_ = p.Release()
		return nil, fmt.Errorf("prepare: %w", err)
	}

	m.current = s
	m.logger.Info("session started", "id", id, "url", url, "engine", p.Name())
	return s, nil
}

// Get returns the session with id, or nil.
func (m *SessionManager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && m.current.ID == id {
		return m.current
	}
	return nil
}

// Current returns the current session, or nil.
func (m *SessionManager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Stop stops the session with the given ID. Unknown IDs are ignored.
func (m *SessionManager) Stop(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && m.current.ID == id {
		m.current.Stop()
		m.current = nil
		m.logger.Info("session stopped", "id", id)
	}
}

// Pause pauses the session's player.
func (m *SessionManager) Pause(id string) error {
	s := m.Get(id)
	if s == nil {
		return ErrSessionNotFound
	}
	if err := s.Player.Pause(); err != nil {
		return err
	}
	s.SetState(StatePaused)
	return nil
}

// Resume resumes a paused session.
func (m *SessionManager) Resume(id string) error {
	s := m.Get(id)
	if s == nil {
		return ErrSessionNotFound
	}
	if err := s.Player.Start(); err != nil {
		return err
	}
	s.SetState(StatePlaying)
	return nil
}

// Seek moves the session's playback position.
func (m *SessionManager) Seek(id string, pos time.Duration) error {
	s := m.Get(id)
	if s == nil {
		return ErrSessionNotFound
	}
	return s.Player.SeekTo(pos)
}

// SetCacheConfig replaces the cache configuration for sessions started
// afterwards. nil disables it.
func (m *SessionManager) SetCacheConfig(cfg *player.CacheConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.factory.SetCacheConfig(cfg)
}

// CacheConfig returns the configuration new sessions will use.
func (m *SessionManager) CacheConfig() *player.CacheConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.factory.CacheConfig()
}

// Close stops the current session.
func (m *SessionManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.current.Stop()
		m.current = nil
	}
}
