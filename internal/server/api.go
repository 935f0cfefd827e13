package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"media-player/internal/config"
	"media-player/internal/player"
)

// API handles HTTP control endpoints.
type API struct {
	sessions *SessionManager
	logger   *log.Logger
}

// NewAPI creates a new API handler.
func NewAPI(sessions *SessionManager, logger *log.Logger) *API {
	if logger == nil {
		logger = log.Default()
	}
	return &API{
		sessions: sessions,
		logger:   logger.WithPrefix("api"),
	}
}

// PlayRequest is the request body for play endpoint.
type PlayRequest struct {
	URL     string            `json:"url" binding:"required"`
	Headers map[string]string `json:"headers"`
	StartAt float64           `json:"start_at"` // seconds
}

// SeekRequest is the request body for seek endpoint.
type SeekRequest struct {
	Position float64 `json:"position"` // seconds
}

// PlayResponse is the response for session control endpoints.
type PlayResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
	Message   string `json:"message,omitempty"`
}

// StatusResponse is the response for status endpoint.
type StatusResponse struct {
	SessionID  string  `json:"session_id"`
	Status     string  `json:"status"`
	URL        string  `json:"url,omitempty"`
	Engine     string  `json:"engine,omitempty"`
	Playing    bool    `json:"playing"`
	PositionMS int64   `json:"position_ms"`
	Speed      float64 `json:"speed,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// CacheRequest is the request body for PUT /cache. Omitted fields take the
// builder defaults.
type CacheRequest struct {
	Enabled  bool   `json:"enabled"`
	Dir      string `json:"dir"`
	MaxBytes *int64 `json:"max_bytes"`
	Key      string `json:"key"`
}

// CacheResponse describes the cache configuration new sessions use.
type CacheResponse struct {
	Configured bool   `json:"configured"`
	Enabled    bool   `json:"enabled"`
	Dir        string `json:"dir,omitempty"`
	MaxBytes   int64  `json:"max_bytes,omitempty"`
	Resolver   string `json:"resolver,omitempty"`
	Error      string `json:"error,omitempty"`
}

func errorResponse(c *gin.Context, code int, sessionID, message string) {
	c.JSON(code, PlayResponse{
		Status:    "error",
		SessionID: sessionID,
		Message:   message,
	})
}

// Play starts a new playback session.
func (a *API) Play(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		errorResponse(c, http.StatusBadRequest, "", "session_id is required")
		return
	}

	var req PlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, sessionID, fmt.Sprintf("invalid request: %v", err))
		return
	}

	a.logger.Info("play request", "session", sessionID, "url", req.URL, "start_at", req.StartAt)

	startAt := time.Duration(req.StartAt * float64(time.Second))
	if _, err := a.sessions.StartPlayback(sessionID, req.URL, req.Headers, startAt); err != nil {
		a.logger.Error("play failed", "session", sessionID, "err", err)
		errorResponse(c, http.StatusInternalServerError, sessionID, err.Error())
		return
	}

	c.JSON(http.StatusOK, PlayResponse{
		Status:    "playing",
		SessionID: sessionID,
	})
}

// Stop stops a playback session.
func (a *API) Stop(c *gin.Context) {
	sessionID := c.Param("id")
	a.logger.Info("stop request", "session", sessionID)

	a.sessions.Stop(sessionID)

	c.JSON(http.StatusOK, PlayResponse{
		Status:    "stopped",
		SessionID: sessionID,
	})
}

// Pause pauses a playback session.
func (a *API) Pause(c *gin.Context) {
	a.control(c, "paused", a.sessions.Pause)
}

// Resume resumes a paused playback session.
func (a *API) Resume(c *gin.Context) {
	a.control(c, "playing", a.sessions.Resume)
}

func (a *API) control(c *gin.Context, status string, fn func(id string) error) {
	sessionID := c.Param("id")
	a.logger.Info("control request", "session", sessionID, "want", status)

	if err := fn(sessionID); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, ErrSessionNotFound) {
			code = http.StatusNotFound
		}
		errorResponse(c, code, sessionID, err.Error())
		return
	}

	c.JSON(http.StatusOK, PlayResponse{
		Status:    status,
		SessionID: sessionID,
	})
}

// Seek moves the playback position of a session.
func (a *API) Seek(c *gin.Context) {
	sessionID := c.Param("id")

	var req SeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, sessionID, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if req.Position < 0 {
		errorResponse(c, http.StatusBadRequest, sessionID, "position must not be negative")
		return
	}

	pos := time.Duration(req.Position * float64(time.Second))
	a.control(c, "seeked", func(id string) error { return a.sessions.Seek(id, pos) })
}

// Status returns the status of a playback session.
func (a *API) Status(c *gin.Context) {
	sessionID := c.Param("id")

	session := a.sessions.Get(sessionID)
	if session == nil {
		c.JSON(http.StatusNotFound, StatusResponse{
			SessionID: sessionID,
			Status:    "not_found",
		})
		return
	}

	resp := StatusResponse{
		SessionID:  sessionID,
		Status:     session.State().String(),
		URL:        session.URL,
		Engine:     session.Player.Name(),
		Playing:    session.Player.IsPlaying(),
		PositionMS: session.Player.CurrentPosition().Milliseconds(),
		Speed:      session.Player.Speed(),
	}
	if err := session.Err(); err != nil {
		resp.Error = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// GetCache reports the cache configuration new sessions will use.
func (a *API) GetCache(c *gin.Context) {
	c.JSON(http.StatusOK, describeCache(a.sessions.CacheConfig()))
}

// PutCache replaces the cache configuration for new sessions.
func (a *API) PutCache(c *gin.Context) {
	var req CacheRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, CacheResponse{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	resolver, err := config.ResolverByName(req.Key)
	if err != nil {
		c.JSON(http.StatusBadRequest, CacheResponse{Error: err.Error()})
		return
	}

	b := player.NewCacheConfigBuilder().
		SetUseBuiltInCache(req.Enabled).
		SetCacheDir(req.Dir).
		SetCacheKeyResolver(resolver)
	if req.MaxBytes != nil {
		b.SetCacheMaxBytes(*req.MaxBytes)
	}
	cfg := b.Build()
	if err := cfg.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, CacheResponse{Error: err.Error()})
		return
	}

	a.sessions.SetCacheConfig(cfg)
	a.logger.Info("cache config updated", "enabled", req.Enabled, "dir", req.Dir, "max_bytes", cfg.CacheMaxBytes())
	c.JSON(http.StatusOK, describeCache(cfg))
}

// DeleteCache removes the cache configuration for new sessions.
func (a *API) DeleteCache(c *gin.Context) {
	a.sessions.SetCacheConfig(nil)
	a.logger.Info("cache config cleared")
	c.JSON(http.StatusOK, describeCache(nil))
}

func describeCache(cfg *player.CacheConfig) CacheResponse {
	if cfg == nil {
		return CacheResponse{}
	}
	resp := CacheResponse{
		Configured: true,
		Enabled:    cfg.UseBuiltInCache(),
		Dir:        cfg.CacheDir(),
		MaxBytes:   cfg.CacheMaxBytes(),
		Resolver:   config.KeyURI,
	}
	switch cfg.CacheKeyResolver().(type) {
	case nil:
	case player.StripQueryKeyResolver:
		resp.Resolver = config.KeyStripQuery
	default:
		resp.Resolver = "custom"
	}
	return resp
}
