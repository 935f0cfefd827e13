package player

import (
	"fmt"

	gap "github.com/muesli/go-app-paths"
)

// AppContext is the execution context a player is bound to. Engines use
// it to name themselves and to locate their default cache directory.
type AppContext interface {
	AppName() string
	CacheDir() string
}

type appContext struct {
	name     string
	cacheDir string
}

func (c *appContext) AppName() string  { return c.name }
func (c *appContext) CacheDir() string { return c.cacheDir }

// NewAppContext returns a context for name whose cache directory is the
// per-user cache location of the current platform.
func NewAppContext(name string) (AppContext, error) {
	scope := gap.NewScope(gap.User, name)
	dir, err := scope.CacheDir()
	if err != nil {
		return nil, fmt.Errorf("resolve cache directory: %w", err)
	}
	return &appContext{name: name, cacheDir: dir}, nil
}

// NewAppContextAt returns a context with an explicit cache directory.
func NewAppContextAt(name, cacheDir string) AppContext {
	return &appContext{name: name, cacheDir: cacheDir}
}
