package deps

import (
	"fmt"
	"os/exec"

	"github.com/charmbracelet/log"
)

// Checker verifies that the external binaries a player shells out to are
// installed.
type Checker struct {
	dependencies []string
	lookPath     func(string) (string, error)
}

// NewChecker creates a new dependency checker with the given dependencies.
func NewChecker(deps ...string) *Checker {
	return &Checker{dependencies: deps, lookPath: exec.LookPath}
}

// IsAvailable checks if a single dependency is available in PATH.
func (c *Checker) IsAvailable(name string) bool {
	_, err := c.lookPath(name)
	return err == nil
}

// Check logs the status of every dependency and returns a
// *MissingDepsError listing the ones not found.
func (c *Checker) Check(logger *log.Logger) error {
	if logger == nil {
		logger = log.Default()
	}

	var missing []string
	for _, dep := range c.dependencies {
		path, err := c.lookPath(dep)
		if err != nil {
			logger.Error("dependency not found in PATH", "name", dep)
			missing = append(missing, dep)
			continue
		}
		logger.Debug("dependency found", "name", dep, "path", path)
	}

	if len(missing) > 0 {
		return &MissingDepsError{Dependencies: missing}
	}
	return nil
}

// MissingDepsError is returned when required dependencies are missing.
type MissingDepsError struct {
	Dependencies []string
}

func (e *MissingDepsError) Error() string {
	return fmt.Sprintf("missing dependencies: %v (install them and retry)", e.Dependencies)
}
