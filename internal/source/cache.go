package source

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"
)

const (
	lockFileName   = ".lock"
	shardPrefixLen = 2
	cacheDirPerm   = 0o755
)

// ErrCacheDirLocked is returned when another cache instance already owns
// the directory.
var ErrCacheDirLocked = errors.New("cache directory is in use by another cache instance")

// Cache is a handle on an engine cache directory. It owns the directory
// for its lifetime; the engine does the actual storing and eviction within
// MaxBytes.
type Cache struct {
	Dir      string
	MaxBytes int64

	lock *flock.Flock
}

func cacheID(dir string, maxBytes int64) string {
	return dir + "_" + strconv.FormatInt(maxBytes, 10)
}

func openCache(dir string, maxBytes int64) (*Cache, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	if err := os.MkdirAll(abs, cacheDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	lock := flock.New(filepath.Join(abs, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock cache directory: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", abs, ErrCacheDirLocked)
	}

	return &Cache{Dir: abs, MaxBytes: maxBytes, lock: lock}, nil
}

// PartitionDir returns the directory the engine should use for content
// stored under key, creating it if needed. Keys are hashed because they
// usually contain URL characters.
func (c *Cache) PartitionDir(key string) (string, error) {
	sum := sha256.Sum256([]byte(key))
	name := hex.EncodeToString(sum[:])
	dir := filepath.Join(c.Dir, name[:shardPrefixLen], name)
	if err := os.MkdirAll(dir, cacheDirPerm); err != nil {
		return "", fmt.Errorf("failed to create cache partition: %w", err)
	}
	return dir, nil
}

// Close releases the directory lock.
func (c *Cache) Close() error {
	if c.lock == nil {
		return nil
	}
	return c.lock.Unlock()
}
