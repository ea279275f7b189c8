package gh

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// FileCache stores rendered previews on disk, keyed by the blob SHA of
// their source so a changed README is never served stale.
type FileCache struct {
	cacheDir string
	enabled  bool
}

// NewFileCache opens a cache in dir, or in the user cache directory when
// dir is empty. A cache that cannot be created is returned disabled.
func NewFileCache(dir string) *FileCache {
	if dir == "" {
		var err error
		dir, err = getCacheDir()
		if err != nil {
			return &FileCache{enabled: false}
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &FileCache{enabled: false}
	}

	return &FileCache{
		cacheDir: dir,
		enabled:  true,
	}
}

func getCacheDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		baseDir = filepath.Join(homeDir, "Library", "Caches")
	case "windows":
		baseDir = os.Getenv("LOCALAPPDATA")
		if baseDir == "" {
			return "", fmt.Errorf("LOCALAPPDATA not set")
		}
	default:
		baseDir = os.Getenv("XDG_CACHE_HOME")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, ".cache")
		}
	}

	return filepath.Join(baseDir, "repo-nav", "previews"), nil
}

func (c *FileCache) Enabled() bool {
	return c.enabled
}

// Get returns the cached content for key.
func (c *FileCache) Get(key string) ([]byte, bool) {
	if !c.enabled || key == "" {
		return nil, false
	}

	content, err := os.ReadFile(c.cachePath(key))
	if err != nil {
		return nil, false
	}
	return content, true
}

// Put stores content under key. The write goes through a temp file so a
// concurrent reader never sees a partial entry.
func (c *FileCache) Put(key string, content []byte) error {
	if !c.enabled || key == "" {
		return nil
	}

	cachePath := c.cachePath(key)
	if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(cachePath), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), cachePath)
}

func (c *FileCache) cachePath(key string) string {
	sum := ComputeKey(key)
	return filepath.Join(c.cacheDir, sum[:2], sum[2:4], sum)
}

// ComputeKey hashes an arbitrary cache key into a file name.
func ComputeKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
