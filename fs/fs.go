// Package fs provides file-based caching for generation back-ends.
package fs

import (
	"os"
	"path/filepath"
)

// DefaultCacheDir returns the default cache directory for gitscribe.
// Uses XDG_CACHE_HOME if set, otherwise falls back to ~/.cache/gitscribe,
// or the system temp directory if home is unavailable.
func DefaultCacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "gitscribe")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), "gitscribe")
	}
	return filepath.Join(home, ".cache", "gitscribe")
}
