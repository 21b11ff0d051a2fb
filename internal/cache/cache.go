// Package cache is a keyed blob store for precomputed yearly aggregates.
// Entries are JSON files keyed by (kind, year); staleness is derived from the
// file's modification time and returned as a flag so the caller decides
// whether to trust old data. A missing or unreadable entry is a cache miss,
// never a fatal error.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	appLog "lessoncal/internal/log"
)

const defaultMaxAge = 24 * time.Hour

// Store persists entries under a single directory.
type Store struct {
	dir    string
	maxAge time.Duration

	// now is swappable for staleness tests.
	now func() time.Time
}

// NewStore creates a Store rooted at dir with the 24h freshness window.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = "./var/aggregate-cache"
	}
	return &Store{dir: dir, maxAge: defaultMaxAge, now: time.Now}
}

// Write stores v under (kind, year), overwriting any previous entry.
// The write is atomic: temp file in the same directory, then rename.
func (s *Store) Write(kind string, year int, v any) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	target := s.entryPath(kind, year)
	tmp, err := os.CreateTemp(s.dir, ".cache-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmpName, target); err != nil {
		return err
	}

	appLog.Info("aggregate cache write", "kind", kind, "year", year, "path", target)
	return nil
}

// Read loads the entry for (kind, year) into out.
//
// ok is false on a miss (no entry, or one that cannot be read or decoded);
// a miss always reports stale=true so callers fall back to recomputing.
// On a hit, stale reports whether the last write is older than the freshness
// window; the data is still returned either way.
func (s *Store) Read(kind string, year int, out any) (stale bool, ok bool) {
	path := s.entryPath(kind, year)

	data, err := os.ReadFile(path)
	if err != nil {
		return true, false
	}
	if err := json.Unmarshal(data, out); err != nil {
		appLog.Error("aggregate cache entry corrupt, treating as miss", err, "path", path)
		return true, false
	}

	info, err := os.Stat(path)
	if err != nil {
		return true, false
	}
	age := s.now().Sub(info.ModTime())
	return age > s.maxAge, true
}

func (s *Store) entryPath(kind string, year int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%d.json", kind, year))
}
