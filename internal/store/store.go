// Package store manages the temporary-artifact directory shared by one
// batch at a time. The store is constructed once per process and passed to
// every component that creates or deletes audio artifacts; nothing touches
// the directory through ambient globals.
//
// Concurrent batches against one store are out of contract: the batch runner
// clears the whole directory before processing.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Store is a handle on the temp-artifact directory.
type Store struct {
	dir string
	log zerolog.Logger
}

// New creates the artifact directory if needed and returns a handle on it.
func New(dir string, log zerolog.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("artifact store dir cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("cannot create artifact store %s: %w", dir, err)
	}
	return &Store{dir: dir, log: log}, nil
}

// Dir returns the store's directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the absolute path for an artifact file name inside the store.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Exists reports whether an artifact exists at path.
func (s *Store) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Size returns the byte size of an artifact.
func (s *Store) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Remove deletes one artifact. Failures are logged and swallowed: cleanup is
// best-effort and never escalates past this boundary.
func (s *Store) Remove(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.log.Warn().Err(err).Str("path", path).Msg("failed to remove artifact")
	}
}

// Clear deletes every file in the store, keeping the directory itself.
// Called at the start of each batch so no artifact from a prior run survives.
// Failures are logged and swallowed.
func (s *Store) Clear() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.log.Warn().Err(err).Str("dir", s.dir).Msg("failed to read artifact store")
		return
	}
	if len(entries) == 0 {
		return
	}

	deleted := 0
	for _, e := range entries {
		p := filepath.Join(s.dir, e.Name())
		if err := os.RemoveAll(p); err != nil {
			s.log.Warn().Err(err).Str("path", p).Msg("failed to clear artifact")
			continue
		}
		deleted++
	}
	s.log.Debug().Int("deleted", deleted).Msg("cleared artifact store")
}
