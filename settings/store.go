// Package settings persists which indexes the service knows about and the
// directories each one covers.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the settings file created inside the data directory.
const FileName = "settings.toml"

// IndexEntry is one known index and the root directories added to it.
type IndexEntry struct {
	Path  string   `toml:"path"`
	Roots []string `toml:"roots"`
}

type document struct {
	Indexes []IndexEntry `toml:"index"`
}

// Store is a TOML-backed settings store. Every mutation is written to disk immediately.
type Store struct {
	mu       sync.RWMutex
	filePath string
	data     document
}

// NewStore opens the settings file in dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating settings directory %s: %w", dir, err)
	}
	s := &Store{filePath: filepath.Join(dir, FileName)}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.filePath
}

// Load reads the settings file. A missing file yields empty settings.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		s.data = document{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading settings %s: %w", s.filePath, err)
	}

	var loaded document
	if err := toml.Unmarshal(raw, &loaded); err != nil {
		return fmt.Errorf("parsing settings %s: %w", s.filePath, err)
	}
	s.data = loaded
	return nil
}

// save writes settings to the TOML file (caller must hold lock).
func (s *Store) save() error {
	raw, err := toml.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.WriteFile(s.filePath, raw, 0o600); err != nil {
		return fmt.Errorf("writing settings %s: %w", s.filePath, err)
	}
	return nil
}

func (s *Store) find(indexPath string) int {
	return slices.IndexFunc(s.data.Indexes, func(e IndexEntry) bool { return e.Path == indexPath })
}

// AddIndex records an index. Adding a known index keeps its roots.
func (s *Store) AddIndex(indexPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.find(indexPath) >= 0 {
		return nil
	}
	s.data.Indexes = append(s.data.Indexes, IndexEntry{Path: indexPath})
	return s.save()
}

// ResetIndex records an index with no roots, as after it was recreated empty.
func (s *Store) ResetIndex(indexPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.find(indexPath); i >= 0 {
		s.data.Indexes[i].Roots = nil
	} else {
		s.data.Indexes = append(s.data.Indexes, IndexEntry{Path: indexPath})
	}
	return s.save()
}

// RemoveIndex forgets an index and its roots.
func (s *Store) RemoveIndex(indexPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(indexPath)
	if i < 0 {
		return nil
	}
	s.data.Indexes = slices.Delete(s.data.Indexes, i, i+1)
	return s.save()
}

// HasIndex reports whether an index is known.
func (s *Store) HasIndex(indexPath string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.find(indexPath) >= 0
}

// Indexes returns every known index with a copy of its roots.
func (s *Store) Indexes() []IndexEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]IndexEntry, len(s.data.Indexes))
	for i, e := range s.data.Indexes {
		out[i] = IndexEntry{Path: e.Path, Roots: slices.Clone(e.Roots)}
	}
	return out
}

// AddRoot records root under indexPath, registering the index if needed.
func (s *Store) AddRoot(indexPath, root string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(indexPath)
	if i < 0 {
		s.data.Indexes = append(s.data.Indexes, IndexEntry{Path: indexPath})
		i = len(s.data.Indexes) - 1
	}
	if slices.Contains(s.data.Indexes[i].Roots, root) {
		return nil
	}
	s.data.Indexes[i].Roots = append(s.data.Indexes[i].Roots, root)
	slices.Sort(s.data.Indexes[i].Roots)
	return s.save()
}

// RemoveRoot forgets root under indexPath. Unknown roots are ignored.
func (s *Store) RemoveRoot(indexPath, root string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(indexPath)
	if i < 0 {
		return nil
	}
	j := slices.Index(s.data.Indexes[i].Roots, root)
	if j < 0 {
		return nil
	}
	s.data.Indexes[i].Roots = slices.Delete(s.data.Indexes[i].Roots, j, j+1)
	return s.save()
}

// Roots returns the roots recorded under indexPath.
func (s *Store) Roots(indexPath string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.find(indexPath); i >= 0 {
		return slices.Clone(s.data.Indexes[i].Roots)
	}
	return nil
}
