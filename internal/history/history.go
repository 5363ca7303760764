// Package history persists successful scans. Writes are serialized so
// concurrent sessions cannot interleave partial files.
package history

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/scanbridge/internal/barcode"
)

// Entry is one recorded scan.
type Entry struct {
	Text      string    `yaml:"text"`
	Format    string    `yaml:"format"`
	ScannedAt time.Time `yaml:"scanned_at"`
}

// Store is a yaml-file-backed scan history.
type Store struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewStore opens a history store at path. The file is created lazily on the
// first append.
func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Append records one successful scan.
func (s *Store) Append(res *barcode.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadLocked()
	if err != nil {
		return err
	}
	entries = append(entries, Entry{
		Text:      res.Text,
		Format:    res.Format.String(),
		ScannedAt: s.now().UTC(),
	})
	return s.writeLocked(entries)
}

// Entries returns all recorded scans, oldest first.
func (s *Store) Entries() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Clear removes all recorded scans.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}

func (s *Store) loadLocked() ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing history: %w", err)
	}
	return entries, nil
}

func (s *Store) writeLocked(entries []Entry) error {
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating history dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	return os.Rename(tmp, s.path)
}
