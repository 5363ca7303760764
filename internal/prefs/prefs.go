// Package prefs holds the process-wide persisted user preferences. Ownership
// is explicit: the session driver and camera controller read them, and writes
// happen only through Store setters, which persist immediately.
package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Values are the persisted preference fields.
type Values struct {
	TorchOn                bool   `yaml:"torch_on"`
	AutoFocus              bool   `yaml:"auto_focus"`
	DisableContinuousFocus bool   `yaml:"disable_continuous_focus"`
	BulkMode               bool   `yaml:"bulk_mode"`
	SaveHistory            bool   `yaml:"save_history"`
	BeepOnScan             bool   `yaml:"beep_on_scan"`
	LastSeenVersion        string `yaml:"last_seen_version"`
}

// DefaultValues returns the out-of-the-box preferences.
func DefaultValues() Values {
	return Values{
		AutoFocus:  true,
		BeepOnScan: true,
	}
}

// Store is a yaml-file-backed preference store.
type Store struct {
	mu     sync.Mutex
	path   string
	values Values
}

// NewStore loads preferences from path, falling back to defaults when the
// file does not exist yet.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path, values: DefaultValues()}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading preferences: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("parsing preferences: %w", err)
	}
	return s, nil
}

// NewMemoryStore returns a store that never touches disk; used by tests and
// one-shot decode paths.
func NewMemoryStore(values Values) *Store {
	return &Store{values: values}
}

// Snapshot returns a copy of the current values.
func (s *Store) Snapshot() Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values
}

// TorchOn reports the persisted torch preference.
func (s *Store) TorchOn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.TorchOn
}

// SetTorchOn persists a new torch preference.
func (s *Store) SetTorchOn(on bool) {
	s.update(func(v *Values) { v.TorchOn = on })
}

// AutoFocus reports whether autofocus negotiation is enabled.
func (s *Store) AutoFocus() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.AutoFocus
}

// DisableContinuousFocus reports the continuous-focus opt-out.
func (s *Store) DisableContinuousFocus() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.DisableContinuousFocus
}

// BulkMode reports the persisted bulk-mode toggle. The bulk, focus and
// history toggles have no setters; they are edited in the preferences file
// directly.
func (s *Store) BulkMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.BulkMode
}

// SaveHistory reports the persisted history toggle.
func (s *Store) SaveHistory() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.SaveHistory
}

// BeepOnScan reports the persisted beep toggle.
func (s *Store) BeepOnScan() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.BeepOnScan
}

// LastSeenVersion returns the app version recorded at last startup.
func (s *Store) LastSeenVersion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.LastSeenVersion
}

// SetLastSeenVersion records the current app version.
func (s *Store) SetLastSeenVersion(version string) {
	s.update(func(v *Values) { v.LastSeenVersion = version })
}

func (s *Store) update(fn func(*Values)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.values)
	if s.path == "" {
		return
	}
	if err := s.persistLocked(); err != nil {
		slog.Warn("Persisting preferences failed", "error", err)
	}
}

func (s *Store) persistLocked() error {
	data, err := yaml.Marshal(s.values)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
