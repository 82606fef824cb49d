// Package settings persists the user's last committed choices between
// runs.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	julia "github.com/Wartets/Julia-Set"
)

// Settings are the persisted values. Nil fields were never saved and
// take their defaults.
type Settings struct {
	Equation         *string `json:"equation,omitempty"`
	MaxIterations    *int    `json:"maxIter,omitempty"`
	ResolutionFactor *int    `json:"resolutionFactor,omitempty"`
	Palette          *string `json:"colorPalette,omitempty"`
	PanelHidden      *bool   `json:"uiHidden,omitempty"`
}

// Store reads the settings once at startup and writes them on every
// committed change.
type Store interface {
	Load() (Settings, error)
	Save(Settings) error
}

// FileStore keeps settings as JSON in a single file.
type FileStore struct {
	Path string
	mu   sync.Mutex
}

// DefaultPath is settings.json under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("os.UserConfigDir: %w", err)
	}
	return filepath.Join(dir, "julia-set", "settings.json"), nil
}

// Load returns the stored settings. A missing file is not an error; a
// malformed one is logged and treated as empty.
func (s *FileStore) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return Settings{}, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	var st Settings
	if err := json.Unmarshal(b, &st); err != nil {
		julia.Logger().Warn("settings: ignoring malformed file", "path", s.Path, "err", err)
		return Settings{}, nil
	}
	return st, nil
}

// Save writes st atomically: to a temporary file that is then renamed.
func (s *FileStore) Save(st Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

// MemStore keeps settings in memory.
type MemStore struct {
	mu    sync.Mutex
	st    Settings
	saves int
}

func (m *MemStore) Load() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st, nil
}

func (m *MemStore) Save(st Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st = st
	m.saves++
	return nil
}

// Saves reports how many times Save was called.
func (m *MemStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// String, Int and Bool return pointers for populating Settings.
func String(v string) *string { return &v }
func Int(v int) *int          { return &v }
func Bool(v bool) *bool       { return &v }
