package prefs

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const fileName = "prefs.yaml"

// Prefs is the on-disk document.
type Prefs struct {
	UserID   string `yaml:"user_id"`
	DarkMode bool   `yaml:"dark_mode"`
}

// Store guards a Prefs document backed by a YAML file.
type Store struct {
	path  string
	mu    sync.Mutex
	prefs Prefs
}

// DefaultPath returns prefs.yaml under the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	return filepath.Join(dir, "bookbuddy", fileName), nil
}

// Open reads the preferences file at path. A missing file yields defaults;
// nothing is written until a value changes or an identifier is needed.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read prefs: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.prefs); err != nil {
		return nil, fmt.Errorf("parse prefs %s: %w", path, err)
	}
	return s, nil
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// UserID returns the local user identifier, creating and persisting it on
// first use. Concurrent first calls observe the same identifier.
func (s *Store) UserID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prefs.UserID != "" {
		return s.prefs.UserID, nil
	}

	next := s.prefs
	next.UserID = uuid.NewString()
	if err := s.save(next); err != nil {
		return "", err
	}
	s.prefs = next
	slog.Info("Created local user id", "user_id", next.UserID, "path", s.path)
	return next.UserID, nil
}

// DarkMode reports the display theme preference.
func (s *Store) DarkMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.DarkMode
}

// SetDarkMode stores the display theme preference.
func (s *Store) SetDarkMode(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prefs.DarkMode == on {
		return nil
	}
	next := s.prefs
	next.DarkMode = on
	if err := s.save(next); err != nil {
		return err
	}
	s.prefs = next
	return nil
}

// Snapshot returns a copy of the current document.
func (s *Store) Snapshot() Prefs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// save writes p atomically. Callers hold s.mu.
func (s *Store) save(p Prefs) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mkdir prefs dir: %w", err)
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}
