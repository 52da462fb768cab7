// Package prefs stores small UI preferences that survive restarts.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

// Prefs holds user interface preferences
type Prefs struct {
	SidebarOpen bool `toml:"sidebar_open"`
}

// Default returns the preferences used before anything is saved
func Default() Prefs {
	return Prefs{SidebarOpen: true}
}

// Store reads and writes Prefs as TOML at a fixed path
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file
func (s *Store) Path() string {
	return s.path
}

// Load returns the saved preferences, or Default when the file is missing
func (s *Store) Load() (Prefs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := Default()
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("failed to read prefs: %w", err)
	}
	if _, err := toml.Decode(string(data), &p); err != nil {
		return Default(), fmt.Errorf("failed to parse prefs: %w", err)
	}
	return p, nil
}

// Save writes p atomically
func (s *Store) Save(p Prefs) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create prefs dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(p); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Update loads, applies fn and saves
func (s *Store) Update(fn func(*Prefs)) (Prefs, error) {
	p, err := s.Load()
	if err != nil {
		return p, err
	}
	fn(&p)
	return p, s.Save(p)
}
