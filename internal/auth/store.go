package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/oauth2"
)

// Credentials is the on-disk login state
type Credentials struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type,omitempty"`
	Expiry      time.Time `json:"expiry,omitempty"`
	Email       string    `json:"email,omitempty"`
	Seq         int       `json:"seq"` // Sequence number to detect changes
}

// OAuthToken converts the credentials to an oauth2 token
func (c *Credentials) OAuthToken() *oauth2.Token {
	tokenType := c.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &oauth2.Token{
		AccessToken: c.AccessToken,
		TokenType:   tokenType,
		Expiry:      c.Expiry,
	}
}

// Store reads and writes the credentials file
type Store struct {
	path string
	mu   sync.Mutex
	seq  int
}

// NewStore creates a store for the credentials file at path
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create credentials directory: %w", err)
	}

	store := &Store{path: path}

	// Initialize seq from existing file if present
	if creds, err := store.Read(); err == nil && creds != nil {
		store.seq = creds.Seq
	}

	return store, nil
}

// Write replaces the stored credentials
func (s *Store) Write(creds *Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	creds.Seq = s.seq

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	// Write to temp file first for atomic update
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename credentials file: %w", err)
	}

	return nil
}

// Read returns the stored credentials, or nil when logged out
func (s *Store) Read() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}

	return &creds, nil
}

// Clear removes the credentials file
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to clear credentials file: %w", err)
	}
	return nil
}

// Watch returns a channel that receives the credentials whenever the file
// changes. A nil value means the file was removed.
func (s *Store) Watch(ctx context.Context) (<-chan *Credentials, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory, the file may not exist yet
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	credsChan := make(chan *Credentials, 1)
	name := filepath.Base(s.path)

	go func() {
		defer watcher.Close()
		defer close(credsChan)

		lastSeq := -1

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != name {
					continue
				}

				var next *Credentials
				switch {
				case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
					creds, err := s.Read()
					if err != nil || creds == nil || creds.Seq == lastSeq {
						continue
					}
					lastSeq = creds.Seq
					next = creds
				case event.Op&fsnotify.Remove != 0:
					lastSeq = -1
				default:
					continue
				}

				select {
				case credsChan <- next:
				case <-ctx.Done():
					return
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return credsChan, nil
}

// Path returns the credentials file location
func (s *Store) Path() string {
	return s.path
}
