// Package auth supplies the bearer token attached to backend requests.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned by Session.Token when nobody is logged in
var ErrNoToken = errors.New("not logged in")

// Session holds the current token. It implements oauth2.TokenSource.
type Session struct {
	mu       sync.RWMutex
	token    *oauth2.Token
	override string
}

// NewSession creates a session. A non-empty override token always wins over
// stored credentials.
func NewSession(override string) *Session {
	return &Session{override: override}
}

// Token returns the active token or ErrNoToken
func (s *Session) Token() (*oauth2.Token, error) {
	if s.override != "" {
		return &oauth2.Token{AccessToken: s.override, TokenType: "Bearer"}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == nil || !s.token.Valid() {
		return nil, ErrNoToken
	}
	return s.token, nil
}

// Set replaces the stored token. nil logs the session out.
func (s *Session) Set(creds *Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if creds == nil || creds.AccessToken == "" {
		s.token = nil
		return
	}
	s.token = creds.OAuthToken()
}

// LoggedIn reports whether requests will carry a token
func (s *Session) LoggedIn() bool {
	_, err := s.Token()
	return err == nil
}

// Follow loads the stored credentials and keeps the session in sync with the
// file until ctx is done.
func (s *Session) Follow(ctx context.Context, store *Store, logger *slog.Logger) error {
	creds, err := store.Read()
	if err != nil {
		return err
	}
	s.Set(creds)

	updates, err := store.Watch(ctx)
	if err != nil {
		return err
	}

	go func() {
		for creds := range updates {
			s.Set(creds)
			if logger != nil {
				logger.Info("credentials reloaded", "logged_in", s.LoggedIn())
			}
		}
	}()
	return nil
}

// Transport attaches the session token to outgoing requests. Requests are sent
// without an Authorization header when there is no token.
type Transport struct {
	Source oauth2.TokenSource
	Base   http.RoundTripper
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Source == nil {
		return t.base().RoundTrip(req)
	}

	token, err := t.Source.Token()
	if err != nil {
		if errors.Is(err, ErrNoToken) {
			return t.base().RoundTrip(req)
		}
		return nil, err
	}

	authed := req.Clone(req.Context())
	token.SetAuthHeader(authed)
	return t.base().RoundTrip(authed)
}
