// Package session owns the bearer token.
//
// A Session is hydrated from storage once and is then the only place the
// controller reads the token from. Writes go straight through to storage so
// the next Session built for the same key sees them.
package session

import (
	"fmt"
	"sync"

	"diabetes-console/internal/storage"
)

// TokenKey is the fixed storage key of the bearer token.
const TokenKey = "accessToken"

// Session holds the credential for one browser or one CLI user.
type Session struct {
	store storage.Store
	key   string

	mu    sync.RWMutex
	token string
}

// Load hydrates a Session from store under key.
func Load(store storage.Store, key string) (*Session, error) {
	tok, ok, err := store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	s := &Session{store: store, key: key}
	if ok {
		s.token = tok
	}
	return s, nil
}

// Key returns the storage key backing this session.
func (s *Session) Key() string {
	return s.key
}

// Token returns the bearer token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// LoggedIn reports whether a token is present.
func (s *Session) LoggedIn() bool {
	return s.Token() != ""
}

// SetToken persists tok and makes it current.
func (s *Session) SetToken(tok string) error {
	if tok == "" {
		return s.Clear()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Set(s.key, tok); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	s.token = tok
	return nil
}

// Clear forgets the token. The in-memory copy is dropped even when the
// store fails, so a broken store can never keep a user logged in.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	if err := s.store.Delete(s.key); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}
