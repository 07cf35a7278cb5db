// Package auth manages the OAuth session: durable token storage, the
// sign-in/callback flow, token validation and refresh, and sign-out.
package auth

import (
	"errors"
	"sync"
)

// Profile is the cached user profile returned by the backend.
type Profile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Picture       string `json:"picture,omitempty"`
	VerifiedEmail bool   `json:"verified_email,omitempty"`
	Locale        string `json:"locale,omitempty"`
	Provider      string `json:"provider,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
	LastLoginAt   string `json:"lastLoginAt,omitempty"`
}

// Session is the durable authentication state. The token pair is opaque; no
// claims are parsed client-side.
type Session struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	User         *Profile `json:"user,omitempty"`
}

// ErrPartialSession is returned when a session would violate the invariant
// that access and refresh tokens are both present or both absent.
var ErrPartialSession = errors.New("session must carry both tokens or neither")

// validate enforces the both-or-neither token invariant.
func (s *Session) validate() error {
	if s == nil {
		return nil
	}
	if (s.AccessToken == "") != (s.RefreshToken == "") {
		return ErrPartialSession
	}
	return nil
}

// Store persists and retrieves the Session. Load returns (nil, nil) when no
// session exists.
type Store interface {
	Load() (*Session, error)
	Save(*Session) error
	Clear() error
}

// MemStore is an in-memory Store used in tests.
type MemStore struct {
	mu   sync.Mutex
	sess *Session
}

func NewMemStore() *MemStore { return &MemStore{} }

func (m *MemStore) Load() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return nil, nil
	}
	cp := *m.sess
	return &cp, nil
}

func (m *MemStore) Save(s *Session) error {
	if err := s.validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sess = &cp
	return nil
}

func (m *MemStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = nil
	return nil
}
