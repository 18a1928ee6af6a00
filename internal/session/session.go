// Package session carries the authenticated operator's bearer token. A
// Session is created at login and passed explicitly to everything that talks
// to the plant service; it is invalidated at logout or when the service
// rejects the token.
package session

import (
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/plantwatch/internal/model"
)

// ErrInvalid is returned for any use of an invalidated or empty session.
var ErrInvalid = eris.New("session: not authenticated")

// Session is safe for concurrent use.
type Session struct {
	token string
	user  model.User

	mu     sync.RWMutex
	reason string
	valid  bool
}

// New starts a session. An empty token yields an already-invalid session.
func New(token string, user model.User) *Session {
	s := &Session{token: token, user: user, valid: token != ""}
	if !s.valid {
		s.reason = "empty token"
	}
	return s
}

// Token returns the bearer token, or ErrInvalid once the session has ended.
func (s *Session) Token() (string, error) {
	if s == nil {
		return "", ErrInvalid
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.valid {
		return "", eris.Wrap(ErrInvalid, s.reason)
	}
	return s.token, nil
}

// User returns the operator the session was opened for.
func (s *Session) User() model.User {
	if s == nil {
		return model.User{}
	}
	return s.user
}

// Valid reports whether the session can still be used.
func (s *Session) Valid() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.valid
}

// Invalidate ends the session. The first reason is kept.
func (s *Session) Invalidate(reason string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.valid {
		return
	}
	s.valid = false
	s.reason = reason
}

// Reason returns why the session ended, or "" while it is valid.
func (s *Session) Reason() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reason
}
