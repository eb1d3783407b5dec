// File: internal/shared/session.go
package shared

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrNotAuthenticated is returned by any operation that needs an owner id
// while no session is active. Callers fail fast on it instead of attempting
// a network call.
var ErrNotAuthenticated = errors.New("not authenticated")

// Claims is the resolved identity behind a bearer token. Authentication
// itself is an external concern; this engine only consumes the result.
type Claims struct {
	OwnerID uuid.UUID
}

// TokenVerifier resolves a bearer token to claims. Implemented outside this
// module by the session/authentication system.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// Session exposes the current owner to engine components. One session is
// active at a time; OwnerID returns ErrNotAuthenticated when none is.
type Session interface {
	OwnerID() (uuid.UUID, error)
}

// MemorySession is a concurrency-safe Session holder, set by the session
// lifecycle owner on sign-in and cleared on sign-out.
type MemorySession struct {
	mu      sync.RWMutex
	ownerID uuid.UUID
	active  bool
}

// NewMemorySession creates an unauthenticated session holder.
func NewMemorySession() *MemorySession {
	return &MemorySession{}
}

// Activate installs the owner for the current session.
func (s *MemorySession) Activate(ownerID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ownerID = ownerID
	s.active = true
}

// Clear ends the current session.
func (s *MemorySession) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ownerID = uuid.Nil
	s.active = false
}

// OwnerID implements Session.
func (s *MemorySession) OwnerID() (uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.active {
		return uuid.Nil, ErrNotAuthenticated
	}
	return s.ownerID, nil
}
