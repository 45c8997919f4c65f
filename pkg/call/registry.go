package call

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrDuplicateSession is returned when a session id already exists in the registry
	ErrDuplicateSession = errors.New("session already exists")

	// ErrSessionNotFound is returned when a session id is absent from the registry
	ErrSessionNotFound = errors.New("session not found")
)

// Registry is the concurrent keyed store of live sessions. It is the single
// source of truth for whether a session is still active: a session is live
// exactly as long as its entry exists here.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewRegistry creates an empty session registry
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Create adds a new active session to the registry. Concurrent creates for
// the same id produce exactly one winner; losers get ErrDuplicateSession.
func (r *Registry) Create(id uuid.UUID, accountID, origin, destination string, timeout time.Duration) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[id]; exists {
		return nil, ErrDuplicateSession
	}

	session := NewSession(id, accountID, origin, destination, timeout)
	r.sessions[id] = session
	return session, nil
}

// Get retrieves a live session by id
func (r *Registry) Get(id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, exists := r.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Remove deletes a session entry. Removing an absent id is a no-op so that
// racing termination paths can both call it safely.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Snapshot returns the current live sessions. The slice is a point-in-time
// copy; entries may end concurrently after it is taken.
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		out = append(out, session)
	}
	return out
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
