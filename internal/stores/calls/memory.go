package calls

import (
	"context"
	"fmt"
	"sync"

	"github.com/callvia/callvia/internal/analysis"
	"github.com/callvia/callvia/pkg/call"
	"github.com/google/uuid"
)

// FinalizedCall is the in-memory form of a persisted call
type FinalizedCall struct {
	Session    *call.Session
	Transcript []call.Turn
}

// MemoryStore is an in-memory call store for tests and one-off operations
type MemoryStore struct {
	mu       sync.RWMutex
	calls    map[uuid.UUID]*FinalizedCall
	results  map[uuid.UUID][]*analysis.Result
	contacts map[string]string // accountID -> contact email
}

// NewMemoryStore creates a new in-memory call store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		calls:    make(map[uuid.UUID]*FinalizedCall),
		results:  make(map[uuid.UUID][]*analysis.Result),
		contacts: make(map[string]string),
	}
}

// SetContact registers a contact address for an account
func (s *MemoryStore) SetContact(accountID, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts[accountID] = email
}

// SaveFinalizedCall stores a finalized session in memory
func (s *MemoryStore) SaveFinalizedCall(ctx context.Context, session *call.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.calls[session.ID]; exists {
		return fmt.Errorf("call %s already persisted", session.ID)
	}

	s.calls[session.ID] = &FinalizedCall{
		Session:    session,
		Transcript: session.Transcript(),
	}
	return nil
}

// SaveAnalysisResult stores an analysis result in memory
func (s *MemoryStore) SaveAnalysisResult(ctx context.Context, result *analysis.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[result.SessionID] = append(s.results[result.SessionID], result)
	return nil
}

// ContactEmail returns the contact address for an account
func (s *MemoryStore) ContactEmail(ctx context.Context, accountID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email, exists := s.contacts[accountID]
	if !exists {
		return "", fmt.Errorf("account not found")
	}
	return email, nil
}

// GetFinalizedCall returns a persisted call, if present
func (s *MemoryStore) GetFinalizedCall(id uuid.UUID) (*FinalizedCall, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	finalized, exists := s.calls[id]
	return finalized, exists
}

// GetAnalysisResults returns the persisted results for a session
func (s *MemoryStore) GetAnalysisResults(id uuid.UUID) []*analysis.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := s.results[id]
	out := make([]*analysis.Result, len(results))
	copy(out, results)
	return out
}
