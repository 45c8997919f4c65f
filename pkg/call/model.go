package call

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Speaker identifies who produced a turn in a call transcript
type Speaker string

const (
	SpeakerCaller Speaker = "CALLER"
	SpeakerSystem Speaker = "SYSTEM"
)

// Status represents the lifecycle state of a session
type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusEnded  Status = "ENDED"
)

// EndReason records why a session was finalized
type EndReason string

const (
	EndReasonManual  EndReason = "MANUAL"
	EndReasonTimeout EndReason = "TIMEOUT"
	EndReasonError   EndReason = "ERROR"
)

// Turn is a single utterance in a session's transcript
type Turn struct {
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Session holds the live state of one call for its active lifetime.
// The registry owns sessions while they are active; at finalization the
// state is handed to the durable store and the in-memory copy discarded.
type Session struct {
	ID                uuid.UUID
	AccountID         string
	OriginNumber      string
	DestinationNumber string
	StartedAt         time.Time
	Deadline          time.Time

	mu         sync.Mutex
	status     Status
	transcript []Turn
	endedAt    time.Time
	endReason  EndReason

	// turnMu serializes turn processing for this session. It is held across
	// the model call so a session never observes interleaved turns.
	turnMu sync.Mutex
}

// NewSession creates an active session with an empty transcript
func NewSession(id uuid.UUID, accountID, origin, destination string, timeout time.Duration) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:                id,
		AccountID:         accountID,
		OriginNumber:      origin,
		DestinationNumber: destination,
		StartedAt:         now,
		Deadline:          now.Add(timeout),
		status:            StatusActive,
	}
}

// Status returns the current lifecycle state
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Append adds a turn to the transcript, stamping it if unstamped
func (s *Session) Append(turn Turn) {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, turn)
}

// Transcript returns a copy of the transcript in insertion order
func (s *Session) Transcript() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Turn, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Window returns a copy of the most recent n turns in insertion order.
// Older turns are dropped from the window but remain in the transcript.
func (s *Session) Window(n int) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := 0
	if n >= 0 && len(s.transcript) > n {
		start = len(s.transcript) - n
	}

	out := make([]Turn, len(s.transcript)-start)
	copy(out, s.transcript[start:])
	return out
}

// End transitions the session to ENDED exactly once. The first caller wins
// and gets true; any concurrent or later caller gets false and must treat
// the session as already finalized.
func (s *Session) End(reason EndReason) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusEnded {
		return false
	}

	s.status = StatusEnded
	s.endReason = reason
	s.endedAt = time.Now().UTC()
	return true
}

// EndedAt returns the finalization timestamp (zero if still active)
func (s *Session) EndedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endedAt
}

// EndReason returns the finalization reason (empty if still active)
func (s *Session) EndReason() EndReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endReason
}

// Duration returns how long the session lasted. For an active session this
// is the elapsed time so far.
func (s *Session) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusEnded {
		return s.endedAt.Sub(s.StartedAt)
	}
	return time.Since(s.StartedAt)
}

// Remaining returns the time left until the session deadline, clamped to zero
func (s *Session) Remaining() time.Duration {
	remaining := time.Until(s.Deadline)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// LockTurns acquires the per-session turn lock
func (s *Session) LockTurns() { s.turnMu.Lock() }

// UnlockTurns releases the per-session turn lock
func (s *Session) UnlockTurns() { s.turnMu.Unlock() }
