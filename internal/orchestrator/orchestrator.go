// Package orchestrator owns the lifecycle of live call sessions: identity
// verification, turn exchange with the language model, deadline enforcement,
// and exactly-once finalization into the analysis pipeline.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/callvia/callvia/internal/identity"
	"github.com/callvia/callvia/pkg/call"
	"github.com/callvia/callvia/pkg/llm"
	"github.com/callvia/callvia/pkg/utils"
	"github.com/google/uuid"
)

const (
	// DefaultSessionTimeoutMinutes is the hard cap on call duration. It is
	// fixed at session start and never refreshed by turn activity.
	DefaultSessionTimeoutMinutes = 30

	// DefaultWindowTurns is how many recent turns are sent with each model
	// request. Older turns stay in the transcript but leave the prompt.
	DefaultWindowTurns = 10
)

// CallStore is the persistence collaborator for finalized sessions
type CallStore interface {
	SaveFinalizedCall(ctx context.Context, session *call.Session) error
}

// Analyzer receives finalized sessions for out-of-band analysis
type Analyzer interface {
	Enqueue(session *call.Session)
}

// RejectionError is returned when a caller is not permitted to start a
// session. Message is the caller-facing text.
type RejectionError struct {
	Reason  identity.Reason
	Message string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("session rejected: %s", e.Reason)
}

// Options carries the orchestrator's collaborators
type Options struct {
	Resolver identity.Resolver
	Model    llm.Client
	Store    CallStore
	Analyzer Analyzer
	Messages *Messages

	// SessionTimeout overrides the configured timeout when non-zero
	SessionTimeout time.Duration
}

// Orchestrator coordinates the session registry, deadline manager, and
// collaborators. Construct one per process and inject it where needed; it
// holds no global state.
type Orchestrator struct {
	registry  *call.Registry
	deadlines *call.DeadlineManager

	resolver identity.Resolver
	model    llm.Client
	store    CallStore
	analyzer Analyzer
	messages *Messages

	timeout     time.Duration
	windowTurns int
}

// NewOrchestrator creates an orchestrator from configuration and collaborators
func NewOrchestrator(cfg *utils.Config, opts *Options) (*Orchestrator, error) {
	if opts == nil || opts.Resolver == nil || opts.Model == nil || opts.Store == nil || opts.Analyzer == nil {
		return nil, fmt.Errorf("resolver, model, store, and analyzer must all be provided")
	}

	messages := opts.Messages
	if messages == nil {
		messages = LoadMessages(cfg.Get("CALL_MESSAGES_FILE"))
	}

	// The model framing can also live in a plain text file, which is easier
	// to iterate on than the full catalog
	if framingFile := cfg.Get("CALL_FRAMING_FILE"); framingFile != "" {
		messages.SystemFraming = utils.LoadPromptWithFallback(framingFile, messages.SystemFraming)
	}

	timeout := opts.SessionTimeout
	if timeout <= 0 {
		timeoutMinutes := cfg.GetIntWithDefault("CALL_SESSION_TIMEOUT_MINUTES", DefaultSessionTimeoutMinutes)
		if timeoutMinutes <= 0 {
			timeoutMinutes = DefaultSessionTimeoutMinutes
		}
		timeout = time.Duration(timeoutMinutes) * time.Minute
	}

	windowTurns := cfg.GetIntWithDefault("CALL_CONTEXT_WINDOW_TURNS", DefaultWindowTurns)
	if windowTurns <= 0 {
		windowTurns = DefaultWindowTurns
	}

	return &Orchestrator{
		registry:    call.NewRegistry(),
		deadlines:   call.NewDeadlineManager(),
		resolver:    opts.Resolver,
		model:       opts.Model,
		store:       opts.Store,
		analyzer:    opts.Analyzer,
		messages:    messages,
		timeout:     timeout,
		windowTurns: windowTurns,
	}, nil
}

// StartResult is returned when a session is created
type StartResult struct {
	SessionID uuid.UUID
	Greeting  string
}

// TurnResult is returned for each processed caller turn
type TurnResult struct {
	Reply            string
	RemainingSeconds int
}

// EndResult is returned when a session is finalized through the manual path
type EndResult struct {
	FinalMessage    string
	DurationSeconds int
}

// SessionSummary is a read-only snapshot row for one active session
type SessionSummary struct {
	SessionID        uuid.UUID
	AccountID        string
	ElapsedSeconds   int
	RemainingSeconds int
}

// StartSession verifies the caller's identity and, on success, registers a
// new session, arms its deadline, and returns the greeting. On rejection no
// session state is created.
func (o *Orchestrator) StartSession(ctx context.Context, destinationNumber, originNumber string) (StartResult, error) {
	resolution, err := o.resolver.Resolve(ctx, destinationNumber, originNumber)
	if err != nil {
		log.Printf("[ORCHESTRATOR]: Identity resolution failed for %s: %v", destinationNumber, err)
		resolution = identity.Invalid(identity.ReasonVerificationError)
	}

	if !resolution.Valid {
		return StartResult{}, &RejectionError{
			Reason:  resolution.Reason,
			Message: o.messages.RejectionMessage(resolution.Reason),
		}
	}

	id := uuid.New()
	session, err := o.registry.Create(id, resolution.AccountID, originNumber, destinationNumber, o.timeout)
	if err != nil {
		// A uuid collision means the generator is broken; surface it
		log.Printf("[ORCHESTRATOR]: Session id collision on %s: %v", id, err)
		return StartResult{}, fmt.Errorf("failed to create session: %w", err)
	}

	session.Append(call.Turn{Speaker: call.SpeakerSystem, Text: o.messages.Greeting})

	o.deadlines.Arm(id, o.timeout, func() {
		if _, err := o.finalize(context.Background(), id, call.EndReasonTimeout); err != nil && !errors.Is(err, call.ErrSessionNotFound) {
			log.Printf("[ORCHESTRATOR]: Timeout finalization of %s failed: %v", id, err)
		}
	})

	log.Printf("[ORCHESTRATOR]: Session %s started for account %s", id, resolution.AccountID)

	return StartResult{SessionID: id, Greeting: o.messages.Greeting}, nil
}

// SubmitTurn processes one caller utterance. Model failures degrade to the
// fallback reply; the transcript grows by two turns either way, and the
// call never fails because the model is down.
func (o *Orchestrator) SubmitTurn(ctx context.Context, id uuid.UUID, text string) (TurnResult, error) {
	session, err := o.registry.Get(id)
	if err != nil {
		return TurnResult{}, err
	}

	// Turns for one session are processed strictly in submission order
	session.LockTurns()
	defer session.UnlockTurns()

	// The session may have been finalized between lookup and lock
	if session.Status() != call.StatusActive {
		return TurnResult{}, call.ErrSessionNotFound
	}

	window := session.Window(o.windowTurns)
	session.Append(call.Turn{Speaker: call.SpeakerCaller, Text: text})

	reply, err := o.model.Complete(ctx, o.messages.SystemFraming, window, text)
	if err != nil {
		log.Printf("[ORCHESTRATOR]: Model call failed for session %s: %v", id, err)
		reply = o.messages.FallbackReply
	}

	session.Append(call.Turn{Speaker: call.SpeakerSystem, Text: reply})

	return TurnResult{
		Reply:            reply,
		RemainingSeconds: int(session.Remaining().Seconds()),
	}, nil
}

// EndSession finalizes a session through the manual path. The manual reason
// is free text from the caller side and is recorded in the log only; the
// stored end reason is MANUAL.
func (o *Orchestrator) EndSession(ctx context.Context, id uuid.UUID, manualReason string) (EndResult, error) {
	if manualReason != "" {
		log.Printf("[ORCHESTRATOR]: Session %s ending manually: %s", id, manualReason)
	}
	return o.finalize(ctx, id, call.EndReasonManual)
}

// ListActiveSessions returns a point-in-time snapshot of live sessions
func (o *Orchestrator) ListActiveSessions() []SessionSummary {
	sessions := o.registry.Snapshot()

	summaries := make([]SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		if session.Status() != call.StatusActive {
			continue
		}
		summaries = append(summaries, SessionSummary{
			SessionID:        session.ID,
			AccountID:        session.AccountID,
			ElapsedSeconds:   int(session.Duration().Seconds()),
			RemainingSeconds: int(session.Remaining().Seconds()),
		})
	}

	return summaries
}

// ReapExpired finalizes any active session whose deadline has passed without
// its timer firing. Normally the per-session timers handle expiry; this is
// the janitor behind them. Returns how many sessions were reaped.
func (o *Orchestrator) ReapExpired() int {
	reaped := 0
	for _, session := range o.registry.Snapshot() {
		if session.Status() == call.StatusActive && session.Remaining() == 0 {
			if _, err := o.finalize(context.Background(), session.ID, call.EndReasonTimeout); err == nil {
				reaped++
			}
		}
	}
	return reaped
}

// Shutdown finalizes all remaining sessions with reason ERROR and stops the
// deadline manager. Called once at process exit, before the analysis
// pipeline is stopped so the drained sessions still get analyzed.
func (o *Orchestrator) Shutdown(ctx context.Context) {
	for _, session := range o.registry.Snapshot() {
		if _, err := o.finalize(ctx, session.ID, call.EndReasonError); err != nil && !errors.Is(err, call.ErrSessionNotFound) {
			log.Printf("[ORCHESTRATOR]: Shutdown finalization of %s failed: %v", session.ID, err)
		}
	}
	o.deadlines.Stop()
}

// finalize performs the exactly-once ACTIVE to ENDED transition. The status
// check-and-set on the session decides the winner between racing triggers;
// the loser observes the session gone and does nothing further. Persistence
// failure is logged but never blocks registry cleanup.
func (o *Orchestrator) finalize(ctx context.Context, id uuid.UUID, reason call.EndReason) (EndResult, error) {
	session, err := o.registry.Get(id)
	if err != nil {
		return EndResult{}, err
	}

	// An in-flight turn holds this lock across its model call. Waiting on it
	// means the turn completes its caller/system pair before the transition,
	// and any turn arriving afterwards observes the ENDED status.
	session.LockTurns()
	if !session.End(reason) {
		// Another trigger won the race
		session.UnlockTurns()
		return EndResult{}, call.ErrSessionNotFound
	}
	session.UnlockTurns()

	o.deadlines.Disarm(id)

	duration := session.Duration()

	if err := o.store.SaveFinalizedCall(ctx, session); err != nil {
		log.Printf("[ORCHESTRATOR]: Failed to persist session %s: %v", id, err)
	}

	finalMessage := o.messages.EndMessage(reason)

	o.registry.Remove(id)
	o.analyzer.Enqueue(session)

	log.Printf("[ORCHESTRATOR]: Session %s ended (%s) after %s", id, reason, duration.Round(time.Second))

	return EndResult{
		FinalMessage:    finalMessage,
		DurationSeconds: int(duration.Seconds()),
	}, nil
}
