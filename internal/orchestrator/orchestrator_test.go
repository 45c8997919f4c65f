package orchestrator_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/callvia/callvia/internal/identity"
	"github.com/callvia/callvia/internal/orchestrator"
	"github.com/callvia/callvia/internal/stores/calls"
	"github.com/callvia/callvia/pkg/call"
	"github.com/callvia/callvia/pkg/llm"
	"github.com/callvia/callvia/pkg/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// recordingAnalyzer captures enqueued sessions for inspection
type recordingAnalyzer struct {
	mu       sync.Mutex
	sessions []*call.Session
}

func (a *recordingAnalyzer) Enqueue(session *call.Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessions = append(a.sessions, session)
}

func (a *recordingAnalyzer) enqueued() []*call.Session {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]*call.Session, len(a.sessions))
	copy(out, a.sessions)
	return out
}

// testHarness bundles the orchestrator with its test collaborators
type testHarness struct {
	orch     *orchestrator.Orchestrator
	resolver *identity.StaticResolver
	model    *llm.MockClient
	store    *calls.MemoryStore
	analyzer *recordingAnalyzer
}

func newTestHarness(t *testing.T, timeout time.Duration) *testHarness {
	t.Helper()

	resolver := identity.NewStaticResolver(map[string]identity.Binding{
		"+1-800-1000": {AccountID: "A1", OriginNumbers: []string{"+1-555-0000"}},
	})
	model := &llm.MockClient{Replies: []string{"I can help with that."}}
	store := calls.NewMemoryStore()
	analyzer := &recordingAnalyzer{}

	orch, err := orchestrator.NewOrchestrator(utils.NewConfig(nil), &orchestrator.Options{
		Resolver:       resolver,
		Model:          model,
		Store:          store,
		Analyzer:       analyzer,
		SessionTimeout: timeout,
	})
	assert.Nil(t, err)

	return &testHarness{
		orch:     orch,
		resolver: resolver,
		model:    model,
		store:    store,
		analyzer: analyzer,
	}
}

func TestStartSessionHappyPath(t *testing.T) {
	assert := assert.New(t)

	h := newTestHarness(t, 30*time.Minute)
	ctx := context.Background()

	started, err := h.orch.StartSession(ctx, "+1-800-1000", "+1-555-0000")
	assert.Nil(err)
	assert.NotEqual(uuid.Nil, started.SessionID)
	assert.NotEmpty(started.Greeting)

	active := h.orch.ListActiveSessions()
	assert.Len(active, 1)
	assert.Equal("A1", active[0].AccountID)
	assert.LessOrEqual(active[0].RemainingSeconds, 1800)
	assert.Greater(active[0].RemainingSeconds, 1750)
}

func TestStartSessionRejectedCreatesNoState(t *testing.T) {
	assert := assert.New(t)

	h := newTestHarness(t, 30*time.Minute)
	ctx := context.Background()

	// Wrong origin for a bound destination
	_, err := h.orch.StartSession(ctx, "+1-800-1000", "+1-555-9999")
	var rejection *orchestrator.RejectionError
	assert.ErrorAs(err, &rejection)
	assert.Equal(identity.ReasonPhoneMismatch, rejection.Reason)
	assert.NotEmpty(rejection.Message)

	// Unbound destination
	_, err = h.orch.StartSession(ctx, "+1-800-9999", "+1-555-0000")
	assert.ErrorAs(err, &rejection)
	assert.Equal(identity.ReasonNotAssigned, rejection.Reason)

	assert.Empty(h.orch.ListActiveSessions())
}

// failingResolver always returns a transient error
type failingResolver struct{}

func (r *failingResolver) Resolve(ctx context.Context, destinationNumber, originNumber string) (identity.Result, error) {
	return identity.Result{}, fmt.Errorf("lookup backend unreachable")
}

func TestResolverErrorBecomesVerificationRejection(t *testing.T) {
	assert := assert.New(t)

	h := newTestHarness(t, 30*time.Minute)

	orch, err := orchestrator.NewOrchestrator(utils.NewConfig(nil), &orchestrator.Options{
		Resolver:       &failingResolver{},
		Model:          h.model,
		Store:          h.store,
		Analyzer:       h.analyzer,
		SessionTimeout: 30 * time.Minute,
	})
	assert.Nil(err)

	_, err = orch.StartSession(context.Background(), "+1-800-1000", "+1-555-0000")
	var rejection *orchestrator.RejectionError
	assert.ErrorAs(err, &rejection)
	assert.Equal(identity.ReasonVerificationError, rejection.Reason)
}

func TestSubmitTurnGrowsTranscript(t *testing.T) {
	assert := assert.New(t)

	h := newTestHarness(t, 30*time.Minute)
	ctx := context.Background()

	started, err := h.orch.StartSession(ctx, "+1-800-1000", "+1-555-0000")
	assert.Nil(err)

	const turns = 4
	for i := 0; i < turns; i++ {
		result, err := h.orch.SubmitTurn(ctx, started.SessionID, fmt.Sprintf("utterance %d", i))
		assert.Nil(err)
		assert.NotEmpty(result.Reply)
		assert.GreaterOrEqual(result.RemainingSeconds, 0)
	}

	ended, err := h.orch.EndSession(ctx, started.SessionID, "done")
	assert.Nil(err)
	assert.NotEmpty(ended.FinalMessage)

	// Greeting plus one caller and one system turn per submit
	sessions := h.analyzer.enqueued()
	assert.Len(sessions, 1)
	transcript := sessions[0].Transcript()
	assert.Len(transcript, 1+2*turns)

	assert.Equal(call.SpeakerSystem, transcript[0].Speaker)
	for i := 0; i < turns; i++ {
		assert.Equal(call.SpeakerCaller, transcript[1+2*i].Speaker)
		assert.Equal(fmt.Sprintf("utterance %d", i), transcript[1+2*i].Text)
		assert.Equal(call.SpeakerSystem, transcript[2+2*i].Speaker)
	}
}

func TestSubmitTurnModelFailureDegrades(t *testing.T) {
	assert := assert.New(t)

	h := newTestHarness(t, 30*time.Minute)
	h.model.Fail = true
	ctx := context.Background()

	started, err := h.orch.StartSession(ctx, "+1-800-1000", "+1-555-0000")
	assert.Nil(err)

	// Turn submission never errors because the model is down
	result, err := h.orch.SubmitTurn(ctx, started.SessionID, "I run a bakery")
	assert.Nil(err)
	assert.NotEmpty(result.Reply)
	assert.GreaterOrEqual(result.RemainingSeconds, 0)

	// The fallback reply still lands in the transcript
	_, err = h.orch.EndSession(ctx, started.SessionID, "")
	assert.Nil(err)
	transcript := h.analyzer.enqueued()[0].Transcript()
	assert.Len(transcript, 3)
	assert.Equal(call.SpeakerSystem, transcript[2].Speaker)
	assert.NotEmpty(transcript[2].Text)
}

func TestSubmitTurnUnknownSession(t *testing.T) {
	assert := assert.New(t)

	h := newTestHarness(t, 30*time.Minute)

	_, err := h.orch.SubmitTurn(context.Background(), uuid.New(), "hello?")
	assert.ErrorIs(err, call.ErrSessionNotFound)
}

func TestEndSessionTwice(t *testing.T) {
	assert := assert.New(t)

	h := newTestHarness(t, 30*time.Minute)
	ctx := context.Background()

	started, err := h.orch.StartSession(ctx, "+1-800-1000", "+1-555-0000")
	assert.Nil(err)

	ended, err := h.orch.EndSession(ctx, started.SessionID, "caller hung up")
	assert.Nil(err)
	assert.NotEmpty(ended.FinalMessage)
	assert.GreaterOrEqual(ended.DurationSeconds, 0)

	// The second end observes the session already gone
	_, err = h.orch.EndSession(ctx, started.SessionID, "again")
	assert.ErrorIs(err, call.ErrSessionNotFound)

	// A turn after the end observes the same
	_, err = h.orch.SubmitTurn(ctx, started.SessionID, "hello?")
	assert.ErrorIs(err, call.ErrSessionNotFound)

	// Finalization persisted and enqueued exactly once
	finalized, exists := h.store.GetFinalizedCall(started.SessionID)
	assert.True(exists)
	assert.Equal(call.EndReasonManual, finalized.Session.EndReason())
	assert.Len(h.analyzer.enqueued(), 1)
}

func TestDeadlineExpiryFinalizesWithTimeout(t *testing.T) {
	assert := assert.New(t)

	h := newTestHarness(t, 50*time.Millisecond)
	ctx := context.Background()

	started, err := h.orch.StartSession(ctx, "+1-800-1000", "+1-555-0000")
	assert.Nil(err)
	assert.Len(h.orch.ListActiveSessions(), 1)

	time.Sleep(200 * time.Millisecond)

	assert.Empty(h.orch.ListActiveSessions())

	finalized, exists := h.store.GetFinalizedCall(started.SessionID)
	assert.True(exists)
	assert.Equal(call.EndReasonTimeout, finalized.Session.EndReason())
	assert.Len(h.analyzer.enqueued(), 1)

	// The expired session is gone for callers too
	_, err = h.orch.SubmitTurn(ctx, started.SessionID, "still there?")
	assert.ErrorIs(err, call.ErrSessionNotFound)
}

func TestManualEndAndTimeoutRace(t *testing.T) {
	assert := assert.New(t)

	h := newTestHarness(t, 30*time.Millisecond)
	ctx := context.Background()

	started, err := h.orch.StartSession(ctx, "+1-800-1000", "+1-555-0000")
	assert.Nil(err)

	// End manually right around the deadline; whichever trigger wins, the
	// session is finalized exactly once
	time.Sleep(25 * time.Millisecond)
	h.orch.EndSession(ctx, started.SessionID, "racing the deadline")
	time.Sleep(100 * time.Millisecond)

	assert.Empty(h.orch.ListActiveSessions())
	assert.Len(h.analyzer.enqueued(), 1)

	_, exists := h.store.GetFinalizedCall(started.SessionID)
	assert.True(exists)
}

// blockingModel holds every completion until released, simulating a reply
// still in flight when termination triggers fire
type blockingModel struct {
	entered chan struct{}
	release chan struct{}
}

func (m *blockingModel) Complete(ctx context.Context, framing string, window []call.Turn, input string) (string, error) {
	m.entered <- struct{}{}
	<-m.release
	return "Sounds like a busy kitchen.", nil
}

func TestEndWaitsForInFlightTurn(t *testing.T) {
	assert := assert.New(t)

	h := newTestHarness(t, 30*time.Minute)
	ctx := context.Background()

	model := &blockingModel{entered: make(chan struct{}), release: make(chan struct{})}
	orch, err := orchestrator.NewOrchestrator(utils.NewConfig(nil), &orchestrator.Options{
		Resolver:       h.resolver,
		Model:          model,
		Store:          h.store,
		Analyzer:       h.analyzer,
		SessionTimeout: 30 * time.Minute,
	})
	assert.Nil(err)

	started, err := orch.StartSession(ctx, "+1-800-1000", "+1-555-0000")
	assert.Nil(err)

	// Suspend a turn inside the model call
	turnDone := make(chan error, 1)
	go func() {
		_, err := orch.SubmitTurn(ctx, started.SessionID, "I run a bakery")
		turnDone <- err
	}()
	<-model.entered

	endDone := make(chan error, 1)
	go func() {
		_, err := orch.EndSession(ctx, started.SessionID, "hanging up mid-reply")
		endDone <- err
	}()

	// Finalization waits behind the suspended turn rather than capturing a
	// transcript that ends mid-pair
	select {
	case err := <-endDone:
		t.Fatalf("finalization did not wait for the in-flight turn: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(model.release)
	assert.Nil(<-turnDone)
	assert.Nil(<-endDone)

	// The persisted transcript ends on the completed caller/system pair
	finalized, exists := h.store.GetFinalizedCall(started.SessionID)
	assert.True(exists)
	transcript := finalized.Session.Transcript()
	assert.Len(transcript, 3)
	assert.Equal(call.SpeakerCaller, transcript[1].Speaker)
	assert.Equal(call.SpeakerSystem, transcript[2].Speaker)

	// A turn arriving after the handoff is refused and nothing grows
	_, err = orch.SubmitTurn(ctx, started.SessionID, "one more thing")
	assert.ErrorIs(err, call.ErrSessionNotFound)
	assert.Len(finalized.Session.Transcript(), 3)
}

func TestEndMessagesDifferByReason(t *testing.T) {
	assert := assert.New(t)

	messages := orchestrator.DefaultMessages()
	assert.NotEqual(messages.EndMessage(call.EndReasonManual), messages.EndMessage(call.EndReasonTimeout))
}

func TestReapExpired(t *testing.T) {
	assert := assert.New(t)

	h := newTestHarness(t, 20*time.Millisecond)
	ctx := context.Background()

	started, err := h.orch.StartSession(ctx, "+1-800-1000", "+1-555-0000")
	assert.Nil(err)

	// Let the deadline pass, then reap. The per-session timer usually wins
	// this race; either way the session ends exactly once with TIMEOUT.
	time.Sleep(100 * time.Millisecond)
	h.orch.ReapExpired()

	assert.Empty(h.orch.ListActiveSessions())
	finalized, exists := h.store.GetFinalizedCall(started.SessionID)
	assert.True(exists)
	assert.Equal(call.EndReasonTimeout, finalized.Session.EndReason())
	assert.Len(h.analyzer.enqueued(), 1)
}

func TestShutdownDrainsActiveSessions(t *testing.T) {
	assert := assert.New(t)

	h := newTestHarness(t, 30*time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := h.orch.StartSession(ctx, "+1-800-1000", "+1-555-0000")
		assert.Nil(err)
	}

	h.orch.Shutdown(ctx)

	assert.Empty(h.orch.ListActiveSessions())
	sessions := h.analyzer.enqueued()
	assert.Len(sessions, 3)
	for _, session := range sessions {
		assert.Equal(call.EndReasonError, session.EndReason())
	}
}

func TestConcurrentTurnsStayOrderedPerSession(t *testing.T) {
	assert := assert.New(t)

	h := newTestHarness(t, 30*time.Minute)
	ctx := context.Background()

	started, err := h.orch.StartSession(ctx, "+1-800-1000", "+1-555-0000")
	assert.Nil(err)

	const turns = 8
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := h.orch.SubmitTurn(ctx, started.SessionID, fmt.Sprintf("turn %d", i))
			assert.Nil(err)
		}(i)
	}
	wg.Wait()

	_, err = h.orch.EndSession(ctx, started.SessionID, "")
	assert.Nil(err)

	// Each submission contributes an adjacent caller/system pair; pairs
	// never interleave even under concurrent submission
	transcript := h.analyzer.enqueued()[0].Transcript()
	assert.Len(transcript, 1+2*turns)
	for i := 0; i < turns; i++ {
		assert.Equal(call.SpeakerCaller, transcript[1+2*i].Speaker)
		assert.Equal(call.SpeakerSystem, transcript[2+2*i].Speaker)
	}
}
