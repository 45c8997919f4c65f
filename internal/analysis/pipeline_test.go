package analysis_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/callvia/callvia/internal/analysis"
	"github.com/callvia/callvia/internal/stores/calls"
	"github.com/callvia/callvia/pkg/call"
	"github.com/callvia/callvia/pkg/llm"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// recordingNotifier captures delivered notifications and optionally fails
type recordingNotifier struct {
	mu       sync.Mutex
	fail     bool
	contacts []string
	results  []*analysis.Result
}

func (n *recordingNotifier) SendAnalysisNotification(ctx context.Context, contact string, result *analysis.Result) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.fail {
		return fmt.Errorf("mail relay down")
	}
	n.contacts = append(n.contacts, contact)
	n.results = append(n.results, result)
	return nil
}

func (n *recordingNotifier) delivered() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]string, len(n.contacts))
	copy(out, n.contacts)
	return out
}

func newFinalizedSession() *call.Session {
	session := call.NewSession(uuid.New(), "A1", "+1-555-0000", "+1-800-1000", 30*time.Minute)
	session.Append(call.Turn{Speaker: call.SpeakerSystem, Text: "Hello! How can I help?"})
	session.Append(call.Turn{Speaker: call.SpeakerCaller, Text: "I run a bakery and spend hours on order calls."})
	session.Append(call.Turn{Speaker: call.SpeakerSystem, Text: "Tell me more about your order volume."})
	session.End(call.EndReasonManual)
	return session
}

func TestPipelinePersistsParsedResult(t *testing.T) {
	assert := assert.New(t)

	store := calls.NewMemoryStore()
	store.SetContact("A1", "owner@bakery.test")
	notifier := &recordingNotifier{}
	model := &llm.MockClient{Replies: []string{validExtraction}}

	pipeline := analysis.NewPipeline(model, store, notifier, 10)
	session := newFinalizedSession()
	pipeline.Enqueue(session)
	pipeline.Stop()

	results := store.GetAnalysisResults(session.ID)
	assert.Len(results, 1)
	assert.Equal("A1", results[0].AccountID)
	assert.Len(results[0].Recommendations, 1)
	assert.Equal(validExtraction, results[0].RawModelOutput)
	assert.False(results[0].GeneratedAt.IsZero())

	assert.Equal([]string{"owner@bakery.test"}, notifier.delivered())
}

func TestPipelineUnparseableOutputStillPersistsOnce(t *testing.T) {
	assert := assert.New(t)

	store := calls.NewMemoryStore()
	store.SetContact("A1", "owner@bakery.test")
	notifier := &recordingNotifier{}
	model := &llm.MockClient{Replies: []string{"I'd rather chat than emit JSON."}}

	pipeline := analysis.NewPipeline(model, store, notifier, 10)
	session := newFinalizedSession()
	pipeline.Enqueue(session)
	pipeline.Stop()

	results := store.GetAnalysisResults(session.ID)
	assert.Len(results, 1)
	assert.Empty(results[0].Recommendations)
	assert.Zero(results[0].Savings.HoursPerWeek)
	assert.Zero(results[0].Savings.DollarsPerMonth)

	// The raw output is retained for later inspection
	assert.Equal("I'd rather chat than emit JSON.", results[0].RawModelOutput)
}

func TestPipelineModelFailureStillPersists(t *testing.T) {
	assert := assert.New(t)

	store := calls.NewMemoryStore()
	notifier := &recordingNotifier{}
	model := &llm.MockClient{Fail: true}

	pipeline := analysis.NewPipeline(model, store, notifier, 10)
	session := newFinalizedSession()
	pipeline.Enqueue(session)
	pipeline.Stop()

	results := store.GetAnalysisResults(session.ID)
	assert.Len(results, 1)
	assert.Empty(results[0].Recommendations)
}

func TestPipelineNotificationFailureKeepsResult(t *testing.T) {
	assert := assert.New(t)

	store := calls.NewMemoryStore()
	store.SetContact("A1", "owner@bakery.test")
	notifier := &recordingNotifier{fail: true}
	model := &llm.MockClient{Replies: []string{validExtraction}}

	pipeline := analysis.NewPipeline(model, store, notifier, 10)
	session := newFinalizedSession()
	pipeline.Enqueue(session)
	pipeline.Stop()

	// Delivery failed but the persisted result stands
	assert.Len(store.GetAnalysisResults(session.ID), 1)
	assert.Empty(notifier.delivered())
}

func TestPipelineEnqueueAfterStopIsDropped(t *testing.T) {
	assert := assert.New(t)

	store := calls.NewMemoryStore()
	notifier := &recordingNotifier{}
	model := &llm.MockClient{Replies: []string{validExtraction}}

	pipeline := analysis.NewPipeline(model, store, notifier, 10)
	pipeline.Stop()

	// A finalization racing process shutdown may still hand off a session;
	// the drop must be silent, not a send on the closed queue
	session := newFinalizedSession()
	assert.NotPanics(func() { pipeline.Enqueue(session) })

	assert.Empty(store.GetAnalysisResults(session.ID))
	assert.Empty(notifier.delivered())
}

func TestPipelineMissingContactSkipsNotification(t *testing.T) {
	assert := assert.New(t)

	store := calls.NewMemoryStore()
	notifier := &recordingNotifier{}
	model := &llm.MockClient{Replies: []string{validExtraction}}

	pipeline := analysis.NewPipeline(model, store, notifier, 10)
	session := newFinalizedSession()
	pipeline.Enqueue(session)
	pipeline.Stop()

	assert.Len(store.GetAnalysisResults(session.ID), 1)
	assert.Empty(notifier.delivered())
}
