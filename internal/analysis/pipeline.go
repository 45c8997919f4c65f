package analysis

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/callvia/callvia/pkg/call"
	"github.com/callvia/callvia/pkg/llm"
)

// ResultStore persists analysis results and resolves account contacts
type ResultStore interface {
	SaveAnalysisResult(ctx context.Context, result *Result) error
	ContactEmail(ctx context.Context, accountID string) (string, error)
}

// Notifier delivers a finished analysis to the account's contact address.
// Delivery is best-effort; failures are logged by the pipeline and never
// retried.
type Notifier interface {
	SendAnalysisNotification(ctx context.Context, contact string, result *Result) error
}

// Pipeline consumes finalized sessions from a buffered queue and analyzes
// them on a background worker, fully isolated from the live call path.
type Pipeline struct {
	model    llm.Client
	store    ResultStore
	notifier Notifier

	queue  chan *call.Session
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu orders Enqueue against Stop so nothing sends on the closed queue
	mu      sync.Mutex
	stopped bool
}

// NewPipeline creates a pipeline and starts its worker. queueDepth bounds
// how many finalized sessions may wait for analysis; beyond that, enqueues
// are dropped with a log line rather than blocking finalization.
func NewPipeline(model llm.Client, store ResultStore, notifier Notifier, queueDepth int) *Pipeline {
	if queueDepth <= 0 {
		queueDepth = 100
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &Pipeline{
		model:    model,
		store:    store,
		notifier: notifier,
		queue:    make(chan *call.Session, queueDepth),
		ctx:      ctx,
		cancel:   cancel,
	}

	p.wg.Add(1)
	go p.run()

	return p
}

// Enqueue hands a finalized session to the pipeline without blocking. The
// caller-facing end-of-call response never waits on analysis. Sessions
// arriving after Stop are dropped.
func (p *Pipeline) Enqueue(session *call.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		log.Printf("[ANALYSIS]: Pipeline stopped, dropping analysis for session %s", session.ID)
		return
	}

	select {
	case p.queue <- session:
	default:
		log.Printf("[ANALYSIS]: Queue full, dropping analysis for session %s", session.ID)
	}
}

// Stop drains the queue and stops the worker. Safe to call once; later
// enqueues become no-ops.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()
}

// run is the worker loop
func (p *Pipeline) run() {
	defer p.wg.Done()

	for session := range p.queue {
		p.process(session)
	}
}

// process analyzes one finalized session. Every failure degrades to the
// fallback result; the result is persisted exactly once either way.
func (p *Pipeline) process(session *call.Session) {
	transcript := session.Transcript()

	// Ask the model for the structured extraction. A failed call decodes
	// the empty string, which yields the fallback result.
	raw, err := p.model.Complete(p.ctx, extractionFraming, nil, buildExtractionInput(transcript))
	if err != nil {
		log.Printf("[ANALYSIS]: Extraction call failed for session %s: %v", session.ID, err)
		raw = ""
	}

	decoded := Decode(raw)
	if !decoded.Parsed && err == nil {
		log.Printf("[ANALYSIS]: Unparseable extraction for session %s, using fallback result", session.ID)
	}

	result := &Result{
		SessionID:          session.ID,
		AccountID:          session.AccountID,
		ExtractedNeeds:     decoded.ExtractedNeeds,
		Recommendations:    decoded.Recommendations,
		GeneratedArtifacts: decoded.GeneratedArtifacts,
		Savings:            decoded.Savings,
		RawModelOutput:     decoded.Raw,
		GeneratedAt:        time.Now().UTC(),
	}

	if err := p.store.SaveAnalysisResult(p.ctx, result); err != nil {
		log.Printf("[ANALYSIS]: Failed to persist result for session %s: %v", session.ID, err)
		return
	}

	p.notify(result)
}

// notify sends the result to the account contact. Failures are logged and
// do not roll back the persisted result.
func (p *Pipeline) notify(result *Result) {
	contact, err := p.store.ContactEmail(p.ctx, result.AccountID)
	if err != nil {
		log.Printf("[ANALYSIS]: No contact for account %s: %v", result.AccountID, err)
		return
	}

	if err := p.notifier.SendAnalysisNotification(p.ctx, contact, result); err != nil {
		log.Printf("[ANALYSIS]: Notification to %s failed: %v", contact, err)
	}
}
