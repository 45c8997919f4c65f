package call

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DeadlineManager schedules the hard per-session expiry timers. Each armed
// timer fires its callback at most once; Disarm cancels a pending timer and
// is a no-op after the timer has already fired.
type DeadlineManager struct {
	mu     sync.Mutex
	timers map[uuid.UUID]*time.Timer
}

// NewDeadlineManager creates an empty deadline manager
func NewDeadlineManager() *DeadlineManager {
	return &DeadlineManager{
		timers: make(map[uuid.UUID]*time.Timer),
	}
}

// Arm schedules onExpire to run after d. The duration is fixed from the
// moment of arming; turn activity never refreshes it.
func (m *DeadlineManager) Arm(id uuid.UUID, d time.Duration, onExpire func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Replace any stale timer for the same id
	if old, exists := m.timers[id]; exists {
		old.Stop()
	}

	m.timers[id] = time.AfterFunc(d, func() {
		m.mu.Lock()
		delete(m.timers, id)
		m.mu.Unlock()

		onExpire()
	})
}

// Disarm cancels a pending timer. If the timer already fired (or was never
// armed) this is a no-op; the expiry callback may still run, and must find
// the session already finalized.
func (m *DeadlineManager) Disarm(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if timer, exists := m.timers[id]; exists {
		timer.Stop()
		delete(m.timers, id)
	}
}

// Stop cancels all pending timers
func (m *DeadlineManager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, timer := range m.timers {
		timer.Stop()
		delete(m.timers, id)
	}
}
