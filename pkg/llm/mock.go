package llm

import (
	"context"
	"errors"
	"sync"

	"github.com/callvia/callvia/pkg/call"
)

// ErrUnavailable is the transient failure a MockClient returns when scripted
// to fail, standing in for timeouts and outages of the real API
var ErrUnavailable = errors.New("language model unavailable")

// MockClient is a scriptable Client for tests. Replies are returned in
// order; once exhausted, the last reply repeats. Set Fail to make every
// call return ErrUnavailable.
type MockClient struct {
	mu      sync.Mutex
	Replies []string
	Fail    bool

	calls []string
	next  int
}

// Complete returns the next scripted reply or ErrUnavailable
func (m *MockClient) Complete(ctx context.Context, framing string, window []call.Turn, input string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, input)

	if m.Fail {
		return "", ErrUnavailable
	}
	if len(m.Replies) == 0 {
		return "", ErrUnavailable
	}

	reply := m.Replies[m.next]
	if m.next < len(m.Replies)-1 {
		m.next++
	}
	return reply, nil
}

// Calls returns the inputs received so far
func (m *MockClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}
