// Package llm wraps the generative-language-model API consumed by the call
// orchestrator and the analysis pipeline.
package llm

import (
	"context"

	"github.com/callvia/callvia/pkg/call"
)

// Client is the language-model collaborator. Complete sends a fixed system
// framing, a bounded window of prior turns, and the new input, and returns
// the model's reply text. Errors are transient from the caller's point of
// view: timeouts and unavailability, never malformed requests.
type Client interface {
	Complete(ctx context.Context, framing string, window []call.Turn, input string) (string, error)
}
