package orchestrator

import (
	"log"
	"os"

	"github.com/callvia/callvia/internal/identity"
	"github.com/callvia/callvia/pkg/call"
	"gopkg.in/yaml.v3"
)

// Messages is the operator-editable catalog of caller-facing text and the
// model framing. Every field has a compiled-in default so the orchestrator
// works without a catalog file.
type Messages struct {
	SystemFraming string `yaml:"system_framing"`
	Greeting      string `yaml:"greeting"`
	FallbackReply string `yaml:"fallback_reply"`

	EndManual  string `yaml:"end_manual"`
	EndTimeout string `yaml:"end_timeout"`
	EndError   string `yaml:"end_error"`

	RejectionNotAssigned       string `yaml:"rejection_not_assigned"`
	RejectionPhoneMismatch     string `yaml:"rejection_phone_mismatch"`
	RejectionVerificationError string `yaml:"rejection_verification_error"`
}

// DefaultMessages returns the built-in catalog
func DefaultMessages() *Messages {
	return &Messages{
		SystemFraming: "You are a helpful assistant for a business phone line. " +
			"Keep replies short and conversational, suitable for being read aloud on a call. " +
			"Ask about the caller's business needs and how they currently handle them.",
		Greeting:      "Hello! Thanks for calling. How can I help you today?",
		FallbackReply: "I'm sorry, I'm having a little trouble right now. Could you say that again?",

		EndManual:  "Thanks for calling. You'll hear from us soon with a summary of what we discussed. Goodbye!",
		EndTimeout: "We've reached the time limit for this call. You'll hear from us soon with a summary. Goodbye!",
		EndError:   "This call has ended. You'll hear from us soon. Goodbye!",

		RejectionNotAssigned:       "This number is not currently in service. Please check the number and try again.",
		RejectionPhoneMismatch:     "We couldn't verify your phone number for this line. Please call from your registered number.",
		RejectionVerificationError: "We couldn't verify this call right now. Please try again in a few minutes.",
	}
}

// LoadMessages loads the catalog from a YAML file over the defaults. A
// missing file returns the defaults; a malformed file logs and returns the
// defaults.
func LoadMessages(path string) *Messages {
	messages := DefaultMessages()
	if path == "" {
		return messages
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[ORCHESTRATOR]: Could not read message catalog %s: %v", path, err)
		}
		return messages
	}

	if err := yaml.Unmarshal(content, messages); err != nil {
		log.Printf("[ORCHESTRATOR]: Malformed message catalog %s: %v", path, err)
		return DefaultMessages()
	}

	return messages
}

// RejectionMessage maps a rejection reason to its caller-facing text
func (m *Messages) RejectionMessage(reason identity.Reason) string {
	switch reason {
	case identity.ReasonNotAssigned:
		return m.RejectionNotAssigned
	case identity.ReasonPhoneMismatch:
		return m.RejectionPhoneMismatch
	default:
		return m.RejectionVerificationError
	}
}

// EndMessage maps an end reason to its caller-facing text
func (m *Messages) EndMessage(reason call.EndReason) string {
	switch reason {
	case call.EndReasonManual:
		return m.EndManual
	case call.EndReasonTimeout:
		return m.EndTimeout
	default:
		return m.EndError
	}
}
