// Package identity verifies that an inbound call is bound to an account
// before a session may be created.
package identity

import (
	"context"
	"sync"
)

// Reason explains why a caller was not permitted to start a session
type Reason string

const (
	ReasonNotAssigned       Reason = "NOT_ASSIGNED"       // destination number is not bound to any account
	ReasonPhoneMismatch     Reason = "PHONE_MISMATCH"     // origin number does not match the account's registered numbers
	ReasonVerificationError Reason = "VERIFICATION_ERROR" // resolution itself failed
)

// Result is the outcome of resolving a caller's identity. Either Valid is
// true and AccountID is set, or Valid is false and Reason is set.
type Result struct {
	Valid     bool
	AccountID string
	Reason    Reason
}

// Valid constructs a successful resolution
func Valid(accountID string) Result {
	return Result{Valid: true, AccountID: accountID}
}

// Invalid constructs a rejected resolution
func Invalid(reason Reason) Result {
	return Result{Valid: false, Reason: reason}
}

// Resolver binds a destination/origin number pair to an account. A returned
// error is transient (lookup infrastructure failure); callers treat it as
// ReasonVerificationError.
type Resolver interface {
	Resolve(ctx context.Context, destinationNumber, originNumber string) (Result, error)
}

// Binding associates a destination number with an account and the origin
// numbers allowed to call it
type Binding struct {
	AccountID     string
	OriginNumbers []string
}

// StaticResolver resolves against an in-memory binding table. Used in tests
// and single-tenant development setups.
type StaticResolver struct {
	mu       sync.RWMutex
	bindings map[string]Binding // destination number -> binding
}

// NewStaticResolver creates a resolver over the given destination bindings
func NewStaticResolver(bindings map[string]Binding) *StaticResolver {
	if bindings == nil {
		bindings = make(map[string]Binding)
	}
	return &StaticResolver{bindings: bindings}
}

// Bind adds or replaces the binding for a destination number
func (r *StaticResolver) Bind(destinationNumber string, binding Binding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[destinationNumber] = binding
}

// Resolve checks the destination binding and the origin number against it
func (r *StaticResolver) Resolve(ctx context.Context, destinationNumber, originNumber string) (Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	binding, exists := r.bindings[destinationNumber]
	if !exists {
		return Invalid(ReasonNotAssigned), nil
	}

	// An empty origin list accepts any caller
	if len(binding.OriginNumbers) == 0 {
		return Valid(binding.AccountID), nil
	}

	for _, number := range binding.OriginNumbers {
		if number == originNumber {
			return Valid(binding.AccountID), nil
		}
	}

	return Invalid(ReasonPhoneMismatch), nil
}
