package ports

import (
	"context"

	"github.com/agentry-dev/agentry/pkg/domain"
)

// DelegationEventFunc receives nested tool-call progress events while the
// capability executes a delegation tree.
type DelegationEventFunc func(domain.DelegationEvent)

// ResponderOptions carries per-call context for a capability invocation.
type ResponderOptions struct {
	// NodeID is the agent node this invocation executes on behalf of.
	NodeID string
	// OnDelegationEvent, when set, is invoked for every nested delegation
	// call start/end/error. May be called from the capability's goroutine.
	OnDelegationEvent DelegationEventFunc
}

// Responder is the LLM capability contract: a single operation that turns a
// resolved invocation (prompts, model, tool flags, delegation tree) into text.
//
// Any error must propagate unmodified so the engine can log it as an
// llm_error, distinguishable from all other failures.
type Responder interface {
	Respond(ctx context.Context, inv domain.Invocation, opts ResponderOptions) (string, error)
}

// ResponderFunc adapts a plain function to the Responder interface.
type ResponderFunc func(ctx context.Context, inv domain.Invocation, opts ResponderOptions) (string, error)

// Respond implements Responder.
func (f ResponderFunc) Respond(ctx context.Context, inv domain.Invocation, opts ResponderOptions) (string, error) {
	return f(ctx, inv, opts)
}
