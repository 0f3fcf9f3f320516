// Package mock provides a Responder implementation for tests and development.
// It returns scripted responses without making any API calls, and can emit
// synthetic delegation events so observability paths are exercisable offline.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentry-dev/agentry/pkg/domain"
	"github.com/agentry-dev/agentry/pkg/ports"
	"github.com/google/uuid"
)

// Responder is a scripted LLM capability. Responses are looked up per node id,
// falling back to a default; errors can be injected per node id.
type Responder struct {
	mu        sync.Mutex
	def       string
	responses map[string]string
	errors    map[string]error
	calls     []domain.Invocation

	// EmitDelegationEvents replays the invocation's delegation tree as
	// start/end event pairs before answering.
	EmitDelegationEvents bool
}

// New creates a mock responder with the given default response.
func New(defaultResponse string) *Responder {
	return &Responder{
		def:       defaultResponse,
		responses: make(map[string]string),
		errors:    make(map[string]error),
	}
}

// Respond implements ports.Responder.
func (r *Responder) Respond(ctx context.Context, inv domain.Invocation, opts ports.ResponderOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.Lock()
	r.calls = append(r.calls, inv)
	scripted, hasScripted := r.responses[inv.NodeID]
	injected := r.errors[inv.NodeID]
	emit := r.EmitDelegationEvents
	r.mu.Unlock()

	if injected != nil {
		return "", injected
	}

	if emit && opts.OnDelegationEvent != nil {
		r.walkDelegates(inv.Delegates, "", 1, opts.OnDelegationEvent)
	}

	if hasScripted {
		return scripted, nil
	}
	if r.def != "" {
		return r.def, nil
	}
	return fmt.Sprintf("mock response for %s", inv.NodeID), nil
}

func (r *Responder) walkDelegates(delegates []domain.Invocation, parentCallID string, depth int, emit ports.DelegationEventFunc) {
	for _, d := range delegates {
		callID := uuid.NewString()
		emit(domain.DelegationEvent{
			Type:         domain.DelegationCallStart,
			CallID:       callID,
			ParentCallID: parentCallID,
			Depth:        depth,
			NodeID:       d.NodeID,
			Name:         d.Name,
		})
		r.walkDelegates(d.Delegates, callID, depth+1, emit)
		emit(domain.DelegationEvent{
			Type:         domain.DelegationCallEnd,
			CallID:       callID,
			ParentCallID: parentCallID,
			Depth:        depth,
			NodeID:       d.NodeID,
			Name:         d.Name,
		})
	}
}

// Script sets the response returned for a specific node id.
func (r *Responder) Script(nodeID, response string) *Responder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[nodeID] = response
	return r
}

// Fail injects an error for a specific node id.
func (r *Responder) Fail(nodeID string, err error) *Responder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors[nodeID] = err
	return r
}

// Calls returns the invocations received so far, in arrival order.
func (r *Responder) Calls() []domain.Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Invocation(nil), r.calls...)
}
