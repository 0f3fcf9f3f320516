package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoEntryNode is returned when a run starts on a graph without an entry node.
var ErrNoEntryNode = errors.New("workflow has no entry node")

// ErrRunNotFound is returned when a run id cannot be found in a store.
var ErrRunNotFound = errors.New("run not found")

// ErrNotPaused is returned when resume is called on a run that is not
// suspended on an approval.
var ErrNotPaused = errors.New("run is not paused")

// ErrAlreadyStarted is returned when Run is called more than once on the same
// engine instance.
var ErrAlreadyStarted = errors.New("run already started")

// CapabilityError wraps a failure from the LLM backend so it stays
// distinguishable from every other engine error.
type CapabilityError struct {
	NodeID string
	Err    error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("llm capability failed at node %s: %v", e.NodeID, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

// DelegationError is a validation failure of the delegation subgraph: wrong
// node type, disabled capability, multiple parents, execution-edge collision,
// or a cycle. It aborts the enclosing agent-node execution.
type DelegationError struct {
	Reason string
	NodeID string
	Path   []string
}

func (e *DelegationError) Error() string {
	if len(e.Path) > 0 {
		return fmt.Sprintf("delegation %s at node %s (path %s)", e.Reason, e.NodeID, strings.Join(e.Path, " -> "))
	}
	return fmt.Sprintf("delegation %s at node %s", e.Reason, e.NodeID)
}
