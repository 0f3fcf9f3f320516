package runtime

import (
	"context"
	"time"

	"github.com/agentry-dev/agentry/pkg/domain"
)

// The suspension control structures live inside the variables bag so they
// survive a caller-side snapshot/restore of the whole run. After a JSON round
// trip their concrete types widen ([]string becomes []any, structs become
// maps); the accessors below normalize both shapes.

// approvalContextLocked returns the approval-context map, creating it if
// absent. Caller holds e.mu.
func (e *Engine) approvalContextLocked() map[string]any {
	if m, ok := e.variables[domain.VarApprovalContext].(map[string]any); ok {
		return m
	}
	m := make(map[string]any)
	e.variables[domain.VarApprovalContext] = m
	return m
}

// approvalOutput restores the upstream output captured for an approval node at
// suspension time, falling back to the pre-approval snapshot. Caller holds e.mu.
func (e *Engine) approvalOutput(nodeID string) any {
	if v, ok := e.approvalContextLocked()[nodeID]; ok && v != nil {
		return v
	}
	return e.variables[domain.VarPreApprovalOutput]
}

// pushPendingApproval appends a node id to the pending-approval FIFO. Caller
// holds e.mu.
func (e *Engine) pushPendingApproval(nodeID string) {
	queue := anySlice(e.variables[domain.VarPendingApprovals])
	for _, v := range queue {
		if id, ok := v.(string); ok && id == nodeID {
			return
		}
	}
	e.variables[domain.VarPendingApprovals] = append(queue, nodeID)
}

// popPendingApproval dequeues the oldest pending approval. Caller holds e.mu.
func (e *Engine) popPendingApproval() (string, bool) {
	queue := anySlice(e.variables[domain.VarPendingApprovals])
	for i, v := range queue {
		if id, ok := v.(string); ok {
			e.variables[domain.VarPendingApprovals] = append(queue[:i:i], queue[i+1:]...)
			return id, true
		}
	}
	return "", false
}

// removePendingApproval deletes a node id from the pending FIFO, used when the
// pinned approval itself resumes. Caller holds e.mu.
func (e *Engine) removePendingApproval(nodeID string) {
	queue := anySlice(e.variables[domain.VarPendingApprovals])
	for i, v := range queue {
		if id, ok := v.(string); ok && id == nodeID {
			e.variables[domain.VarPendingApprovals] = append(queue[:i:i], queue[i+1:]...)
			return
		}
	}
}

// pushDeferred queues downstream work from a sibling branch that fired while
// the run was suspended. Caller holds e.mu.
func (e *Engine) pushDeferred(nodeID string, prev any) {
	queue := anySlice(e.variables[domain.VarDeferredNodes])
	e.variables[domain.VarDeferredNodes] = append(queue, domain.DeferredNode{NodeID: nodeID, PreviousOutput: prev})
}

// popDeferred dequeues the oldest deferred node. Caller holds e.mu.
func (e *Engine) popDeferred() (domain.DeferredNode, bool) {
	queue := anySlice(e.variables[domain.VarDeferredNodes])
	if len(queue) == 0 {
		return domain.DeferredNode{}, false
	}
	head := queue[0]
	e.variables[domain.VarDeferredNodes] = queue[1:]
	switch v := head.(type) {
	case domain.DeferredNode:
		return v, true
	case map[string]any:
		item := domain.DeferredNode{}
		if id, ok := v["nodeId"].(string); ok {
			item.NodeID = id
		}
		item.PreviousOutput = v["previousOutput"]
		return item, true
	default:
		return domain.DeferredNode{}, false
	}
}

// drainDeferred executes queued deferred work node-by-node until the queue is
// empty or the run leaves the running status. Each dequeue may itself enqueue
// more deferred work or re-suspend the run.
func (e *Engine) drainDeferred(ctx context.Context) {
	for {
		e.mu.Lock()
		if e.status != domain.StatusRunning {
			e.mu.Unlock()
			return
		}
		item, ok := e.popDeferred()
		e.mu.Unlock()
		if !ok {
			return
		}

		node := e.graph.NodeByID(item.NodeID)
		if node == nil {
			e.appendLog(domain.SystemNodeID, domain.LogWarn, "deferred node "+item.NodeID+" not found")
			continue
		}
		e.processNode(ctx, node, item.PreviousOutput, true)
	}
}

func anySlice(v any) []any {
	switch s := v.(type) {
	case []any:
		return s
	case []string:
		out := make([]any, len(s))
		for i, item := range s {
			out[i] = item
		}
		return out
	default:
		return nil
	}
}

// appendLog appends an entry to the run log under the state lock, then invokes
// the sink outside it so a sink may safely call back into the engine.
func (e *Engine) appendLog(nodeID string, t domain.LogType, content string) {
	entry := domain.LogEntry{Timestamp: time.Now().UTC(), NodeID: nodeID, Type: t, Content: content}
	e.mu.Lock()
	e.logs = append(e.logs, entry)
	e.mu.Unlock()
	if e.sink != nil {
		e.sink(entry)
	}
	e.logger.Debug("log entry", "run", e.runID, "node", nodeID, "type", string(t))
}

// appendErrorLog appends an error entry unless an identical message was just
// logged, preventing double logging when a capability failure is re-raised to
// the outer per-node handler.
func (e *Engine) appendErrorLog(nodeID string, t domain.LogType, message string) {
	e.mu.Lock()
	if e.lastLoggedError == message {
		e.mu.Unlock()
		return
	}
	e.lastLoggedError = message
	e.mu.Unlock()
	e.appendLog(nodeID, t, message)
}
