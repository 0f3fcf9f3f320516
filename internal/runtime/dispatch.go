package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/agentry-dev/agentry/pkg/domain"
	"github.com/agentry-dev/agentry/pkg/ports"
)

// processNode executes one node and recurses into its downstream connections.
//
// writeShared reports whether this invocation is the sole consumer of the
// produced output. Only then may the shared previous_output variable be
// written; concurrent siblings of a fan-out always receive false so they never
// clobber each other's view of "the" previous output.
func (e *Engine) processNode(ctx context.Context, node *domain.Node, prev any, writeShared bool) {
	e.mu.Lock()
	if e.status != domain.StatusRunning {
		// A suspended run still has to account for work arriving from
		// sibling branches: approval nodes are captured as pending, any
		// other node is deferred for the post-resume drain.
		captured := false
		if e.status == domain.StatusPaused && e.waitingForInput {
			if node.Type == domain.NodeApproval {
				e.approvalContextLocked()[node.ID] = prev
				e.pushPendingApproval(node.ID)
				captured = true
			} else {
				e.pushDeferred(node.ID, prev)
			}
		}
		e.mu.Unlock()
		if captured {
			e.appendLog(node.ID, domain.LogWaitInput, approvalPrompt(node))
		}
		return
	}
	e.mu.Unlock()

	e.appendLog(node.ID, domain.LogStepStart, fmt.Sprintf("Executing %s node %s", node.Type, node.ID))

	switch node.Type {
	case domain.NodeEntry:
		output := prev
		if output == nil {
			output = ""
		}
		e.propagate(ctx, node, output, writeShared)

	case domain.NodeAgent:
		output, err := e.executeAgent(ctx, node, prev)
		if err != nil {
			e.failNode(node, err)
			return
		}
		e.propagate(ctx, node, output, writeShared)

	case domain.NodeCondition:
		// Pure router: no output of its own is written.
		selected := e.evaluateCondition(node, prev)
		e.processConnections(ctx, selected, prev, writeShared)

	case domain.NodeApproval:
		e.suspendOn(node, prev)

	default:
		e.appendLog(node.ID, domain.LogWarn, fmt.Sprintf("unknown node type %q, skipping", node.Type))
	}
}

// propagate records a normal node's output and advances the walk.
func (e *Engine) propagate(ctx context.Context, node *domain.Node, output any, writeShared bool) {
	e.mu.Lock()
	e.variables[node.ID] = output
	if s, ok := output.(string); ok {
		e.variables[domain.VarLastTextOutput] = s
	}
	halted := e.status.Terminal() || (e.status == domain.StatusPaused && !e.waitingForInput)
	if !halted && writeShared {
		e.variables[domain.VarPreviousOutput] = output
	}
	e.mu.Unlock()
	if halted {
		return
	}

	e.processConnections(ctx, e.graph.OutgoingExecution(node.ID), output, writeShared)
}

// processConnections resolves connection targets and recurses: zero targets
// ends the branch, one target continues sequentially preserving writeShared,
// two or more fan out concurrently and are awaited before returning.
func (e *Engine) processConnections(ctx context.Context, conns []domain.Connection, prev any, writeShared bool) {
	var targets []*domain.Node
	for _, c := range conns {
		target := e.graph.NodeByID(c.Target)
		if target == nil {
			e.appendLog(domain.SystemNodeID, domain.LogWarn, fmt.Sprintf("connection target %s not found", c.Target))
			continue
		}
		targets = append(targets, target)
	}

	switch len(targets) {
	case 0:
		return
	case 1:
		e.processNode(ctx, targets[0], prev, writeShared)
	default:
		var wg sync.WaitGroup
		for _, target := range targets {
			wg.Add(1)
			go func(n *domain.Node) {
				defer wg.Done()
				e.processNode(ctx, n, prev, false)
			}(target)
		}
		wg.Wait()
	}
}

// executeAgent validates the delegation subgraph, builds the invocation tree,
// resolves the user-content template, and calls the LLM capability.
func (e *Engine) executeAgent(ctx context.Context, node *domain.Node, prev any) (string, error) {
	cfg := node.Agent
	if cfg == nil {
		cfg = &domain.AgentConfig{}
	}

	if err := ValidateDelegation(e.graph); err != nil {
		return "", err
	}
	delegates, err := BuildDelegationTree(e.graph, node.ID)
	if err != nil {
		return "", err
	}

	content := e.resolveUserContent(cfg, prev)
	inv := domain.Invocation{
		NodeID:       node.ID,
		Name:         cfg.Name,
		SystemPrompt: cfg.SystemPrompt,
		UserContent:  content,
		Model:        cfg.Model,
		Effort:       cfg.Effort,
		Tools:        cfg.Tools,
		Delegates:    delegates,
	}

	e.appendLog(node.ID, domain.LogStartPrompt, content)

	text, err := e.responder.Respond(ctx, inv, e.responderOptions(node.ID))
	if err != nil {
		capErr := &domain.CapabilityError{NodeID: node.ID, Err: err}
		e.appendErrorLog(node.ID, domain.LogLLMError, capErr.Error())
		return "", capErr
	}

	e.appendLog(node.ID, domain.LogLLMResponse, text)
	return text, nil
}

// resolveUserContent substitutes the placeholder token in the node's own
// prompt with the last non-approval textual output, or falls back to the
// stringified previous output when the prompt is empty.
func (e *Engine) resolveUserContent(cfg *domain.AgentConfig, prev any) string {
	if cfg.UserPrompt == "" {
		return stringifyOutput(prev)
	}
	e.mu.Lock()
	lastText, _ := e.variables[domain.VarLastTextOutput].(string)
	e.mu.Unlock()
	if lastText == "" {
		lastText = stringifyOutput(prev)
	}
	return substitutePlaceholder(cfg.UserPrompt, lastText)
}

func (e *Engine) responderOptions(nodeID string) ports.ResponderOptions {
	return ports.ResponderOptions{
		NodeID: nodeID,
		OnDelegationEvent: func(ev domain.DelegationEvent) {
			if ev.Timestamp.IsZero() {
				ev.Timestamp = time.Now().UTC()
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				payload = []byte(fmt.Sprintf("%+v", ev))
			}
			e.appendLog(ev.NodeID, delegationLogType(ev.Type), string(payload))
		},
	}
}

func delegationLogType(t domain.DelegationEventType) domain.LogType {
	switch t {
	case domain.DelegationCallEnd:
		return domain.LogDelegationCallEnd
	case domain.DelegationCallError:
		return domain.LogDelegationCallError
	default:
		return domain.LogDelegationCallStart
	}
}

// failNode is the per-node error handler: log once, fail the run. Once failed,
// all further dispatch on any branch becomes a no-op via the status guard.
func (e *Engine) failNode(node *domain.Node, err error) {
	e.appendErrorLog(node.ID, domain.LogError, err.Error())
	e.mu.Lock()
	e.status = domain.StatusFailed
	e.mu.Unlock()
}

// suspendOn is the approval-node path: capture the upstream output, then
// either pause the whole run or, when another approval is already suspending
// it, queue as pending. Execution unwinds back to the caller afterwards.
func (e *Engine) suspendOn(node *domain.Node, prev any) {
	e.mu.Lock()
	e.approvalContextLocked()[node.ID] = prev

	if e.waitingForInput || e.status != domain.StatusRunning {
		e.pushPendingApproval(node.ID)
		e.mu.Unlock()
		e.appendLog(node.ID, domain.LogWaitInput, approvalPrompt(node))
		return
	}

	e.status = domain.StatusPaused
	e.waitingForInput = true
	e.currentNodeID = node.ID
	e.variables[domain.VarPreApprovalOutput] = prev
	e.mu.Unlock()
	e.appendLog(node.ID, domain.LogWaitInput, approvalPrompt(node))
}

func approvalPrompt(node *domain.Node) string {
	if node.Approval != nil && node.Approval.Prompt != "" {
		return node.Approval.Prompt
	}
	return domain.DefaultApprovalPrompt
}

// stringifyOutput coerces an upstream value to text: direct when already a
// string, JSON otherwise.
func stringifyOutput(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", v)
	}
}
