package domain

import "time"

// Invocation is the request handed to the LLM capability for one agent node:
// the resolved prompts plus the validated, nested delegation tree reachable
// from that node. It is rebuilt fresh on every agent execution and never
// persisted in run state.
type Invocation struct {
	NodeID       string       `json:"nodeId"`
	Name         string       `json:"name"`
	SystemPrompt string       `json:"systemPrompt"`
	UserContent  string       `json:"userContent,omitempty"`
	Model        string       `json:"model"`
	Effort       string       `json:"effort,omitempty"`
	Tools        ToolFlags    `json:"tools"`
	Delegates    []Invocation `json:"delegates,omitempty"`
}

// DelegationEventType categorizes nested tool-call progress events.
type DelegationEventType string

const (
	DelegationCallStart DelegationEventType = "start"
	DelegationCallEnd   DelegationEventType = "end"
	DelegationCallError DelegationEventType = "error"
)

// DelegationEvent is emitted by the LLM capability while it executes nested
// subagent calls, for observability only. CallID identifies one nested call;
// ParentCallID links it to the call that spawned it.
type DelegationEvent struct {
	Type         DelegationEventType `json:"type"`
	CallID       string              `json:"callId"`
	ParentCallID string              `json:"parentCallId,omitempty"`
	Depth        int                 `json:"depth"`
	NodeID       string              `json:"nodeId"`
	Name         string              `json:"name,omitempty"`
	Error        string              `json:"error,omitempty"`
	Timestamp    time.Time           `json:"timestamp"`
}
