package domain

// Status is the lifecycle phase of a run.
//
// Transitions: pending -> running -> {paused, completed, failed}; paused
// re-enters running via resume. Completed and failed are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further work can happen for this run.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Reserved keys inside the variables bag. The three control structures live in
// the bag (rather than in engine fields) so an external caller can snapshot
// and later restore a suspended run without losing queued work.
const (
	// VarPreviousOutput is the shared "last output" handed to the next node.
	VarPreviousOutput = "previous_output"
	// VarLastTextOutput tracks the most recent non-approval textual output.
	// Carried explicitly instead of scanning the bag backwards.
	VarLastTextOutput = "last_text_output"
	// VarApprovalContext maps approval node id -> upstream output captured at
	// suspension time.
	VarApprovalContext = "__approval_context"
	// VarPendingApprovals is the FIFO of approval node ids reached while
	// another approval was already suspending the run.
	VarPendingApprovals = "__pending_approvals"
	// VarDeferredNodes is the FIFO of (nodeId, previousOutput) pairs queued
	// when a sibling branch would have advanced during suspension.
	VarDeferredNodes = "__deferred_nodes"
	// VarPreApprovalOutput snapshots the upstream output of the approval node
	// currently pinning the run, as a restore fallback.
	VarPreApprovalOutput = "__pre_approval_output"
)

// DeferredNode is one queued unit of downstream work postponed by suspension.
type DeferredNode struct {
	NodeID         string `json:"nodeId"`
	PreviousOutput any    `json:"previousOutput"`
}

// RunResult is the caller-facing view of a run, complete even on failure so
// partial progress can be rendered.
type RunResult struct {
	RunID           string         `json:"runId"`
	Status          Status         `json:"status"`
	Logs            []LogEntry     `json:"logs"`
	Variables       map[string]any `json:"variables"`
	WaitingForInput bool           `json:"waitingForInput"`
	CurrentNodeID   string         `json:"currentNodeId,omitempty"`
}

// RunSnapshot is the restoration contract: the persisted fields from which an
// engine can be reconstructed directly into a paused, waiting state after a
// process restart. This is the only supported way to skip Run before Resume.
type RunSnapshot struct {
	RunID           string         `json:"runId"`
	Status          Status         `json:"status"`
	CurrentNodeID   string         `json:"currentNodeId,omitempty"`
	WaitingForInput bool           `json:"waitingForInput"`
	Variables       map[string]any `json:"variables"`
	Logs            []LogEntry     `json:"logs"`
	Graph           *Graph         `json:"graph,omitempty"`
}
