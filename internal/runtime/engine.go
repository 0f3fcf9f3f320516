package runtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/agentry-dev/agentry/internal/compiler"
	"github.com/agentry-dev/agentry/internal/logging"
	"github.com/agentry-dev/agentry/pkg/domain"
	"github.com/agentry-dev/agentry/pkg/ports"
	"github.com/google/uuid"
)

// Engine walks a canonical workflow graph for a single run. It owns the run
// state exclusively: one Engine per run, never shared between runs.
//
// Concurrent sibling branches of a fan-out execute on separate goroutines; all
// mutations of the shared state go through e.mu. Correct previous-output
// semantics across siblings rely on the writeShared flag threaded through the
// recursive walk, not on locking alone.
type Engine struct {
	runID     string
	graph     *domain.Graph
	responder ports.Responder
	sink      ports.LogSink
	logger    *slog.Logger

	mu              sync.Mutex
	status          domain.Status
	currentNodeID   string
	waitingForInput bool
	logs            []domain.LogEntry
	variables       map[string]any

	// lastLoggedError dedupes the outer per-node error handler against a
	// message already emitted as llm_error.
	lastLoggedError string
}

// Option configures an Engine.
type Option func(*Engine)

// WithRunID sets an explicit run id instead of a generated one.
func WithRunID(id string) Option {
	return func(e *Engine) {
		e.runID = id
	}
}

// WithLogSink registers a callback invoked synchronously for every appended
// log entry.
func WithLogSink(sink ports.LogSink) Option {
	return func(e *Engine) {
		e.sink = sink
	}
}

// WithLogger configures the internal diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine for one run of the given graph. The graph is
// normalized once at construction; the canonical form is what executes and
// what Graph returns.
func New(graph *domain.Graph, responder ports.Responder, opts ...Option) *Engine {
	e := &Engine{
		runID:     uuid.NewString(),
		graph:     Normalize(graph),
		responder: responder,
		logger:    logging.NewNop(),
		status:    domain.StatusPending,
		variables: make(map[string]any),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewFromSnapshot reconstructs an Engine mid-suspension from externally
// persisted fields. The snapshot must describe a paused run waiting for input;
// this is the only supported way to call Resume without a prior Run.
func NewFromSnapshot(graph *domain.Graph, snap *domain.RunSnapshot, responder ports.Responder, opts ...Option) (*Engine, error) {
	if snap == nil || snap.Status != domain.StatusPaused || !snap.WaitingForInput || snap.CurrentNodeID == "" {
		return nil, domain.ErrNotPaused
	}
	if graph == nil {
		graph = snap.Graph
	}
	if graph == nil {
		return nil, domain.ErrRunNotFound
	}
	// Typed node configs are not serialized; rebuild them from the data bags.
	if err := compiler.Compile(graph); err != nil {
		return nil, err
	}
	e := New(graph, responder, opts...)
	e.runID = snap.RunID
	e.status = snap.Status
	e.currentNodeID = snap.CurrentNodeID
	e.waitingForInput = snap.WaitingForInput
	if snap.Variables != nil {
		e.variables = snap.Variables
	}
	e.logs = append(e.logs, snap.Logs...)
	return e, nil
}

// RunID returns the id of this run.
func (e *Engine) RunID() string {
	return e.runID
}

// Graph returns the canonicalized graph this run executes, for callers that
// must persist what actually ran.
func (e *Engine) Graph() *domain.Graph {
	return e.graph
}

// Run starts the walk from the entry node with the caller-supplied initial
// input. It returns when the run completes, fails, or suspends on an approval
// node. A graph without an entry node is a fatal structural error.
func (e *Engine) Run(ctx context.Context, input string) error {
	e.mu.Lock()
	if e.status != domain.StatusPending {
		e.mu.Unlock()
		return domain.ErrAlreadyStarted
	}
	e.status = domain.StatusRunning
	e.mu.Unlock()

	entry := e.graph.EntryNode()
	if entry == nil {
		e.appendLog(domain.SystemNodeID, domain.LogError, "no entry node found in workflow")
		e.mu.Lock()
		e.status = domain.StatusFailed
		e.mu.Unlock()
		return domain.ErrNoEntryNode
	}

	e.processNode(ctx, entry, input, true)
	e.drainDeferred(ctx)
	e.settle()
	return nil
}

// Resume re-enters a paused run with the caller-supplied decision or input.
// It is a no-op error if the run is not suspended.
func (e *Engine) Resume(ctx context.Context, input any) error {
	e.mu.Lock()
	if e.status != domain.StatusPaused || e.currentNodeID == "" {
		e.mu.Unlock()
		return domain.ErrNotPaused
	}
	nodeID := e.currentNodeID
	e.removePendingApproval(nodeID)
	e.status = domain.StatusRunning
	e.waitingForInput = false
	e.currentNodeID = ""
	e.mu.Unlock()

	node := e.graph.NodeByID(nodeID)
	if node == nil {
		e.appendLog(domain.SystemNodeID, domain.LogError, "resume target node "+nodeID+" not found")
		e.mu.Lock()
		e.status = domain.StatusFailed
		e.mu.Unlock()
		return domain.ErrRunNotFound
	}

	var prev any
	var conns []domain.Connection
	if node.Type == domain.NodeApproval {
		decision := domain.NormalizeDecision(input)
		e.appendLog(nodeID, domain.LogInputReceived, "Input received: "+decision.Summary())

		e.mu.Lock()
		e.variables[nodeID] = map[string]any{"decision": decision.Decision, "note": decision.Note}
		prev = e.approvalOutput(nodeID)
		e.mu.Unlock()

		handle := decision.Handle()
		for _, c := range e.graph.OutgoingExecution(nodeID) {
			if c.SourceHandle == handle {
				conns = append(conns, c)
			}
		}
	} else {
		prev = input
		e.appendLog(nodeID, domain.LogInputReceived, "Input received: "+stringifyOutput(input))
		conns = e.graph.OutgoingExecution(nodeID)
	}

	e.processConnections(ctx, conns, prev, true)
	e.drainDeferred(ctx)
	e.settle()
	return nil
}

// settle resolves a run whose walk has no immediate work left: surface the
// next queued approval, or complete.
func (e *Engine) settle() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != domain.StatusRunning {
		return
	}
	if next, ok := e.popPendingApproval(); ok {
		e.status = domain.StatusPaused
		e.waitingForInput = true
		e.currentNodeID = next
		e.variables[domain.VarPreApprovalOutput] = e.approvalContextLocked()[next]
		return
	}
	e.status = domain.StatusCompleted
	e.currentNodeID = ""
}

// Result returns the caller-facing view of the run. The full log is returned
// even on failure so partial progress can be rendered.
func (e *Engine) Result() domain.RunResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.RunResult{
		RunID:           e.runID,
		Status:          e.status,
		Logs:            append([]domain.LogEntry(nil), e.logs...),
		Variables:       copyVariables(e.variables),
		WaitingForInput: e.waitingForInput,
		CurrentNodeID:   e.currentNodeID,
	}
}

// Snapshot captures the durable fields of the run, including the canonical
// graph, for persistence and later restoration.
func (e *Engine) Snapshot() *domain.RunSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return &domain.RunSnapshot{
		RunID:           e.runID,
		Status:          e.status,
		CurrentNodeID:   e.currentNodeID,
		WaitingForInput: e.waitingForInput,
		Variables:       copyVariables(e.variables),
		Logs:            append([]domain.LogEntry(nil), e.logs...),
		Graph:           e.graph,
	}
}

func copyVariables(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
