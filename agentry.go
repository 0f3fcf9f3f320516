package agentry

import (
	"github.com/agentry-dev/agentry/internal/compiler"
	"github.com/agentry-dev/agentry/internal/runtime"
	"github.com/agentry-dev/agentry/internal/validator"
	"github.com/agentry-dev/agentry/pkg/domain"
	"github.com/agentry-dev/agentry/pkg/ports"
)

// Re-export the core types so consumers don't need to dig into subpackages.

type (
	Engine           = runtime.Engine
	Graph            = domain.Graph
	Node             = domain.Node
	Connection       = domain.Connection
	LogEntry         = domain.LogEntry
	RunResult        = domain.RunResult
	RunSnapshot      = domain.RunSnapshot
	ApprovalDecision = domain.ApprovalDecision
	Invocation       = domain.Invocation
	Responder        = ports.Responder
	ResponderFunc    = ports.ResponderFunc
	LogSink          = ports.LogSink
	Status           = domain.Status
)

// Re-export run statuses for convenience.

const (
	StatusPending   = domain.StatusPending
	StatusRunning   = domain.StatusRunning
	StatusPaused    = domain.StatusPaused
	StatusCompleted = domain.StatusCompleted
	StatusFailed    = domain.StatusFailed

	DecisionApprove = domain.DecisionApprove
	DecisionReject  = domain.DecisionReject
)

// Engine options.

var (
	WithRunID   = runtime.WithRunID
	WithLogSink = runtime.WithLogSink
	WithLogger  = runtime.WithLogger
)

// New creates an engine for one run of the given graph. The graph is
// canonicalized (legacy shapes migrated, end markers dropped) before any
// execution happens.
func New(graph *domain.Graph, responder ports.Responder, opts ...runtime.Option) *Engine {
	return runtime.New(graph, responder, opts...)
}

// NewFromSnapshot reconstructs an engine mid-suspension from persisted run
// fields, so a process restart can resume a paused run without replaying it.
func NewFromSnapshot(graph *domain.Graph, snap *domain.RunSnapshot, responder ports.Responder, opts ...runtime.Option) (*Engine, error) {
	return runtime.NewFromSnapshot(graph, snap, responder, opts...)
}

// ParseWorkflow decodes a workflow document (JSON or YAML) into a graph with
// typed node configurations.
func ParseWorkflow(data []byte) (*domain.Graph, error) {
	return compiler.Parse(data)
}

// ValidateWorkflow checks a parsed graph for structural problems without
// executing it: an entry node must exist, every connection target must
// resolve, all nodes must be reachable, and the delegation subgraph must
// satisfy its constraints.
func ValidateWorkflow(graph *domain.Graph) error {
	canonical := runtime.Normalize(graph)
	if err := validator.ValidateGraph(canonical); err != nil {
		return err
	}
	return runtime.ValidateDelegation(canonical)
}
