package domain

import "fmt"

// Handle constants disambiguate the output ports a connection leaves from.
const (
	// HandleOutput is the plain output port. An empty source handle means the same.
	HandleOutput = "output"
	// HandleTrue is the legacy universal match port, accepted as an alias for
	// the first condition-index handle.
	HandleTrue = "true"
	// HandleElse is the fallback port fired when no condition matches.
	HandleElse = "else"
	// HandleApprove and HandleReject are the two ports of an approval node.
	HandleApprove = "approve"
	HandleReject  = "reject"
	// HandleDelegation marks a tool-only composition edge between two agent
	// nodes. Delegation edges are excluded from the execution DAG.
	HandleDelegation = "delegation"
)

// ConditionHandle returns the source handle for the condition at index i.
func ConditionHandle(i int) string {
	return fmt.Sprintf("condition-%d", i)
}

// Connection is a directed edge between two nodes.
type Connection struct {
	Source       string `json:"source" yaml:"source"`
	Target       string `json:"target" yaml:"target"`
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty" yaml:"targetHandle,omitempty"`
}

// IsDelegation reports whether this edge is tool-only composition rather than
// execution flow.
func (c Connection) IsDelegation() bool {
	return c.SourceHandle == HandleDelegation
}

// Graph is the full workflow the engine executes: a unique-id set of nodes and
// an ordered list of connections. Connection endpoints referencing unknown
// node ids are tolerated at runtime as warnings, not hard failures.
type Graph struct {
	Nodes       []Node       `json:"nodes" yaml:"nodes"`
	Connections []Connection `json:"connections" yaml:"connections"`
}

// NodeByID returns the node with the given id, or nil.
func (g *Graph) NodeByID(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// EntryNode returns the unique entry node, or nil when absent.
func (g *Graph) EntryNode() *Node {
	for i := range g.Nodes {
		if g.Nodes[i].Type == NodeEntry {
			return &g.Nodes[i]
		}
	}
	return nil
}

// Outgoing returns all connections leaving the given node, in declared order.
func (g *Graph) Outgoing(nodeID string) []Connection {
	var out []Connection
	for _, c := range g.Connections {
		if c.Source == nodeID {
			out = append(out, c)
		}
	}
	return out
}

// OutgoingExecution returns the outgoing connections that advance the walk,
// excluding delegation edges.
func (g *Graph) OutgoingExecution(nodeID string) []Connection {
	var out []Connection
	for _, c := range g.Connections {
		if c.Source == nodeID && !c.IsDelegation() {
			out = append(out, c)
		}
	}
	return out
}

// OutgoingDelegation returns the delegation edges leaving the given node.
func (g *Graph) OutgoingDelegation(nodeID string) []Connection {
	var out []Connection
	for _, c := range g.Connections {
		if c.Source == nodeID && c.IsDelegation() {
			out = append(out, c)
		}
	}
	return out
}
