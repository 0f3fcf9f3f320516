package runtime

import (
	"github.com/agentry-dev/agentry/pkg/domain"
)

// ValidateDelegation checks the global constraints on the delegation subgraph:
// every delegation edge runs agent-to-agent, sources have the delegation
// capability enabled, no target has more than one delegation parent, targets
// are tool-only (excluded from the execution DAG), and the subgraph formed
// purely of delegation edges is acyclic. Any violation aborts the enclosing
// agent-node execution.
func ValidateDelegation(g *domain.Graph) error {
	parents := make(map[string]string)
	var edges []domain.Connection

	for _, c := range g.Connections {
		if !c.IsDelegation() {
			continue
		}
		edges = append(edges, c)

		source := g.NodeByID(c.Source)
		if source == nil || source.Type != domain.NodeAgent {
			return &domain.DelegationError{Reason: "edge from non-agent node", NodeID: c.Source}
		}
		if source.Agent == nil || !source.Agent.Tools.Delegation {
			return &domain.DelegationError{Reason: "capability not enabled", NodeID: c.Source}
		}

		target := g.NodeByID(c.Target)
		if target == nil || target.Type != domain.NodeAgent {
			return &domain.DelegationError{Reason: "edge to non-agent node", NodeID: c.Target}
		}

		if prior, ok := parents[c.Target]; ok && prior != c.Source {
			return &domain.DelegationError{Reason: "target has multiple parents", NodeID: c.Target}
		}
		parents[c.Target] = c.Source
	}

	// Delegation targets are tools, not steps: they may not touch any
	// ordinary execution edge.
	for target := range parents {
		for _, c := range g.Connections {
			if c.IsDelegation() {
				continue
			}
			if c.Source == target || c.Target == target {
				return &domain.DelegationError{Reason: "target participates in execution flow", NodeID: target}
			}
		}
	}

	return checkDelegationAcyclic(g, edges)
}

// visit colors for the cycle check.
const (
	colorUnvisited = iota
	colorVisiting
	colorDone
)

// checkDelegationAcyclic runs a depth-first visit with a three-color map over
// the delegation edges. Re-entering a node still being visited means a cycle,
// reported with the full offending path.
func checkDelegationAcyclic(g *domain.Graph, edges []domain.Connection) error {
	colors := make(map[string]int)
	var path []string

	var visit func(id string) error
	visit = func(id string) error {
		colors[id] = colorVisiting
		path = append(path, id)

		for _, c := range edges {
			if c.Source != id {
				continue
			}
			switch colors[c.Target] {
			case colorVisiting:
				return &domain.DelegationError{
					Reason: "cycle",
					NodeID: c.Target,
					Path:   append(append([]string(nil), path...), c.Target),
				}
			case colorUnvisited:
				if err := visit(c.Target); err != nil {
					return err
				}
			}
		}

		path = path[:len(path)-1]
		colors[id] = colorDone
		return nil
	}

	for _, c := range edges {
		if colors[c.Source] == colorUnvisited {
			if err := visit(c.Source); err != nil {
				return err
			}
		}
	}
	return nil
}

// BuildDelegationTree recursively assembles the nested invocation records
// reachable from the given agent node via delegation edges. The ancestry set
// starts with the node itself so a direct self-delegation is also reported as
// a cycle.
func BuildDelegationTree(g *domain.Graph, nodeID string) ([]domain.Invocation, error) {
	return buildDelegates(g, nodeID, map[string]bool{nodeID: true})
}

func buildDelegates(g *domain.Graph, nodeID string, ancestry map[string]bool) ([]domain.Invocation, error) {
	var result []domain.Invocation
	for _, c := range g.OutgoingDelegation(nodeID) {
		target := g.NodeByID(c.Target)
		if target == nil || target.Type != domain.NodeAgent {
			return nil, &domain.DelegationError{Reason: "edge to non-agent node", NodeID: c.Target}
		}
		if ancestry[target.ID] {
			return nil, &domain.DelegationError{
				Reason: "cycle",
				NodeID: target.ID,
				Path:   []string{nodeID, target.ID},
			}
		}

		ancestry[target.ID] = true
		children, err := buildDelegates(g, target.ID, ancestry)
		if err != nil {
			return nil, err
		}
		delete(ancestry, target.ID)

		cfg := target.Agent
		if cfg == nil {
			cfg = &domain.AgentConfig{}
		}
		result = append(result, domain.Invocation{
			NodeID:       target.ID,
			Name:         cfg.Name,
			SystemPrompt: cfg.SystemPrompt,
			Model:        cfg.Model,
			Effort:       cfg.Effort,
			Tools:        cfg.Tools,
			Delegates:    children,
		})
	}
	return result, nil
}
