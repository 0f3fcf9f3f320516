// Package validator checks a workflow graph for structural problems that the
// engine would otherwise only surface mid-run.
package validator

import (
	"fmt"
	"strings"

	"github.com/agentry-dev/agentry/pkg/domain"
)

// ValidateGraph crawls the graph from its entry node and reports dangling
// connection targets and unreachable nodes. Delegation edges count for
// reachability, since subagents execute through their parent.
func ValidateGraph(g *domain.Graph) error {
	entry := g.EntryNode()
	if entry == nil {
		return domain.ErrNoEntryNode
	}

	var errors []string

	visited := make(map[string]bool)
	queue := []string{entry.ID}

	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]

		if visited[currentID] {
			continue
		}
		visited[currentID] = true

		for _, conn := range g.Outgoing(currentID) {
			if g.NodeByID(conn.Target) == nil {
				errors = append(errors, fmt.Sprintf("connection from '%s' points to missing node '%s'", conn.Source, conn.Target))
				continue
			}
			if !visited[conn.Target] {
				queue = append(queue, conn.Target)
			}
		}
	}

	for _, node := range g.Nodes {
		if !visited[node.ID] {
			errors = append(errors, fmt.Sprintf("node '%s' is unreachable from the entry node", node.ID))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(errors), strings.Join(errors, "\n- "))
	}

	return nil
}
