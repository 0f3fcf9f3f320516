package graph

import (
	"fmt"
	"strings"

	"github.com/agentry-dev/agentry/pkg/domain"
)

// Overlay contains dynamic run state to visualize on the graph.
type Overlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces a Mermaid flowchart from a workflow graph.
// It applies semantic styling:
// - Entry: ((Circle))
// - Condition: {Diamond}
// - Approval: [/Parallelogram/]
// - Agent and others: [Rectangle]
// Delegation edges render dotted; execution edges carry their handle as a
// label when it is not the plain output handle.
func GenerateMermaid(g *domain.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range g.Nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch node.Type {
		case domain.NodeEntry:
			opener, closer = "((", "))"
		case domain.NodeCondition:
			opener, closer = "{", "}"
		case domain.NodeApproval, domain.NodeInput:
			opener, closer = "[/", "/]"
		}

		label := node.ID
		if node.Type == domain.NodeAgent && node.Agent != nil && node.Agent.Name != "" {
			label = fmt.Sprintf("%s <br/> %s", node.ID, node.Agent.Name)
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))
	}

	for _, conn := range g.Connections {
		safeFrom := sanitizeMermaidID(conn.Source)
		safeTo := sanitizeMermaidID(conn.Target)

		arrow := "-->"
		switch {
		case conn.IsDelegation():
			arrow = "-.->"
		case conn.SourceHandle != "" && conn.SourceHandle != domain.HandleOutput:
			safeHandle := strings.ReplaceAll(conn.SourceHandle, "\"", "'")
			arrow = fmt.Sprintf("-- \"%s\" -->", safeHandle)
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", safeFrom, arrow, safeTo))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		if overlay.CurrentNode != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode)))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
