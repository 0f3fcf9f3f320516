package runtime

import "github.com/agentry-dev/agentry/pkg/domain"

// Normalize migrates legacy node and connection shapes into canonical form.
// It always succeeds and never mutates the input graph.
//
// Rewrites applied:
//   - legacy "input" nodes become approval nodes, with a default prompt
//     injected when none is configured;
//   - "end" nodes are removed together with every connection touching them.
//     End nodes are purely a terminal marker with no executable semantics, so
//     normalization is the cheapest place to drop them.
func Normalize(g *domain.Graph) *domain.Graph {
	if g == nil {
		return &domain.Graph{}
	}

	out := &domain.Graph{}
	removed := make(map[string]bool)

	for _, n := range g.Nodes {
		switch n.Type {
		case domain.NodeEnd:
			removed[n.ID] = true
		case domain.NodeInput:
			n.Type = domain.NodeApproval
			cfg := domain.ApprovalConfig{}
			if n.Approval != nil {
				cfg = *n.Approval
			}
			if cfg.Prompt == "" {
				cfg.Prompt = domain.DefaultApprovalPrompt
			}
			n.Approval = &cfg
			out.Nodes = append(out.Nodes, n)
		default:
			out.Nodes = append(out.Nodes, n)
		}
	}

	for _, c := range g.Connections {
		if removed[c.Source] || removed[c.Target] {
			continue
		}
		out.Connections = append(out.Connections, c)
	}
	return out
}
