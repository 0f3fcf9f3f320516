package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentry-dev/agentry/pkg/domain"
)

func TestNormalizeMigratesInputNodes(t *testing.T) {
	g := &domain.Graph{
		Nodes: []domain.Node{
			{ID: "entry", Type: domain.NodeEntry},
			{ID: "ask", Type: domain.NodeInput},
			{ID: "ask-custom", Type: domain.NodeInput, Approval: &domain.ApprovalConfig{Prompt: "Sure?"}},
		},
	}

	out := Normalize(g)

	ask := out.NodeByID("ask")
	require.NotNil(t, ask)
	assert.Equal(t, domain.NodeApproval, ask.Type)
	require.NotNil(t, ask.Approval)
	assert.Equal(t, domain.DefaultApprovalPrompt, ask.Approval.Prompt)

	custom := out.NodeByID("ask-custom")
	require.NotNil(t, custom)
	assert.Equal(t, domain.NodeApproval, custom.Type)
	assert.Equal(t, "Sure?", custom.Approval.Prompt)

	// The input graph is left untouched.
	assert.Equal(t, domain.NodeInput, g.Nodes[1].Type)
	assert.Nil(t, g.Nodes[1].Approval)
}

func TestNormalizeStripsEndNodes(t *testing.T) {
	g := &domain.Graph{
		Nodes: []domain.Node{
			{ID: "entry", Type: domain.NodeEntry},
			{ID: "work", Type: domain.NodeAgent},
			{ID: "finish", Type: domain.NodeEnd},
		},
		Connections: []domain.Connection{
			{Source: "entry", Target: "work", SourceHandle: domain.HandleOutput},
			{Source: "work", Target: "finish", SourceHandle: domain.HandleOutput},
		},
	}

	out := Normalize(g)

	assert.Nil(t, out.NodeByID("finish"))
	require.Len(t, out.Connections, 1)
	assert.Equal(t, "work", out.Connections[0].Target)
}

func TestNormalizeNilGraph(t *testing.T) {
	out := Normalize(nil)
	require.NotNil(t, out)
	assert.Empty(t, out.Nodes)
}

func TestSubstitutePlaceholder(t *testing.T) {
	assert.Equal(t, "say hi twice: hi hi",
		substitutePlaceholder("say hi twice: {{input}} {{input}}", "hi"))
	assert.Equal(t, "no token", substitutePlaceholder("no token", "hi"))
}
