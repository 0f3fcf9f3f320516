package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentry-dev/agentry/internal/testutils"
	"github.com/agentry-dev/agentry/pkg/domain"
	"github.com/agentry-dev/agentry/pkg/dsl"
	"github.com/agentry-dev/agentry/pkg/providers/mock"
)

func agentNode(id string, delegation bool) domain.Node {
	return domain.Node{
		ID:    id,
		Type:  domain.NodeAgent,
		Agent: &domain.AgentConfig{Name: id, Tools: domain.ToolFlags{Delegation: delegation}},
	}
}

func delegationEdge(source, target string) domain.Connection {
	return domain.Connection{Source: source, Target: target, SourceHandle: domain.HandleDelegation}
}

func TestValidateDelegation(t *testing.T) {
	tests := []struct {
		name   string
		graph  *domain.Graph
		reason string
	}{
		{
			name: "valid tree",
			graph: &domain.Graph{
				Nodes: []domain.Node{
					agentNode("lead", true),
					agentNode("helper", false),
				},
				Connections: []domain.Connection{delegationEdge("lead", "helper")},
			},
		},
		{
			name: "capability not enabled on the source",
			graph: &domain.Graph{
				Nodes: []domain.Node{
					agentNode("lead", false),
					agentNode("helper", false),
				},
				Connections: []domain.Connection{delegationEdge("lead", "helper")},
			},
			reason: "capability not enabled",
		},
		{
			name: "edge to non-agent node",
			graph: &domain.Graph{
				Nodes: []domain.Node{
					agentNode("lead", true),
					{ID: "gate", Type: domain.NodeApproval},
				},
				Connections: []domain.Connection{delegationEdge("lead", "gate")},
			},
			reason: "edge to non-agent node",
		},
		{
			name: "edge from non-agent node",
			graph: &domain.Graph{
				Nodes: []domain.Node{
					{ID: "gate", Type: domain.NodeApproval},
					agentNode("helper", false),
				},
				Connections: []domain.Connection{delegationEdge("gate", "helper")},
			},
			reason: "edge from non-agent node",
		},
		{
			name: "target with two parents",
			graph: &domain.Graph{
				Nodes: []domain.Node{
					agentNode("lead-a", true),
					agentNode("lead-b", true),
					agentNode("helper", false),
				},
				Connections: []domain.Connection{
					delegationEdge("lead-a", "helper"),
					delegationEdge("lead-b", "helper"),
				},
			},
			reason: "target has multiple parents",
		},
		{
			name: "target also on an execution edge",
			graph: &domain.Graph{
				Nodes: []domain.Node{
					agentNode("lead", true),
					agentNode("helper", false),
					agentNode("next", false),
				},
				Connections: []domain.Connection{
					delegationEdge("lead", "helper"),
					{Source: "helper", Target: "next", SourceHandle: domain.HandleOutput},
				},
			},
			reason: "target participates in execution flow",
		},
		{
			name: "delegation cycle",
			graph: &domain.Graph{
				Nodes: []domain.Node{
					agentNode("a", true),
					agentNode("b", true),
					agentNode("c", true),
				},
				Connections: []domain.Connection{
					delegationEdge("a", "b"),
					delegationEdge("b", "c"),
					delegationEdge("c", "a"),
				},
			},
			reason: "cycle",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDelegation(tt.graph)
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}
			var derr *domain.DelegationError
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, tt.reason, derr.Reason)
		})
	}
}

func TestDelegationCycleErrorCarriesPath(t *testing.T) {
	graph := &domain.Graph{
		Nodes: []domain.Node{
			agentNode("a", true),
			agentNode("b", true),
		},
		Connections: []domain.Connection{
			delegationEdge("a", "b"),
			delegationEdge("b", "a"),
		},
	}

	var derr *domain.DelegationError
	require.ErrorAs(t, ValidateDelegation(graph), &derr)
	assert.Equal(t, "cycle", derr.Reason)
	assert.NotEmpty(t, derr.Path)
}

func TestBuildDelegationTree(t *testing.T) {
	graph := &domain.Graph{
		Nodes: []domain.Node{
			agentNode("lead", true),
			agentNode("researcher", true),
			agentNode("archivist", false),
			agentNode("writer", false),
		},
		Connections: []domain.Connection{
			delegationEdge("lead", "researcher"),
			delegationEdge("lead", "writer"),
			delegationEdge("researcher", "archivist"),
		},
	}

	tree, err := BuildDelegationTree(graph, "lead")
	require.NoError(t, err)
	require.Len(t, tree, 2)

	assert.Equal(t, "researcher", tree[0].NodeID)
	require.Len(t, tree[0].Delegates, 1)
	assert.Equal(t, "archivist", tree[0].Delegates[0].NodeID)

	assert.Equal(t, "writer", tree[1].NodeID)
	assert.Empty(t, tree[1].Delegates)
}

func TestBuildDelegationTreeRejectsSelfDelegation(t *testing.T) {
	graph := &domain.Graph{
		Nodes:       []domain.Node{agentNode("lead", true)},
		Connections: []domain.Connection{delegationEdge("lead", "lead")},
	}

	_, err := BuildDelegationTree(graph, "lead")
	var derr *domain.DelegationError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "cycle", derr.Reason)
}

func TestDelegatesNeverExecuteOnTheirOwn(t *testing.T) {
	graph := testutils.DelegationGraph(t)
	responder := mock.New("answer")

	eng := New(graph, responder)
	require.NoError(t, eng.Run(context.Background(), "question"))

	result := eng.Result()
	assert.Equal(t, domain.StatusCompleted, result.Status)

	// Only the lead is invoked; the subagents travel inside its invocation.
	calls := responder.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "lead", calls[0].NodeID)
	require.Len(t, calls[0].Delegates, 2)
	assert.Equal(t, "researcher", calls[0].Delegates[0].NodeID)
	assert.Equal(t, "writer", calls[0].Delegates[1].NodeID)
	assert.NotContains(t, result.Variables, "researcher")
	assert.NotContains(t, result.Variables, "writer")
}

func TestDelegationEventsAreLogged(t *testing.T) {
	graph := testutils.DelegationGraph(t)
	responder := mock.New("answer")
	responder.EmitDelegationEvents = true

	eng := New(graph, responder)
	require.NoError(t, eng.Run(context.Background(), "question"))

	var starts, ends int
	for _, entry := range eng.Result().Logs {
		switch entry.Type {
		case domain.LogDelegationCallStart:
			starts++
		case domain.LogDelegationCallEnd:
			ends++
		}
	}
	assert.Equal(t, 2, starts)
	assert.Equal(t, 2, ends)
}

func TestInvalidDelegationFailsTheRun(t *testing.T) {
	graph := testutils.MustBuild(t, dsl.New().
		Entry("entry").To("lead").
		Agent("lead", "Lead", "").
		Delegate("helper").
		Agent("helper", "Helper", ""))

	eng := New(graph, mock.New("ok"))
	require.NoError(t, eng.Run(context.Background(), "go"))

	result := eng.Result()
	assert.Equal(t, domain.StatusFailed, result.Status)

	var logged string
	for _, entry := range result.Logs {
		if entry.Type == domain.LogError {
			logged = entry.Content
		}
	}
	assert.Contains(t, logged, "capability not enabled")
}
