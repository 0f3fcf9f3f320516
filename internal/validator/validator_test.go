package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentry-dev/agentry/internal/testutils"
	"github.com/agentry-dev/agentry/pkg/domain"
	"github.com/agentry-dev/agentry/pkg/dsl"
)

func TestValidateGraphAcceptsWellFormedGraphs(t *testing.T) {
	assert.NoError(t, ValidateGraph(testutils.LinearGraph(t)))
	assert.NoError(t, ValidateGraph(testutils.ApprovalGraph(t)))
	assert.NoError(t, ValidateGraph(testutils.BranchGraph(t)))
}

func TestValidateGraphCountsDelegatesAsReachable(t *testing.T) {
	// Subagents have no execution edges; they are reached through their
	// parent's delegation edges.
	assert.NoError(t, ValidateGraph(testutils.DelegationGraph(t)))
}

func TestValidateGraphRequiresEntry(t *testing.T) {
	g := &domain.Graph{Nodes: []domain.Node{{ID: "a", Type: domain.NodeAgent}}}
	assert.ErrorIs(t, ValidateGraph(g), domain.ErrNoEntryNode)
}

func TestValidateGraphReportsDanglingTargets(t *testing.T) {
	g := &domain.Graph{
		Nodes: []domain.Node{{ID: "entry", Type: domain.NodeEntry}},
		Connections: []domain.Connection{
			{Source: "entry", Target: "ghost", SourceHandle: domain.HandleOutput},
		},
	}
	err := ValidateGraph(g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing node 'ghost'")
}

func TestValidateGraphReportsUnreachableNodes(t *testing.T) {
	g := testutils.MustBuild(t, dsl.New().
		Entry("entry").To("a").
		Agent("a", "A", "").
		Agent("island", "Island", ""))

	err := ValidateGraph(g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node 'island' is unreachable")
}

func TestValidateGraphAggregatesAllProblems(t *testing.T) {
	g := &domain.Graph{
		Nodes: []domain.Node{
			{ID: "entry", Type: domain.NodeEntry},
			{ID: "island", Type: domain.NodeAgent},
		},
		Connections: []domain.Connection{
			{Source: "entry", Target: "ghost", SourceHandle: domain.HandleOutput},
		},
	}
	err := ValidateGraph(g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found 2 errors")
}
