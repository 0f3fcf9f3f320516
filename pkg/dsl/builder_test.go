package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentry-dev/agentry/internal/compiler"
	"github.com/agentry-dev/agentry/pkg/domain"
)

func TestBuildFullWorkflow(t *testing.T) {
	g, err := New().
		Entry("entry").To("draft").
		Agent("draft", "Drafter", "You draft.").
		Prompt("Draft: {{input}}").
		Model("gpt-4o").
		Effort("high").
		WebSearch().
		To("route").
		Condition("route", Equals("yes"), Contains("maybe")).
		OnCondition(0, "gate").
		OnCondition(1, "gate").
		Else("done").
		Approval("gate", "Continue?").
		OnApprove("done").
		OnReject("entry").
		Agent("done", "Finisher", "You finish.").
		Build()
	require.NoError(t, err)

	require.Len(t, g.Nodes, 5)
	require.Len(t, g.Connections, 7)

	draft := g.NodeByID("draft")
	require.NotNil(t, draft)
	require.NotNil(t, draft.Agent)
	assert.Equal(t, "Draft: {{input}}", draft.Agent.UserPrompt)
	assert.Equal(t, "gpt-4o", draft.Agent.Model)
	assert.Equal(t, "high", draft.Agent.Effort)
	assert.True(t, draft.Agent.Tools.WebSearch)

	route := g.NodeByID("route")
	require.NotNil(t, route.Condition)
	require.Len(t, route.Condition.Conditions, 2)
	assert.Equal(t, domain.OpEqual, route.Condition.Conditions[0].Operator)

	gate := g.NodeByID("gate")
	require.NotNil(t, gate.Approval)
	assert.Equal(t, "Continue?", gate.Approval.Prompt)
}

func TestBuiltGraphsRecompile(t *testing.T) {
	// The data bags written by the builder must survive the same compile
	// path a persisted snapshot goes through.
	g, err := New().
		Entry("entry").To("lead").
		Agent("lead", "Lead", "Coordinate.").
		Prompt("Handle: {{input}}").
		Effort("low").
		Delegation().
		Delegate("helper").
		Agent("helper", "Helper", "Assist.").
		Build()
	require.NoError(t, err)

	// Wipe the typed configs and rebuild them purely from the bags.
	for i := range g.Nodes {
		g.Nodes[i].Agent = nil
	}
	require.NoError(t, compiler.Compile(g))

	lead := g.NodeByID("lead")
	require.NotNil(t, lead.Agent)
	assert.Equal(t, "Lead", lead.Agent.Name)
	assert.Equal(t, "Handle: {{input}}", lead.Agent.UserPrompt)
	assert.Equal(t, "low", lead.Agent.Effort)
	assert.True(t, lead.Agent.Tools.Delegation)
}

func TestFromRedirectsEdgeSource(t *testing.T) {
	g, err := New().
		Entry("entry").To("a").
		Agent("a", "A", "").
		Agent("b", "B", "").
		From("a").To("b").
		Build()
	require.NoError(t, err)

	var found bool
	for _, c := range g.Connections {
		if c.Source == "a" && c.Target == "b" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestBuildErrors(t *testing.T) {
	t.Run("duplicate node id", func(t *testing.T) {
		_, err := New().Entry("x").Agent("x", "X", "").Build()
		assert.ErrorContains(t, err, "duplicate node id")
	})

	t.Run("unknown edge target", func(t *testing.T) {
		_, err := New().Entry("entry").To("ghost").Build()
		assert.ErrorContains(t, err, "unknown node")
	})

	t.Run("agent mutator on non-agent node", func(t *testing.T) {
		_, err := New().Entry("entry").Prompt("nope").Build()
		assert.ErrorContains(t, err, "not an agent node")
	})

	t.Run("from unknown node", func(t *testing.T) {
		_, err := New().Entry("entry").From("ghost").Build()
		assert.ErrorContains(t, err, "unknown node id")
	})
}

func TestBuildReturnsIndependentCopies(t *testing.T) {
	b := New().Entry("entry").To("a").Agent("a", "A", "")

	g1, err := b.Build()
	require.NoError(t, err)
	g2, err := b.Build()
	require.NoError(t, err)

	g1.Nodes[0].ID = "mutated"
	assert.Equal(t, "entry", g2.Nodes[0].ID)
}
