// Package testutils provides shared workflow fixtures for engine and adapter
// tests.
package testutils

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentry-dev/agentry/pkg/domain"
	"github.com/agentry-dev/agentry/pkg/dsl"
)

// MustBuild finalizes a builder, failing the test on construction errors.
func MustBuild(t *testing.T, b *dsl.Builder) *domain.Graph {
	t.Helper()
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

// LinearGraph is entry -> draft -> review, all plain output edges.
func LinearGraph(t *testing.T) *domain.Graph {
	t.Helper()
	return MustBuild(t, dsl.New().
		Entry("entry").To("draft").
		Agent("draft", "Drafter", "You draft text.").To("review").
		Agent("review", "Reviewer", "You review drafts."))
}

// ApprovalGraph is entry -> draft -> gate, with approve and reject branches.
func ApprovalGraph(t *testing.T) *domain.Graph {
	t.Helper()
	return MustBuild(t, dsl.New().
		Entry("entry").To("draft").
		Agent("draft", "Drafter", "You draft text.").To("gate").
		Approval("gate", "Publish this draft?").
		OnApprove("publish").
		OnReject("revise").
		Agent("publish", "Publisher", "You publish drafts.").
		Agent("revise", "Reviser", "You rework rejected drafts."))
}

// BranchGraph is entry -> classify -> route, where route matches "yes" on
// rule 0 and falls through to the else branch otherwise.
func BranchGraph(t *testing.T) *domain.Graph {
	t.Helper()
	return MustBuild(t, dsl.New().
		Entry("entry").To("classify").
		Agent("classify", "Classifier", "Answer yes or no.").To("route").
		Condition("route", dsl.Equals("yes")).
		OnCondition(0, "accept").
		Else("decline").
		Agent("accept", "Acceptor", "You handle accepted items.").
		Agent("decline", "Decliner", "You handle declined items."))
}

// DelegationGraph is entry -> lead, where lead delegates to two subagents
// that never run on their own.
func DelegationGraph(t *testing.T) *domain.Graph {
	t.Helper()
	return MustBuild(t, dsl.New().
		Entry("entry").To("lead").
		Agent("lead", "Lead", "You coordinate specialists.").Delegation().
		Delegate("researcher", "writer").
		Agent("researcher", "Researcher", "You research.").
		Agent("writer", "Writer", "You write."))
}
