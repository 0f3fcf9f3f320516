package agentry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentry-dev/agentry"
	"github.com/agentry-dev/agentry/pkg/providers/mock"
)

const reviewWorkflow = `
nodes:
  - id: entry
    type: entry
  - id: draft
    type: agent
    data:
      name: Drafter
      systemPrompt: You write a short draft.
  - id: gate
    type: approval
    data:
      prompt: Publish this draft?
  - id: publish
    type: agent
    data:
      name: Publisher
      systemPrompt: You publish the draft.
connections:
  - source: entry
    target: draft
  - source: draft
    target: gate
  - source: gate
    target: publish
    sourceHandle: approve
`

func TestRunWorkflowEndToEnd(t *testing.T) {
	graph, err := agentry.ParseWorkflow([]byte(reviewWorkflow))
	require.NoError(t, err)
	require.NoError(t, agentry.ValidateWorkflow(graph))

	responder := mock.New("")
	responder.Script("draft", "a fine draft")
	responder.Script("publish", "published")

	eng := agentry.New(graph, responder, agentry.WithRunID("run-1"))
	require.NoError(t, eng.Run(context.Background(), "write about Go"))

	result := eng.Result()
	require.Equal(t, agentry.StatusPaused, result.Status)
	require.True(t, result.WaitingForInput)
	assert.Equal(t, "gate", result.CurrentNodeID)

	require.NoError(t, eng.Resume(context.Background(), agentry.DecisionApprove))

	result = eng.Result()
	assert.Equal(t, agentry.StatusCompleted, result.Status)
	assert.Equal(t, "a fine draft", result.Variables["draft"])
	assert.Equal(t, "published", result.Variables["publish"])
}

func TestSnapshotSurvivesEngineHandoff(t *testing.T) {
	graph, err := agentry.ParseWorkflow([]byte(reviewWorkflow))
	require.NoError(t, err)

	eng := agentry.New(graph, mock.New("draft text"), agentry.WithRunID("run-2"))
	require.NoError(t, eng.Run(context.Background(), "go"))
	require.Equal(t, agentry.StatusPaused, eng.Result().Status)

	snap := eng.Snapshot()
	restored, err := agentry.NewFromSnapshot(nil, snap, mock.New("published"))
	require.NoError(t, err)

	require.NoError(t, restored.Resume(context.Background(), agentry.ApprovalDecision{Decision: agentry.DecisionApprove}))
	assert.Equal(t, agentry.StatusCompleted, restored.Result().Status)
	assert.Equal(t, "published", restored.Result().Variables["publish"])
}

func TestValidateWorkflowFlagsBrokenGraphs(t *testing.T) {
	graph, err := agentry.ParseWorkflow([]byte(`{"nodes": [{"id": "a", "type": "agent"}], "connections": []}`))
	require.NoError(t, err)

	assert.ErrorContains(t, agentry.ValidateWorkflow(graph), "entry")
}

func TestParseWorkflowRejectsGarbage(t *testing.T) {
	_, err := agentry.ParseWorkflow([]byte(":::not a document:::"))
	assert.Error(t, err)
}
