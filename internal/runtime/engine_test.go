package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentry-dev/agentry/internal/testutils"
	"github.com/agentry-dev/agentry/pkg/domain"
	"github.com/agentry-dev/agentry/pkg/dsl"
	"github.com/agentry-dev/agentry/pkg/providers/mock"
)

func TestRunLinearWorkflow(t *testing.T) {
	graph := testutils.LinearGraph(t)
	responder := mock.New("").
		Script("draft", "first draft").
		Script("review", "looks good")

	eng := New(graph, responder)
	require.NoError(t, eng.Run(context.Background(), "write something"))

	result := eng.Result()
	assert.Equal(t, domain.StatusCompleted, result.Status)
	assert.False(t, result.WaitingForInput)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "first draft", result.Variables["draft"])
	assert.Equal(t, "looks good", result.Variables["review"])
	assert.Equal(t, "looks good", result.Variables[domain.VarPreviousOutput])

	// Both agents were invoked, in graph order.
	calls := responder.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "draft", calls[0].NodeID)
	assert.Equal(t, "review", calls[1].NodeID)
	assert.Equal(t, "first draft", calls[1].UserContent)
}

func TestRunWithoutEntryNode(t *testing.T) {
	graph := &domain.Graph{Nodes: []domain.Node{{ID: "a", Type: domain.NodeAgent}}}
	eng := New(graph, mock.New("ok"))

	err := eng.Run(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrNoEntryNode)
	assert.Equal(t, domain.StatusFailed, eng.Result().Status)
}

func TestRunIsSingleUse(t *testing.T) {
	eng := New(testutils.LinearGraph(t), mock.New("ok"))
	require.NoError(t, eng.Run(context.Background(), ""))
	assert.ErrorIs(t, eng.Run(context.Background(), ""), domain.ErrAlreadyStarted)
}

func TestResumeRequiresSuspension(t *testing.T) {
	eng := New(testutils.LinearGraph(t), mock.New("ok"))
	assert.ErrorIs(t, eng.Resume(context.Background(), "approve"), domain.ErrNotPaused)
}

func TestAgentFailureFailsRun(t *testing.T) {
	responder := mock.New("").Fail("draft", errors.New("quota exhausted"))
	eng := New(testutils.LinearGraph(t), responder)

	require.NoError(t, eng.Run(context.Background(), ""))
	result := eng.Result()
	assert.Equal(t, domain.StatusFailed, result.Status)

	// The capability failure is logged exactly once, as llm_error.
	var errorLogs []domain.LogEntry
	for _, entry := range result.Logs {
		if entry.Type == domain.LogLLMError || entry.Type == domain.LogError {
			errorLogs = append(errorLogs, entry)
		}
	}
	require.Len(t, errorLogs, 1)
	assert.Equal(t, domain.LogLLMError, errorLogs[0].Type)
	assert.Contains(t, errorLogs[0].Content, "quota exhausted")
}

func TestCanceledContextFailsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := New(testutils.LinearGraph(t), mock.New("ok"))
	require.NoError(t, eng.Run(ctx, ""))
	assert.Equal(t, domain.StatusFailed, eng.Result().Status)
}

func TestUnknownNodeTypeIsSkipped(t *testing.T) {
	graph := &domain.Graph{
		Nodes: []domain.Node{
			{ID: "entry", Type: domain.NodeEntry},
			{ID: "mystery", Type: "canvas-note"},
		},
		Connections: []domain.Connection{
			{Source: "entry", Target: "mystery", SourceHandle: domain.HandleOutput},
		},
	}

	eng := New(graph, mock.New("ok"))
	require.NoError(t, eng.Run(context.Background(), ""))

	result := eng.Result()
	assert.Equal(t, domain.StatusCompleted, result.Status)

	var warned bool
	for _, entry := range result.Logs {
		if entry.Type == domain.LogWarn && entry.NodeID == "mystery" {
			warned = true
		}
	}
	assert.True(t, warned, "expected a warning for the unknown node type")
}

func TestConditionFirstMatchWins(t *testing.T) {
	build := func(t *testing.T) *domain.Graph {
		return testutils.MustBuild(t, dsl.New().
			Entry("entry").To("classify").
			Agent("classify", "Classifier", "Classify.").To("route").
			Condition("route", dsl.Contains("urgent"), dsl.Contains("gent")).
			OnCondition(0, "first").
			OnCondition(1, "second").
			Else("fallback").
			Agent("first", "First", "").
			Agent("second", "Second", "").
			Agent("fallback", "Fallback", ""))
	}

	tests := []struct {
		name     string
		output   string
		executed string
	}{
		{"first rule wins over overlapping second", "this is URGENT", "first"},
		{"later rule fires when earlier misses", "gentle reminder", "second"},
		{"no match takes the else branch", "nothing special", "fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			responder := mock.New("done").Script("classify", tt.output)
			eng := New(build(t), responder)
			require.NoError(t, eng.Run(context.Background(), ""))

			result := eng.Result()
			assert.Equal(t, domain.StatusCompleted, result.Status)
			assert.Contains(t, result.Variables, tt.executed)
			for _, other := range []string{"first", "second", "fallback"} {
				if other != tt.executed {
					assert.NotContains(t, result.Variables, other)
				}
			}
		})
	}
}

func TestConditionLogsEveryEvaluatedRule(t *testing.T) {
	graph := testutils.BranchGraph(t)
	responder := mock.New("done").Script("classify", "no")

	eng := New(graph, responder)
	require.NoError(t, eng.Run(context.Background(), ""))

	var checks []string
	for _, entry := range eng.Result().Logs {
		if entry.Type == domain.LogLogicCheck {
			checks = append(checks, entry.Content)
		}
	}
	require.Len(t, checks, 1)
	assert.Contains(t, checks[0], "no match")
}

func TestConditionMatchesCaseInsensitively(t *testing.T) {
	graph := testutils.BranchGraph(t)
	responder := mock.New("done").Script("classify", "YES")

	eng := New(graph, responder)
	require.NoError(t, eng.Run(context.Background(), ""))
	assert.Contains(t, eng.Result().Variables, "accept")
}

func TestLegacyTrueHandleAliasesFirstRule(t *testing.T) {
	graph := &domain.Graph{
		Nodes: []domain.Node{
			{ID: "entry", Type: domain.NodeEntry},
			{ID: "route", Type: domain.NodeCondition, Condition: &domain.ConditionConfig{
				Conditions: []domain.ConditionRule{{Operator: domain.OpEqual, Value: "go"}},
			}},
			{ID: "next", Type: domain.NodeAgent, Agent: &domain.AgentConfig{}},
		},
		Connections: []domain.Connection{
			{Source: "entry", Target: "route", SourceHandle: domain.HandleOutput},
			{Source: "route", Target: "next", SourceHandle: domain.HandleTrue},
		},
	}

	eng := New(graph, mock.New("done"))
	require.NoError(t, eng.Run(context.Background(), "go"))
	assert.Contains(t, eng.Result().Variables, "next")
}

func TestApprovalSuspendsAndApproveContinues(t *testing.T) {
	graph := testutils.ApprovalGraph(t)
	responder := mock.New("").
		Script("draft", "the draft").
		Script("publish", "published").
		Script("revise", "revised")

	eng := New(graph, responder)
	require.NoError(t, eng.Run(context.Background(), "go"))

	result := eng.Result()
	require.Equal(t, domain.StatusPaused, result.Status)
	assert.True(t, result.WaitingForInput)
	assert.Equal(t, "gate", result.CurrentNodeID)

	last := result.Logs[len(result.Logs)-1]
	assert.Equal(t, domain.LogWaitInput, last.Type)
	assert.Equal(t, "Publish this draft?", last.Content)

	require.NoError(t, eng.Resume(context.Background(), domain.DecisionApprove))

	result = eng.Result()
	assert.Equal(t, domain.StatusCompleted, result.Status)
	assert.Contains(t, result.Variables, "publish")
	assert.NotContains(t, result.Variables, "revise")
	assert.Equal(t, map[string]any{"decision": "approve", "note": ""}, result.Variables["gate"])
}

func TestApprovalRejectTakesRejectBranch(t *testing.T) {
	graph := testutils.ApprovalGraph(t)
	responder := mock.New("").
		Script("draft", "the draft").
		Script("revise", "revised")

	eng := New(graph, responder)
	require.NoError(t, eng.Run(context.Background(), "go"))
	require.NoError(t, eng.Resume(context.Background(), map[string]any{
		"decision": "reject",
		"note":     "tone is off",
	}))

	result := eng.Result()
	assert.Equal(t, domain.StatusCompleted, result.Status)
	assert.Contains(t, result.Variables, "revise")
	assert.NotContains(t, result.Variables, "publish")
	assert.Equal(t, map[string]any{"decision": "reject", "note": "tone is off"}, result.Variables["gate"])

	var received string
	for _, entry := range result.Logs {
		if entry.Type == domain.LogInputReceived {
			received = entry.Content
		}
	}
	assert.Contains(t, received, "reject (tone is off)")
}

func TestApprovalCoercesFreeFormDecision(t *testing.T) {
	graph := testutils.ApprovalGraph(t)
	responder := mock.New("").Script("publish", "published")

	eng := New(graph, responder)
	require.NoError(t, eng.Run(context.Background(), "go"))
	require.NoError(t, eng.Resume(context.Background(), "ship it"))

	assert.Contains(t, eng.Result().Variables, "publish")
}

func TestApprovalResumePassesUpstreamOutputDownstream(t *testing.T) {
	graph := testutils.MustBuild(t, dsl.New().
		Entry("entry").To("draft").
		Agent("draft", "Drafter", "Draft.").To("gate").
		Approval("gate", "OK?").
		OnApprove("publish").
		Agent("publish", "Publisher", "Publish.").Prompt("Publish this: {{input}}"))

	responder := mock.New("ok").Script("draft", "the draft text")
	eng := New(graph, responder)
	require.NoError(t, eng.Run(context.Background(), "go"))
	require.NoError(t, eng.Resume(context.Background(), domain.DecisionApprove))

	calls := responder.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "publish", calls[1].NodeID)
	// The decision itself never leaks into the prompt.
	assert.Equal(t, "Publish this: the draft text", calls[1].UserContent)
}

func TestConcurrentApprovalsResolveOneAtATime(t *testing.T) {
	graph := testutils.MustBuild(t, dsl.New().
		Entry("entry").To("gate-a", "gate-b").
		Approval("gate-a", "First checkpoint").
		OnApprove("done-a").
		Approval("gate-b", "Second checkpoint").
		OnApprove("done-b").
		Agent("done-a", "A", "").
		Agent("done-b", "B", ""))

	eng := New(graph, mock.New("ok"))
	require.NoError(t, eng.Run(context.Background(), "go"))

	first := eng.Result()
	require.Equal(t, domain.StatusPaused, first.Status)
	require.True(t, first.WaitingForInput)
	require.Contains(t, []string{"gate-a", "gate-b"}, first.CurrentNodeID)

	require.NoError(t, eng.Resume(context.Background(), domain.DecisionApprove))

	second := eng.Result()
	require.Equal(t, domain.StatusPaused, second.Status, "second approval must surface after the first resolves")
	assert.NotEqual(t, first.CurrentNodeID, second.CurrentNodeID)

	require.NoError(t, eng.Resume(context.Background(), domain.DecisionApprove))

	final := eng.Result()
	assert.Equal(t, domain.StatusCompleted, final.Status)
	assert.Contains(t, final.Variables, "done-a")
	assert.Contains(t, final.Variables, "done-b")
}

func TestSuspendedRunDefersSiblingWork(t *testing.T) {
	graph := testutils.MustBuild(t, dsl.New().
		Entry("entry").To("late").
		Agent("late", "Late", "").
		Approval("gate", "OK?"))

	eng := New(graph, mock.New("ok"))
	eng.mu.Lock()
	eng.status = domain.StatusPaused
	eng.waitingForInput = true
	eng.currentNodeID = "gate"
	eng.mu.Unlock()

	// A sibling branch arriving during suspension must queue, not execute.
	eng.processNode(context.Background(), graph.NodeByID("late"), "pending work", true)

	eng.mu.Lock()
	item, ok := eng.popDeferred()
	eng.mu.Unlock()
	require.True(t, ok)
	assert.Equal(t, "late", item.NodeID)
	assert.Equal(t, "pending work", item.PreviousOutput)
	assert.NotContains(t, eng.Result().Variables, "late")
}

func TestResumeDrainsDeferredWork(t *testing.T) {
	graph := testutils.MustBuild(t, dsl.New().
		Entry("entry").To("gate").
		Approval("gate", "OK?").
		OnApprove("after").
		Agent("after", "After", "").
		Agent("deferred", "Deferred", ""))

	eng := New(graph, mock.New("ok"))
	require.NoError(t, eng.Run(context.Background(), "go"))
	require.Equal(t, domain.StatusPaused, eng.Result().Status)

	eng.mu.Lock()
	eng.pushDeferred("deferred", "queued output")
	eng.mu.Unlock()

	require.NoError(t, eng.Resume(context.Background(), domain.DecisionApprove))

	result := eng.Result()
	assert.Equal(t, domain.StatusCompleted, result.Status)
	assert.Contains(t, result.Variables, "after")
	assert.Contains(t, result.Variables, "deferred")
}

func TestFanOutSiblingsDoNotClobberSharedOutput(t *testing.T) {
	graph := testutils.MustBuild(t, dsl.New().
		Entry("entry").To("left", "right").
		Agent("left", "Left", "").
		Agent("right", "Right", ""))

	responder := mock.New("").Script("left", "from left").Script("right", "from right")
	eng := New(graph, responder)
	require.NoError(t, eng.Run(context.Background(), "seed"))

	result := eng.Result()
	assert.Equal(t, domain.StatusCompleted, result.Status)
	assert.Equal(t, "from left", result.Variables["left"])
	assert.Equal(t, "from right", result.Variables["right"])
	// Concurrent siblings never write the shared slot; the entry's value stays.
	assert.Equal(t, "seed", result.Variables[domain.VarPreviousOutput])
}

func TestPlaceholderSubstitution(t *testing.T) {
	graph := testutils.MustBuild(t, dsl.New().
		Entry("entry").To("draft").
		Agent("draft", "Drafter", "Draft.").Prompt("Write about: {{input}}").To("echo").
		Agent("echo", "Echo", "Echo."))

	responder := mock.New("ok").Script("draft", "a draft")
	eng := New(graph, responder)
	require.NoError(t, eng.Run(context.Background(), "Go generics"))

	calls := responder.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "Write about: Go generics", calls[0].UserContent)
	// An agent without a prompt receives the raw upstream output.
	assert.Equal(t, "a draft", calls[1].UserContent)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	graph := testutils.ApprovalGraph(t)
	responder := mock.New("").
		Script("draft", "the draft").
		Script("publish", "published")

	eng := New(graph, responder, WithRunID("run-rt"))
	require.NoError(t, eng.Run(context.Background(), "go"))
	require.Equal(t, domain.StatusPaused, eng.Result().Status)

	// Round-trip through JSON the way any store would, widening types.
	raw, err := json.Marshal(eng.Snapshot())
	require.NoError(t, err)
	var snap domain.RunSnapshot
	require.NoError(t, json.Unmarshal(raw, &snap))

	restored, err := NewFromSnapshot(nil, &snap, responder)
	require.NoError(t, err)
	assert.Equal(t, "run-rt", restored.RunID())

	require.NoError(t, restored.Resume(context.Background(), domain.DecisionApprove))

	result := restored.Result()
	assert.Equal(t, domain.StatusCompleted, result.Status)
	assert.Contains(t, result.Variables, "publish")
	assert.Equal(t, "the draft", result.Variables["draft"])
}

func TestSnapshotRestoreQueuesSurviveSerialization(t *testing.T) {
	graph := testutils.MustBuild(t, dsl.New().
		Entry("entry").To("gate-a", "gate-b").
		Approval("gate-a", "First").
		OnApprove("done-a").
		Approval("gate-b", "Second").
		OnApprove("done-b").
		Agent("done-a", "A", "").
		Agent("done-b", "B", ""))

	responder := mock.New("ok")
	eng := New(graph, responder)
	require.NoError(t, eng.Run(context.Background(), "go"))

	raw, err := json.Marshal(eng.Snapshot())
	require.NoError(t, err)
	var snap domain.RunSnapshot
	require.NoError(t, json.Unmarshal(raw, &snap))

	restored, err := NewFromSnapshot(nil, &snap, responder)
	require.NoError(t, err)

	// Both checkpoints still resolve in sequence after the round trip.
	require.NoError(t, restored.Resume(context.Background(), domain.DecisionApprove))
	require.Equal(t, domain.StatusPaused, restored.Result().Status)
	require.NoError(t, restored.Resume(context.Background(), domain.DecisionApprove))
	assert.Equal(t, domain.StatusCompleted, restored.Result().Status)
}

func TestNewFromSnapshotRejectsBadSnapshots(t *testing.T) {
	responder := mock.New("ok")

	_, err := NewFromSnapshot(nil, nil, responder)
	assert.ErrorIs(t, err, domain.ErrNotPaused)

	_, err = NewFromSnapshot(nil, &domain.RunSnapshot{
		RunID:  "r",
		Status: domain.StatusCompleted,
	}, responder)
	assert.ErrorIs(t, err, domain.ErrNotPaused)

	_, err = NewFromSnapshot(nil, &domain.RunSnapshot{
		RunID:           "r",
		Status:          domain.StatusPaused,
		WaitingForInput: true,
		CurrentNodeID:   "gate",
	}, responder)
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestLogSinkReceivesEveryEntry(t *testing.T) {
	var seen []domain.LogEntry
	eng := New(testutils.LinearGraph(t), mock.New("ok"), WithLogSink(func(entry domain.LogEntry) {
		seen = append(seen, entry)
	}))

	require.NoError(t, eng.Run(context.Background(), ""))
	assert.Equal(t, eng.Result().Logs, seen)
}

func TestStringifyOutput(t *testing.T) {
	assert.Equal(t, "", stringifyOutput(nil))
	assert.Equal(t, "plain", stringifyOutput("plain"))
	assert.Equal(t, `{"a":1}`, stringifyOutput(map[string]any{"a": 1}))
}
