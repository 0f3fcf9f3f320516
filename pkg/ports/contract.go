package ports

import (
	"context"
	"testing"
	"time"

	"github.com/agentry-dev/agentry/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreContract runs a suite of tests to verify that a RunStore
// implementation adheres to the defined interface contract.
func RunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()
	runID := "contract-test-run-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := &domain.RunSnapshot{
			RunID:           runID,
			Status:          domain.StatusPaused,
			CurrentNodeID:   "approve-1",
			WaitingForInput: true,
			Variables: map[string]any{
				domain.VarPreviousOutput: "draft text",
				"agent-1":                "draft text",
			},
			Logs: []domain.LogEntry{
				{Timestamp: time.Now().UTC(), NodeID: "agent-1", Type: domain.LogStepStart, Content: "Executing node agent-1"},
			},
		}

		err := store.Save(ctx, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap.Status, loaded.Status)
		assert.Equal(t, snap.CurrentNodeID, loaded.CurrentNodeID)
		assert.True(t, loaded.WaitingForInput)
		// JSON persistence may widen numeric types; only check presence and
		// string round-tripping here.
		assert.Equal(t, "draft text", loaded.Variables[domain.VarPreviousOutput])
		require.Len(t, loaded.Logs, 1)
		assert.Equal(t, domain.LogStepStart, loaded.Logs[0].Type)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, &domain.RunSnapshot{RunID: runID, Status: domain.StatusCompleted})
		require.NoError(t, err)

		err = store.Delete(ctx, runID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		_ = store.Save(ctx, &domain.RunSnapshot{RunID: id1, Status: domain.StatusCompleted})
		_ = store.Save(ctx, &domain.RunSnapshot{RunID: id2, Status: domain.StatusCompleted})

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		runs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, runs, id1)
		assert.Contains(t, runs, id2)
	})
}
