package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/agentry-dev/agentry/internal/runtime"
	"github.com/agentry-dev/agentry/pkg/domain"
	"github.com/agentry-dev/agentry/pkg/ports"
)

// DecisionFunc supplies the decision for a suspended approval node. It
// receives the node id and the prompt logged at suspension, and returns the
// resume input, typically domain.DecisionApprove or an ApprovalDecision.
type DecisionFunc func(ctx context.Context, nodeID, prompt string) (any, error)

// AutoApprove approves every checkpoint. Useful for tests and unattended runs.
func AutoApprove(ctx context.Context, nodeID, prompt string) (any, error) {
	return domain.DecisionApprove, nil
}

// Runner executes an engine until it reaches a terminal status.
type Runner struct {
	// Decide answers approval checkpoints. If nil, AutoApprove is used.
	Decide DecisionFunc

	// Store persists a snapshot after every suspension and at the end of the
	// run. If nil, runs are ephemeral.
	Store ports.RunStore

	// Logger is used for internal debug logging. If nil, logs are discarded.
	Logger *slog.Logger

	// MaxDecisions caps the number of approvals answered before giving up,
	// guarding against workflows that loop through the same checkpoint.
	// Zero means the default of 100.
	MaxDecisions int
}

// NewRunner creates a Runner with defaults.
func NewRunner() *Runner {
	return &Runner{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Run executes the engine with the given input and answers approvals until
// the run completes or fails. The terminal result is returned.
func (r *Runner) Run(ctx context.Context, eng *runtime.Engine, input string) (domain.RunResult, error) {
	decide := r.Decide
	if decide == nil {
		decide = AutoApprove
	}
	maxDecisions := r.MaxDecisions
	if maxDecisions <= 0 {
		maxDecisions = 100
	}

	if err := eng.Run(ctx, input); err != nil {
		return eng.Result(), err
	}

	decisions := 0
	for {
		result := eng.Result()
		if !(result.Status == domain.StatusPaused && result.WaitingForInput) {
			break
		}
		if err := r.persist(ctx, eng); err != nil {
			return result, err
		}
		if decisions >= maxDecisions {
			return result, fmt.Errorf("gave up after %d approval decisions", decisions)
		}
		decisions++

		decision, err := decide(ctx, result.CurrentNodeID, lastPrompt(result))
		if err != nil {
			return result, fmt.Errorf("decision for node %s failed: %w", result.CurrentNodeID, err)
		}
		r.Logger.Debug("answering approval", "node", result.CurrentNodeID, "decision", decision)

		if err := eng.Resume(ctx, decision); err != nil {
			return eng.Result(), err
		}
	}

	if err := r.persist(ctx, eng); err != nil {
		return eng.Result(), err
	}
	return eng.Result(), nil
}

func (r *Runner) persist(ctx context.Context, eng *runtime.Engine) error {
	if r.Store == nil {
		return nil
	}
	if err := r.Store.Save(ctx, eng.Snapshot()); err != nil {
		return fmt.Errorf("failed to persist run %s: %w", eng.RunID(), err)
	}
	return nil
}

// lastPrompt returns the content of the most recent wait_input entry, which
// carries the approval prompt shown to the caller.
func lastPrompt(result domain.RunResult) string {
	for i := len(result.Logs) - 1; i >= 0; i-- {
		if result.Logs[i].Type == domain.LogWaitInput {
			return result.Logs[i].Content
		}
	}
	return ""
}
