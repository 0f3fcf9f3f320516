// Package cli implements the interactive and headless run sessions behind
// the agentry run command.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"log/slog"
	"strings"

	"golang.org/x/term"

	"github.com/agentry-dev/agentry"
	"github.com/agentry-dev/agentry/internal/adapters/file"
	"github.com/agentry-dev/agentry/internal/compiler"
	"github.com/agentry-dev/agentry/internal/logging"
	"github.com/agentry-dev/agentry/internal/presentation/tui"
	"github.com/agentry-dev/agentry/internal/runtime"
	"github.com/agentry-dev/agentry/pkg/domain"
	"github.com/agentry-dev/agentry/pkg/ports"
	"github.com/agentry-dev/agentry/pkg/runner"
	"github.com/agentry-dev/agentry/pkg/session"
)

// RunOptions configures a single run session.
type RunOptions struct {
	WorkflowPath string
	Input        string
	RunID        string
	StorePath    string
	Headless     bool
	JSON         bool
	Debug        bool
	Responder    ports.Responder
}

// RunSession executes one workflow run, answering approval checkpoints from
// stdin until the run reaches a terminal status.
func RunSession(ctx context.Context, opts RunOptions) error {
	logger := logging.NewNop()
	if opts.Debug {
		logger = logging.New(slog.LevelDebug)
	}

	interactive := !opts.JSON && !opts.Headless && term.IsTerminal(int(os.Stdin.Fd()))
	if interactive {
		tui.PrintBanner(agentry.Version)
	}

	data, err := os.ReadFile(opts.WorkflowPath)
	if err != nil {
		return fmt.Errorf("failed to read workflow: %w", err)
	}
	graph, err := compiler.Parse(data)
	if err != nil {
		return fmt.Errorf("invalid workflow: %w", err)
	}

	input, err := runner.SanitizeInput(opts.Input)
	if err != nil {
		return fmt.Errorf("input rejected: %w", err)
	}

	sessions := session.NewManager(file.NewStore(opts.StorePath),
		session.WithLogger(logger))

	engineOpts := []runtime.Option{
		runtime.WithLogger(logger),
		runtime.WithLogSink(newSinkPrinter(opts.JSON)),
	}
	if opts.RunID != "" {
		engineOpts = append(engineOpts, runtime.WithRunID(opts.RunID))
	}

	eng := runtime.New(graph, opts.Responder, engineOpts...)

	if err := eng.Run(ctx, input); err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		result := eng.Result()
		if result.Status != domain.StatusPaused || !result.WaitingForInput {
			break
		}
		if err := sessions.Save(ctx, eng.Snapshot()); err != nil {
			logger.Warn("failed to persist paused run", "runId", eng.RunID(), "err", err)
		}
		if opts.Headless || opts.JSON {
			// Suspended runs are resumed later via resume or the server.
			printResult(result, opts.JSON, interactive)
			return nil
		}

		decision, note, err := promptDecision(reader, result.CurrentNodeID)
		if err != nil {
			return err
		}
		var input any = decision
		if note != "" {
			input = map[string]any{"decision": decision, "note": note}
		}
		if err := eng.Resume(ctx, input); err != nil {
			return fmt.Errorf("resume failed: %w", err)
		}
	}

	if err := sessions.Save(ctx, eng.Snapshot()); err != nil {
		logger.Warn("failed to persist run", "runId", eng.RunID(), "err", err)
	}

	result := eng.Result()
	printResult(result, opts.JSON, interactive)
	if result.Status == domain.StatusFailed {
		return fmt.Errorf("run %s failed", result.RunID)
	}
	return nil
}

// ResumeSession loads a persisted run and applies one approval decision.
func ResumeSession(ctx context.Context, storePath, runID, decision, note string, responder ports.Responder) error {
	sessions := session.NewManager(file.NewStore(storePath))

	return sessions.WithLock(ctx, runID, func(ctx context.Context) error {
		snap, err := sessions.Load(ctx, runID)
		if err != nil {
			return err
		}
		eng, err := runtime.NewFromSnapshot(nil, snap, responder,
			runtime.WithLogSink(newSinkPrinter(false)))
		if err != nil {
			return err
		}
		var input any = decision
		if note != "" {
			input = map[string]any{"decision": decision, "note": note}
		}
		if err := eng.Resume(ctx, input); err != nil {
			return err
		}
		if err := sessions.Save(ctx, eng.Snapshot()); err != nil {
			return err
		}
		printResult(eng.Result(), false, term.IsTerminal(int(os.Stdout.Fd())))
		return nil
	})
}

func promptDecision(reader *bufio.Reader, nodeID string) (string, string, error) {
	for {
		fmt.Printf("\n[%s] approve or reject? ", nodeID)
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", "", fmt.Errorf("failed to read decision: %w", err)
		}
		decision, note, _ := strings.Cut(strings.TrimSpace(line), " ")
		switch strings.ToLower(decision) {
		case "approve", "a", "yes", "y":
			return domain.DecisionApprove, strings.TrimSpace(note), nil
		case "reject", "r", "no", "n":
			return domain.DecisionReject, strings.TrimSpace(note), nil
		}
		fmt.Println("Please answer 'approve' or 'reject', optionally followed by a note.")
	}
}

// newSinkPrinter returns a log sink that writes entries to stdout, as NDJSON
// in JSON mode and as plain lines otherwise.
func newSinkPrinter(jsonMode bool) ports.LogSink {
	if jsonMode {
		enc := json.NewEncoder(os.Stdout)
		return func(entry domain.LogEntry) {
			enc.Encode(entry)
		}
	}
	return func(entry domain.LogEntry) {
		fmt.Printf("[%s] %s: %s\n", entry.Type, entry.NodeID, entry.Content)
	}
}

func printResult(result domain.RunResult, jsonMode, interactive bool) {
	if jsonMode {
		json.NewEncoder(os.Stdout).Encode(result)
		return
	}
	if !interactive {
		fmt.Printf("\nrun %s finished with status %s\n", result.RunID, result.Status)
		return
	}

	render := tui.NewRenderer()
	out, err := render(tui.Transcript(result))
	if err != nil {
		fmt.Printf("\nrun %s finished with status %s\n", result.RunID, result.Status)
		return
	}
	fmt.Print(out)
}
