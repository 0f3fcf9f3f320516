// Package mcp exposes workflow execution as an MCP server, so agent hosts
// can start runs, answer approvals, and inspect results over stdio or SSE.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/agentry-dev/agentry"
	"github.com/agentry-dev/agentry/internal/compiler"
	"github.com/agentry-dev/agentry/internal/runtime"
	"github.com/agentry-dev/agentry/pkg/domain"
	"github.com/agentry-dev/agentry/pkg/ports"
	"github.com/agentry-dev/agentry/pkg/runner"
	"github.com/agentry-dev/agentry/pkg/session"
)

// RunResponse aligns with the HTTP adapter's result payload so MCP clients
// and REST clients see the same shape.
type RunResponse struct {
	RunID           string         `json:"runId" jsonschema_description:"Identifier of the run"`
	Status          string         `json:"status" jsonschema_description:"pending, running, paused, completed or failed"`
	WaitingForInput bool           `json:"waitingForInput" jsonschema_description:"True while the run is suspended on an approval"`
	CurrentNodeID   string         `json:"currentNodeId,omitempty" jsonschema_description:"Node the run is suspended on, if any"`
	Logs            []string       `json:"logs" jsonschema_description:"Execution log lines in order"`
	Variables       map[string]any `json:"variables,omitempty" jsonschema_description:"Shared variable bag of the run"`
}

// Server wraps the run engine and session store as an MCP server.
type Server struct {
	sessions  *session.Manager
	responder ports.Responder
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance.
func NewServer(sessions *session.Manager, responder ports.Responder) *Server {
	s := &Server{
		sessions:  sessions,
		responder: responder,
		mcpServer: server.NewMCPServer("agentry-mcp", strings.TrimSpace(agentry.Version)),
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: run_workflow
	runTool := mcp.NewTool("run_workflow",
		mcp.WithDescription("Execute a workflow graph until it completes, fails, or suspends on an approval node."),
		mcp.WithString("workflow", mcp.Required(), mcp.Description("Workflow document as JSON or YAML")),
		mcp.WithString("input", mcp.Description("Initial input for the entry node")),
		mcp.WithString("run_id", mcp.Description("Optional caller-chosen run id")),
		mcp.WithOutputSchema[RunResponse](),
	)
	s.mcpServer.AddTool(runTool, mcp.NewStructuredToolHandler(s.handleRunWorkflow))

	// TOOL: resume_run
	resumeTool := mcp.NewTool("resume_run",
		mcp.WithDescription("Resume a paused run with an approval decision."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("Id of the paused run")),
		mcp.WithString("decision", mcp.Required(), mcp.Description("approve or reject")),
		mcp.WithString("note", mcp.Description("Optional note recorded with the decision")),
		mcp.WithOutputSchema[RunResponse](),
	)
	s.mcpServer.AddTool(resumeTool, mcp.NewStructuredToolHandler(s.handleResumeRun))

	// TOOL: get_run
	getTool := mcp.NewTool("get_run",
		mcp.WithDescription("Fetch the current status, logs, and variables of a run."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("Id of the run")),
		mcp.WithOutputSchema[RunResponse](),
	)
	s.mcpServer.AddTool(getTool, mcp.NewStructuredToolHandler(s.handleGetRun))

	// TOOL: list_runs
	s.mcpServer.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List the ids of all persisted runs."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := s.sessions.List(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(ids)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: validate_workflow
	s.mcpServer.AddTool(mcp.NewTool("validate_workflow",
		mcp.WithDescription("Check a workflow document for structural problems without executing it."),
		mcp.WithString("workflow", mcp.Required(), mcp.Description("Workflow document as JSON or YAML")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		doc, err := request.RequireString("workflow")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		graph, err := compiler.Parse([]byte(doc))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid workflow: %v", err)), nil
		}
		if err := agentry.ValidateWorkflow(graph); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("validation failed: %v", err)), nil
		}
		return mcp.NewToolResultText("workflow is valid"), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleRunWorkflow(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (RunResponse, error) {
	doc, _ := args["workflow"].(string)
	input, _ := args["input"].(string)

	graph, err := compiler.Parse([]byte(doc))
	if err != nil {
		return RunResponse{}, fmt.Errorf("invalid workflow: %w", err)
	}

	clean, err := runner.SanitizeInput(input)
	if err != nil {
		slog.Warn("MCP run_workflow: input rejected", "err", err, "size", len(input))
		return RunResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	var opts []runtime.Option
	if runID, ok := args["run_id"].(string); ok && runID != "" {
		opts = append(opts, runtime.WithRunID(runID))
	}

	eng := runtime.New(graph, s.responder, opts...)
	if err := eng.Run(ctx, clean); err != nil {
		slog.Error("MCP run_workflow: run failed", "runId", eng.RunID(), "err", err)
	}

	if err := s.sessions.Save(ctx, eng.Snapshot()); err != nil {
		return RunResponse{}, fmt.Errorf("persist failed: %w", err)
	}

	return responseFromResult(eng.Result()), nil
}

func (s *Server) handleResumeRun(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (RunResponse, error) {
	runID, _ := args["run_id"].(string)
	decision, _ := args["decision"].(string)
	note, _ := args["note"].(string)

	var resp RunResponse
	err := s.sessions.WithLock(ctx, runID, func(ctx context.Context) error {
		snap, err := s.sessions.Load(ctx, runID)
		if err != nil {
			return err
		}
		eng, err := runtime.NewFromSnapshot(nil, snap, s.responder)
		if err != nil {
			return err
		}
		var input any = decision
		if note != "" {
			input = map[string]any{"decision": decision, "note": note}
		}
		if err := eng.Resume(ctx, input); err != nil {
			slog.Error("MCP resume_run: resume failed", "runId", runID, "err", err)
		}
		if err := s.sessions.Save(ctx, eng.Snapshot()); err != nil {
			return err
		}
		resp = responseFromResult(eng.Result())
		return nil
	})
	if err != nil {
		return RunResponse{}, fmt.Errorf("resume failed: %w", err)
	}
	return resp, nil
}

func (s *Server) handleGetRun(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (RunResponse, error) {
	runID, _ := args["run_id"].(string)

	snap, err := s.sessions.Load(ctx, runID)
	if err != nil {
		return RunResponse{}, fmt.Errorf("load failed: %w", err)
	}

	return responseFromResult(domain.RunResult{
		RunID:           snap.RunID,
		Status:          snap.Status,
		Logs:            snap.Logs,
		Variables:       snap.Variables,
		WaitingForInput: snap.WaitingForInput,
		CurrentNodeID:   snap.CurrentNodeID,
	}), nil
}

func responseFromResult(res domain.RunResult) RunResponse {
	lines := make([]string, 0, len(res.Logs))
	for _, entry := range res.Logs {
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", entry.Type, entry.NodeID, entry.Content))
	}
	return RunResponse{
		RunID:           res.RunID,
		Status:          string(res.Status),
		WaitingForInput: res.WaitingForInput,
		CurrentNodeID:   res.CurrentNodeID,
		Logs:            lines,
		Variables:       res.Variables,
	}
}
