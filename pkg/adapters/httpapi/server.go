// Package httpapi exposes workflow execution over a small REST surface with
// a server-sent event stream per run.
package httpapi

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/agentry-dev/agentry/internal/compiler"
	"github.com/agentry-dev/agentry/internal/logging"
	"github.com/agentry-dev/agentry/internal/runtime"
	"github.com/agentry-dev/agentry/pkg/domain"
	"github.com/agentry-dev/agentry/pkg/ports"
	"github.com/agentry-dev/agentry/pkg/runner"
	"github.com/agentry-dev/agentry/pkg/session"
)

//go:embed openapi.yaml
var openapiSpec []byte

// Observer receives log entries and finished results, typically the
// observability metrics collector.
type Observer interface {
	Sink() ports.LogSink
	ObserveResult(domain.RunResult)
}

// Server wires parsed workflows, the run engine, and the session store
// behind HTTP handlers.
type Server struct {
	sessions  *session.Manager
	responder ports.Responder
	streams   *StreamManager
	observer  Observer
	logger    *slog.Logger
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the structured logger used by the handlers.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithObserver attaches a metrics observer to every run the server executes.
func WithObserver(o Observer) Option {
	return func(s *Server) { s.observer = o }
}

// NewServer creates a server backed by the given session manager and responder.
func NewServer(sessions *session.Manager, responder ports.Responder, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		responder: responder,
		streams:   NewStreamManager(),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the chi router for the server. Requests are validated
// against the embedded OpenAPI document before reaching the handlers.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})

	validate, err := newSpecValidator(openapiSpec)
	if err != nil {
		// The spec is embedded, so this only fires on a broken build.
		panic(fmt.Sprintf("httpapi: invalid embedded OpenAPI spec: %v", err))
	}

	r.Group(func(r chi.Router) {
		r.Use(validate)
		r.Get("/health", s.GetHealth)
		r.Get("/runs", s.ListRuns)
		r.Post("/runs", s.CreateRun)
		r.Get("/runs/{runId}", s.GetRun)
		r.Post("/runs/{runId}/resume", s.ResumeRun)
	})

	// The SSE endpoint stays outside the validator so the long-lived
	// response body is never buffered.
	r.Get("/runs/{runId}/events", s.StreamRunEvents)

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateRunRequest is the body of POST /runs.
type CreateRunRequest struct {
	RunID    string          `json:"runId,omitempty"`
	Workflow json.RawMessage `json:"workflow"`
	Input    string          `json:"input,omitempty"`
}

// ResumeRequest is the body of POST /runs/{runId}/resume.
type ResumeRequest struct {
	Decision string `json:"decision,omitempty"`
	Note     string `json:"note,omitempty"`
}

// CreateRun handles POST /runs. The run executes synchronously until it
// completes, fails, or suspends on an approval node.
func (s *Server) CreateRun(w http.ResponseWriter, r *http.Request) {
	var body CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("CreateRun: invalid request body", "err", err)
		return
	}

	graph, err := compiler.Parse(body.Workflow)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid workflow: %v", err), http.StatusBadRequest)
		s.logger.Warn("CreateRun: invalid workflow", "err", err)
		return
	}

	input, err := runner.SanitizeInput(body.Input)
	if err != nil {
		http.Error(w, fmt.Sprintf("Input rejected: %v", err), http.StatusBadRequest)
		s.logger.Warn("CreateRun: input rejected", "err", err, "size", len(body.Input))
		return
	}

	runID := body.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	eng := runtime.New(graph, s.responder,
		runtime.WithRunID(runID),
		runtime.WithLogger(s.logger),
		runtime.WithLogSink(s.runSink(runID)),
	)

	if err := eng.Run(r.Context(), input); err != nil {
		if errors.Is(err, domain.ErrNoEntryNode) {
			http.Error(w, "Workflow has no entry node", http.StatusUnprocessableEntity)
			return
		}
		// Failed runs are still persisted so their logs stay inspectable.
		s.logger.Error("CreateRun: run failed", "runId", runID, "err", err)
	}

	snap := eng.Snapshot()
	if err := s.sessions.Save(r.Context(), snap); err != nil {
		http.Error(w, "Failed to persist run", http.StatusInternalServerError)
		s.logger.Error("CreateRun: save failed", "runId", runID, "err", err)
		return
	}

	result := eng.Result()
	if s.observer != nil {
		s.observer.ObserveResult(result)
	}
	writeJSON(w, http.StatusOK, result)
}

// ResumeRun handles POST /runs/{runId}/resume.
func (s *Server) ResumeRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runId")

	var body ResumeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var result domain.RunResult
	err := s.sessions.WithLock(r.Context(), runID, func(ctx context.Context) error {
		snap, err := s.sessions.Load(ctx, runID)
		if err != nil {
			return err
		}
		eng, err := runtime.NewFromSnapshot(nil, snap, s.responder,
			runtime.WithLogger(s.logger),
			runtime.WithLogSink(s.runSink(runID)),
		)
		if err != nil {
			return err
		}
		var input any = body.Decision
		if body.Note != "" {
			input = map[string]any{"decision": body.Decision, "note": body.Note}
		}
		if err := eng.Resume(ctx, input); err != nil && !errors.Is(err, domain.ErrNotPaused) {
			s.logger.Error("ResumeRun: resume failed", "runId", runID, "err", err)
		}
		if err := s.sessions.Save(ctx, eng.Snapshot()); err != nil {
			return err
		}
		result = eng.Result()
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRunNotFound):
			http.Error(w, "Run not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrNotPaused):
			http.Error(w, "Run is not paused", http.StatusConflict)
		default:
			http.Error(w, "Failed to resume run", http.StatusInternalServerError)
			s.logger.Error("ResumeRun failed", "runId", runID, "err", err)
		}
		return
	}

	if s.observer != nil {
		s.observer.ObserveResult(result)
	}
	writeJSON(w, http.StatusOK, result)
}

// runSink fans log entries out to SSE subscribers and, when configured,
// the metrics observer.
func (s *Server) runSink(runID string) ports.LogSink {
	stream := s.streams.Sink(runID)
	if s.observer == nil {
		return stream
	}
	metrics := s.observer.Sink()
	return func(entry domain.LogEntry) {
		stream(entry)
		metrics(entry)
	}
}

// GetRun handles GET /runs/{runId}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runId")

	snap, err := s.sessions.Load(r.Context(), runID)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			http.Error(w, "Run not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load run", http.StatusInternalServerError)
		s.logger.Error("GetRun failed", "runId", runID, "err", err)
		return
	}

	writeJSON(w, http.StatusOK, domain.RunResult{
		RunID:           snap.RunID,
		Status:          snap.Status,
		Logs:            snap.Logs,
		Variables:       snap.Variables,
		WaitingForInput: snap.WaitingForInput,
		CurrentNodeID:   snap.CurrentNodeID,
	})
}

// ListRuns handles GET /runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		s.logger.Error("ListRuns failed", "err", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

// StreamRunEvents handles GET /runs/{runId}/events as a server-sent event
// stream. Each log entry produced by the run is sent as one JSON data frame.
func (s *Server) StreamRunEvents(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runId")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events, cancel := s.streams.Subscribe(runID)
	defer cancel()

	fmt.Fprint(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", "err", err)
	}
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Agentry API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`
