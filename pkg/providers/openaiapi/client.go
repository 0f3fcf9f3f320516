// Package openaiapi provides a Responder backed by an OpenAI-compatible chat
// completions endpoint. Any backend speaking that wire shape works: OpenAI
// itself, a local vLLM or Ollama server, or a gateway.
//
// Delegation trees are flattened into the system prompt as a capability
// manifest; this package performs no tool-call round-tripping of its own.
package openaiapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/agentry-dev/agentry/pkg/domain"
	"github.com/agentry-dev/agentry/pkg/ports"
)

// DefaultModel is used when an agent node does not pin one.
const DefaultModel = "gpt-4o-mini"

// DefaultBaseURL is used when no endpoint is configured.
const DefaultBaseURL = "https://api.openai.com/v1"

// Client implements ports.Responder over an OpenAI-compatible HTTP API.
type Client struct {
	baseURL      string
	apiKey       string
	defaultModel string
	httpClient   *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithDefaultModel overrides the model used when an agent node does not pin one.
func WithDefaultModel(model string) Option {
	return func(c *Client) {
		c.defaultModel = model
	}
}

// New creates a client for the given endpoint.
func New(baseURL, apiKey string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		apiKey:       apiKey,
		defaultModel: DefaultModel,
		httpClient:   &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model           string        `json:"model"`
	Messages        []chatMessage `json:"messages"`
	ReasoningEffort string        `json:"reasoning_effort,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Respond implements ports.Responder.
func (c *Client) Respond(ctx context.Context, inv domain.Invocation, opts ports.ResponderOptions) (string, error) {
	model := inv.Model
	if model == "" {
		model = c.defaultModel
	}

	req := chatRequest{
		Model:           model,
		ReasoningEffort: inv.Effort,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(inv)},
			{Role: "user", Content: inv.UserContent},
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read chat response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode chat response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(data))
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("chat endpoint returned %d: %s", resp.StatusCode, msg)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat endpoint returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// systemPrompt appends the delegation manifest to the node's system prompt so
// the model knows which subagents it may hand work to.
func systemPrompt(inv domain.Invocation) string {
	var b strings.Builder
	b.WriteString(inv.SystemPrompt)
	if len(inv.Delegates) > 0 {
		b.WriteString("\n\nYou can delegate to the following subagents:\n")
		writeManifest(&b, inv.Delegates, 0)
	}
	return b.String()
}

func writeManifest(b *strings.Builder, delegates []domain.Invocation, indent int) {
	for _, d := range delegates {
		fmt.Fprintf(b, "%s- %s: %s\n", strings.Repeat("  ", indent), d.Name, firstLine(d.SystemPrompt))
		writeManifest(b, d.Delegates, indent+1)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
