package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/agentry-dev/agentry/pkg/domain"
)

// NewRenderer returns a function that renders markdown using glamour.
// It auto-detects light or dark terminal backgrounds.
func NewRenderer() func(string) (string, error) {
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// Transcript formats a run's log entries as a markdown document, suitable
// for the glamour renderer.
func Transcript(result domain.RunResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Run %s\n\n", result.RunID)
	fmt.Fprintf(&sb, "**Status:** %s\n\n", result.Status)

	for _, entry := range result.Logs {
		switch entry.Type {
		case domain.LogLLMResponse:
			fmt.Fprintf(&sb, "### %s\n\n%s\n\n", entry.NodeID, entry.Content)
		case domain.LogWaitInput:
			fmt.Fprintf(&sb, "> ⏸ **%s**: %s\n\n", entry.NodeID, entry.Content)
		case domain.LogError, domain.LogLLMError:
			fmt.Fprintf(&sb, "> ❌ **%s**: %s\n\n", entry.NodeID, entry.Content)
		default:
			fmt.Fprintf(&sb, "- `%s` %s\n", entry.NodeID, entry.Content)
		}
	}

	return sb.String()
}
