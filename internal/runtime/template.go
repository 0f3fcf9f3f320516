package runtime

import "strings"

// PlaceholderToken is the reserved token inside an agent node's user prompt
// that is replaced with the last non-approval textual output of the run.
const PlaceholderToken = "{{input}}"

func substitutePlaceholder(prompt, value string) string {
	return strings.ReplaceAll(prompt, PlaceholderToken, value)
}
