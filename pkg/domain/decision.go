package domain

import (
	"fmt"
	"strings"
)

// Decision values accepted on resume of an approval node.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// ApprovalDecision is the caller-supplied outcome for a suspended approval
// node. Produced on resume, normalized, stored in the variables bag, and
// consumed once to select an outgoing branch.
type ApprovalDecision struct {
	Decision string `json:"decision"`
	Note     string `json:"note,omitempty"`
}

// Handle returns the source handle this decision selects.
func (d ApprovalDecision) Handle() string {
	if d.Decision == DecisionReject {
		return HandleReject
	}
	return HandleApprove
}

// Summary renders a human-readable form for the input_received log entry.
func (d ApprovalDecision) Summary() string {
	if d.Note != "" {
		return fmt.Sprintf("%s (%s)", d.Decision, d.Note)
	}
	return d.Decision
}

// NormalizeDecision coerces a free-form resume input into an ApprovalDecision.
// Any string containing "reject" becomes a rejection; everything else, an
// approval. Structured inputs pass through with the same coercion applied to
// the decision field.
func NormalizeDecision(input any) ApprovalDecision {
	switch v := input.(type) {
	case ApprovalDecision:
		return ApprovalDecision{Decision: coerceDecision(v.Decision), Note: v.Note}
	case *ApprovalDecision:
		if v == nil {
			return ApprovalDecision{Decision: DecisionApprove}
		}
		return ApprovalDecision{Decision: coerceDecision(v.Decision), Note: v.Note}
	case map[string]any:
		d := ApprovalDecision{}
		if s, ok := v["decision"].(string); ok {
			d.Decision = s
		}
		if s, ok := v["note"].(string); ok {
			d.Note = s
		}
		d.Decision = coerceDecision(d.Decision)
		return d
	case string:
		return ApprovalDecision{Decision: coerceDecision(v)}
	case nil:
		return ApprovalDecision{Decision: DecisionApprove}
	default:
		return ApprovalDecision{Decision: coerceDecision(fmt.Sprintf("%v", v))}
	}
}

func coerceDecision(raw string) string {
	if strings.Contains(strings.ToLower(raw), DecisionReject) {
		return DecisionReject
	}
	return DecisionApprove
}
