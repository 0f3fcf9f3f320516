package runtime

import (
	"fmt"
	"strings"

	"github.com/agentry-dev/agentry/pkg/domain"
)

// evaluateCondition decides which outgoing edges of a condition node fire.
//
// The upstream output and every condition value are compared lower-cased.
// Rules are evaluated in declared order and the first passing rule wins; an
// empty condition value never matches. Each evaluated rule produces one
// logic_check log entry, so the trace stays auditable even for non-matching
// conditions. When nothing matches, the fallback handle's edges are selected,
// which may legitimately be an empty set.
func (e *Engine) evaluateCondition(node *domain.Node, prev any) []domain.Connection {
	var rules []domain.ConditionRule
	if node.Condition != nil {
		rules = node.Condition.Conditions
	}

	upstream := strings.ToLower(stringifyOutput(prev))
	outgoing := e.graph.OutgoingExecution(node.ID)

	for i, rule := range rules {
		matched := matchRule(rule, upstream)
		e.appendLog(node.ID, domain.LogLogicCheck,
			fmt.Sprintf("condition %d (%s %q): %s", i, rule.Operator, rule.Value, matchWord(matched)))
		if matched {
			return selectConditionEdges(outgoing, i)
		}
	}

	var fallback []domain.Connection
	for _, c := range outgoing {
		if c.SourceHandle == domain.HandleElse {
			fallback = append(fallback, c)
		}
	}
	return fallback
}

func matchRule(rule domain.ConditionRule, upstream string) bool {
	value := strings.ToLower(rule.Value)
	if value == "" {
		return false
	}
	switch rule.Operator {
	case domain.OpEqual:
		return upstream == value
	case domain.OpContains:
		return strings.Contains(upstream, value)
	default:
		return false
	}
}

func matchWord(matched bool) string {
	if matched {
		return "match"
	}
	return "no match"
}

// selectConditionEdges picks the edges for the matched condition index. The
// legacy universal "true" handle is accepted as an alias for index 0.
func selectConditionEdges(outgoing []domain.Connection, index int) []domain.Connection {
	handle := domain.ConditionHandle(index)
	var selected []domain.Connection
	for _, c := range outgoing {
		if c.SourceHandle == handle || (index == 0 && c.SourceHandle == domain.HandleTrue) {
			selected = append(selected, c)
		}
	}
	return selected
}
