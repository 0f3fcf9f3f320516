package schema

import (
	"github.com/agentry-dev/agentry/pkg/domain"
)

// Schema maps bag field names to the type each value must carry.
type Schema map[string]Type

// Validate checks data against the schema. Fields absent from the bag pass
// unless their type is wrapped in Required; fields the schema does not name
// are ignored so documents can carry editor metadata alongside configuration.
func Validate(schema Schema, data map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	var errs []*FieldError
	for field, typ := range schema {
		value, ok := data[field]
		if !ok {
			if _, req := typ.(requiredType); req {
				errs = append(errs, &FieldError{Field: field, Reason: "required"})
			}
			continue
		}
		if err := typ.Validate(value); err != nil {
			errs = append(errs, &FieldError{Field: field, Reason: err.Error()})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

var (
	agentSchema = Schema{
		"name":         String(),
		"systemPrompt": String(),
		"userPrompt":   String(),
		"model":        String(),
		"effort":       Enum("effort", "minimal", "low", "medium", "high"),
		"tools": Map(Schema{
			"webSearch":  Bool(),
			"delegation": Bool(),
		}),
	}

	// A rule without conditions is legal; the engine falls through to the
	// else handle. Present rules must at least name a known operator.
	conditionSchema = Schema{
		"conditions": Slice(Map(Schema{
			"operator": Required(Enum("operator",
				string(domain.OpEqual), string(domain.OpContains))),
			"value": String(),
		})),
	}

	approvalSchema = Schema{
		"prompt": String(),
	}
)

// ForNode returns the bag schema for a node type, or nil when the type
// carries no configuration worth checking.
func ForNode(t domain.NodeType) Schema {
	switch t {
	case domain.NodeAgent:
		return agentSchema
	case domain.NodeCondition:
		return conditionSchema
	case domain.NodeApproval, domain.NodeInput:
		return approvalSchema
	default:
		return nil
	}
}
