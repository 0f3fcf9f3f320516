package domain

// NodeType constants define the control flow behavior of a node.
type NodeType string

const (
	// NodeEntry marks the single starting point of a run.
	NodeEntry NodeType = "entry"
	// NodeAgent invokes the LLM capability with a resolved prompt.
	NodeAgent NodeType = "agent"
	// NodeCondition routes the walk by evaluating ordered condition rules.
	NodeCondition NodeType = "condition"
	// NodeApproval suspends the run until the caller supplies a decision.
	NodeApproval NodeType = "approval"

	// NodeInput is the deprecated spelling of NodeApproval.
	// The normalizer rewrites it before execution.
	NodeInput NodeType = "input"
	// NodeEnd is a terminal canvas marker with no executable semantics.
	// The normalizer strips it along with its connections.
	NodeEnd NodeType = "end"
)

// ConditionOperator identifies the match test applied by one condition rule.
type ConditionOperator string

const (
	OpEqual    ConditionOperator = "equal"
	OpContains ConditionOperator = "contains"
)

// Node represents one typed step in the workflow graph.
//
// Type dispatch is exhaustive over the known NodeType values; an unrecognized
// type survives deserialization (forward compatibility) and is skipped with a
// warning at execution time. Exactly one of the typed config pointers is set,
// matching Type; the compiler populates it from the raw data bag.
type Node struct {
	ID   string   `json:"id" yaml:"id"`
	Type NodeType `json:"type" yaml:"type"`

	// Data is the raw, open configuration bag as supplied by the caller.
	// Retained so a run can be persisted byte-for-byte as it arrived.
	Data map[string]any `json:"data,omitempty" yaml:"data,omitempty"`

	Agent     *AgentConfig     `json:"-" yaml:"-"`
	Condition *ConditionConfig `json:"-" yaml:"-"`
	Approval  *ApprovalConfig  `json:"-" yaml:"-"`
}

// ToolFlags enables optional capabilities for one agent invocation.
type ToolFlags struct {
	WebSearch  bool `json:"web_search" mapstructure:"webSearch"`
	Delegation bool `json:"delegation" mapstructure:"delegation"`
}

// AgentConfig holds the LLM-facing configuration of an agent node.
type AgentConfig struct {
	Name         string    `json:"name" mapstructure:"name"`
	SystemPrompt string    `json:"system_prompt" mapstructure:"systemPrompt"`
	UserPrompt   string    `json:"user_prompt" mapstructure:"userPrompt"`
	Model        string    `json:"model" mapstructure:"model"`
	Effort       string    `json:"effort" mapstructure:"effort"`
	Tools        ToolFlags `json:"tools" mapstructure:"tools"`
}

// ConditionRule is one (operator, value) pair evaluated against the upstream output.
type ConditionRule struct {
	Operator ConditionOperator `json:"operator" mapstructure:"operator"`
	Value    string            `json:"value" mapstructure:"value"`
}

// ConditionConfig holds the ordered rule list of a condition node.
// Evaluation is first-match-wins in declared order.
type ConditionConfig struct {
	Conditions []ConditionRule `json:"conditions" mapstructure:"conditions"`
}

// DefaultApprovalPrompt is injected when a legacy input node carries no prompt.
const DefaultApprovalPrompt = "Approve or reject to continue"

// ApprovalConfig holds the caller-facing prompt of an approval node.
type ApprovalConfig struct {
	Prompt string `json:"prompt" mapstructure:"prompt"`
}
