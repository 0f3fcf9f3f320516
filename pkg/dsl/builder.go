package dsl

import (
	"fmt"

	"github.com/agentry-dev/agentry/pkg/domain"
)

// Builder accumulates nodes and connections for a workflow graph. Methods
// append to the graph and remember the last added node, so edge helpers like
// To and OnApprove apply to it. Errors are collected and reported by Build.
type Builder struct {
	nodes   []domain.Node
	index   map[string]int
	conns   []domain.Connection
	current string
	errs    []error
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{index: make(map[string]int)}
}

func (b *Builder) add(node domain.Node) *Builder {
	if _, ok := b.index[node.ID]; ok {
		b.errs = append(b.errs, fmt.Errorf("duplicate node id %q", node.ID))
		return b
	}
	b.index[node.ID] = len(b.nodes)
	b.nodes = append(b.nodes, node)
	b.current = node.ID
	return b
}

// Entry adds the entry node of the graph.
func (b *Builder) Entry(id string) *Builder {
	return b.add(domain.Node{ID: id, Type: domain.NodeEntry})
}

// Agent adds an agent node with the given display name and system prompt.
func (b *Builder) Agent(id, name, systemPrompt string) *Builder {
	return b.add(domain.Node{
		ID:   id,
		Type: domain.NodeAgent,
		Data: map[string]any{
			"name":         name,
			"systemPrompt": systemPrompt,
		},
		Agent: &domain.AgentConfig{Name: name, SystemPrompt: systemPrompt},
	})
}

// Condition adds a condition node with the given ordered rules.
func (b *Builder) Condition(id string, rules ...domain.ConditionRule) *Builder {
	raw := make([]any, 0, len(rules))
	for _, r := range rules {
		raw = append(raw, map[string]any{"operator": string(r.Operator), "value": r.Value})
	}
	return b.add(domain.Node{
		ID:   id,
		Type: domain.NodeCondition,
		Data: map[string]any{"conditions": raw},
		Condition: &domain.ConditionConfig{
			Conditions: append([]domain.ConditionRule(nil), rules...),
		},
	})
}

// Approval adds an approval checkpoint with the given prompt.
func (b *Builder) Approval(id, prompt string) *Builder {
	return b.add(domain.Node{
		ID:       id,
		Type:     domain.NodeApproval,
		Data:     map[string]any{"prompt": prompt},
		Approval: &domain.ApprovalConfig{Prompt: prompt},
	})
}

// Equals returns a rule matching when the upstream output equals value.
func Equals(value string) domain.ConditionRule {
	return domain.ConditionRule{Operator: domain.OpEqual, Value: value}
}

// Contains returns a rule matching when the upstream output contains value.
func Contains(value string) domain.ConditionRule {
	return domain.ConditionRule{Operator: domain.OpContains, Value: value}
}

// Node customization, applied to the last added node.

func (b *Builder) mutateAgent(fn func(*domain.AgentConfig)) *Builder {
	i, ok := b.index[b.current]
	if !ok || b.nodes[i].Type != domain.NodeAgent {
		b.errs = append(b.errs, fmt.Errorf("node %q is not an agent node", b.current))
		return b
	}
	fn(b.nodes[i].Agent)
	return b
}

// Prompt sets the user prompt template of the current agent node. The
// {{input}} token is substituted with the upstream output at run time.
func (b *Builder) Prompt(userPrompt string) *Builder {
	return b.mutateAgent(func(a *domain.AgentConfig) {
		a.UserPrompt = userPrompt
		b.nodes[b.index[b.current]].Data["userPrompt"] = userPrompt
	})
}

// Model pins the LLM model of the current agent node.
func (b *Builder) Model(model string) *Builder {
	return b.mutateAgent(func(a *domain.AgentConfig) {
		a.Model = model
		b.nodes[b.index[b.current]].Data["model"] = model
	})
}

// Effort sets the reasoning effort of the current agent node.
func (b *Builder) Effort(effort string) *Builder {
	return b.mutateAgent(func(a *domain.AgentConfig) {
		a.Effort = effort
		b.nodes[b.index[b.current]].Data["effort"] = effort
	})
}

// Delegation enables the delegation capability on the current agent node.
func (b *Builder) Delegation() *Builder {
	return b.mutateAgent(func(a *domain.AgentConfig) {
		a.Tools.Delegation = true
		b.setToolFlag("delegation")
	})
}

// WebSearch enables the web search capability on the current agent node.
func (b *Builder) WebSearch() *Builder {
	return b.mutateAgent(func(a *domain.AgentConfig) {
		a.Tools.WebSearch = true
		b.setToolFlag("webSearch")
	})
}

func (b *Builder) setToolFlag(flag string) {
	data := b.nodes[b.index[b.current]].Data
	tools, _ := data["tools"].(map[string]any)
	if tools == nil {
		tools = make(map[string]any)
	}
	tools[flag] = true
	data["tools"] = tools
}

// Edges, leaving the last added node unless From is used.

// From switches the edge source to an already added node.
func (b *Builder) From(id string) *Builder {
	if _, ok := b.index[id]; !ok {
		b.errs = append(b.errs, fmt.Errorf("unknown node id %q", id))
		return b
	}
	b.current = id
	return b
}

func (b *Builder) connect(handle string, targets ...string) *Builder {
	for _, target := range targets {
		b.conns = append(b.conns, domain.Connection{
			Source:       b.current,
			SourceHandle: handle,
			Target:       target,
		})
	}
	return b
}

// To adds plain output edges from the current node. Multiple targets fan out
// concurrently at run time.
func (b *Builder) To(targets ...string) *Builder {
	return b.connect(domain.HandleOutput, targets...)
}

// OnCondition adds an edge fired when the rule at index i matches.
func (b *Builder) OnCondition(i int, targets ...string) *Builder {
	return b.connect(domain.ConditionHandle(i), targets...)
}

// Else adds the fallback edge of a condition node.
func (b *Builder) Else(targets ...string) *Builder {
	return b.connect(domain.HandleElse, targets...)
}

// OnApprove adds the edge taken when the approval decision is approve.
func (b *Builder) OnApprove(targets ...string) *Builder {
	return b.connect(domain.HandleApprove, targets...)
}

// OnReject adds the edge taken when the approval decision is reject.
func (b *Builder) OnReject(targets ...string) *Builder {
	return b.connect(domain.HandleReject, targets...)
}

// Delegate adds a delegation edge from the current agent node to a subagent.
func (b *Builder) Delegate(targets ...string) *Builder {
	return b.connect(domain.HandleDelegation, targets...)
}

// Build assembles the graph, reporting any errors collected along the way.
func (b *Builder) Build() (*domain.Graph, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("graph construction failed: %w", b.errs[0])
	}
	for _, c := range b.conns {
		if _, ok := b.index[c.Target]; !ok {
			return nil, fmt.Errorf("connection from %q points to unknown node %q", c.Source, c.Target)
		}
	}
	return &domain.Graph{
		Nodes:       append([]domain.Node(nil), b.nodes...),
		Connections: append([]domain.Connection(nil), b.conns...),
	}, nil
}
