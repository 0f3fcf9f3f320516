// Package compiler converts raw workflow documents into executable graphs.
//
// A document arrives as JSON (the canvas wire shape) or YAML. Node data bags
// are open maps; the compiler decodes each bag into the typed configuration
// struct matching the node type. Unknown node types are kept as-is so the
// engine can skip them with a warning instead of rejecting the document.
package compiler

import (
	"encoding/json"
	"fmt"

	"github.com/agentry-dev/agentry/pkg/domain"
	"github.com/agentry-dev/agentry/pkg/schema"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Parse decodes a workflow document into a graph with typed node configs.
// JSON is tried first, then YAML.
func Parse(data []byte) (*domain.Graph, error) {
	var g domain.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		if yerr := yaml.Unmarshal(data, &g); yerr != nil {
			return nil, fmt.Errorf("failed to parse workflow document: %w", err)
		}
	}
	if err := Compile(&g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Compile populates the typed config of every node from its raw data bag.
// Nodes carrying a malformed bag fail compilation; a missing bag compiles to
// the zero config.
func Compile(g *domain.Graph) error {
	seen := make(map[string]bool, len(g.Nodes))
	for i := range g.Nodes {
		node := &g.Nodes[i]
		if node.ID == "" {
			return fmt.Errorf("node at index %d missing id", i)
		}
		if seen[node.ID] {
			return fmt.Errorf("duplicate node id %s", node.ID)
		}
		seen[node.ID] = true

		if err := compileNode(node); err != nil {
			return fmt.Errorf("node %s: %w", node.ID, err)
		}
	}
	return nil
}

func compileNode(node *domain.Node) error {
	if sch := schema.ForNode(node.Type); sch != nil && node.Data != nil {
		if err := schema.Validate(sch, node.Data); err != nil {
			return fmt.Errorf("invalid data bag: %w", err)
		}
	}
	switch node.Type {
	case domain.NodeAgent:
		cfg := &domain.AgentConfig{}
		if err := decodeBag(node.Data, cfg); err != nil {
			return err
		}
		node.Agent = cfg
	case domain.NodeCondition:
		cfg := &domain.ConditionConfig{}
		if err := decodeBag(node.Data, cfg); err != nil {
			return err
		}
		node.Condition = cfg
	case domain.NodeApproval, domain.NodeInput:
		// Legacy input nodes decode the same bag shape; the normalizer
		// retypes them before execution.
		cfg := &domain.ApprovalConfig{}
		if err := decodeBag(node.Data, cfg); err != nil {
			return err
		}
		node.Approval = cfg
	}
	return nil
}

func decodeBag(bag map[string]any, out any) error {
	if bag == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(bag); err != nil {
		return fmt.Errorf("failed to decode data bag: %w", err)
	}
	return nil
}
