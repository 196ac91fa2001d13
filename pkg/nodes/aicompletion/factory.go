// Package aicompletion provides the AICompletion node and an HTTP completion client.
package aicompletion

import (
	"context"
	"fmt"

	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/dukex/scrapeflow/pkg/protocol"
)

// Factory creates AICompletion nodes.
type Factory struct {
	completer protocol.Completer
}

// NewFactory creates a new AI completion node factory.
func NewFactory(completer protocol.Completer) protocol.NodeFactory {
	return &Factory{completer: completer}
}

// Create creates a new AICompletion node.
func (f *Factory) Create(_ context.Context, node *models.Node) (protocol.Node, error) {
	config, ok := node.Config.(models.AICompletionConfig)
	if !ok {
		return nil, fmt.Errorf("node %s: expected AI completion config, got %T", node.ID, node.Config)
	}

	return NewNode(node.ID, config, f.completer), nil
}

// Type returns the node type built by this factory.
func (f *Factory) Type() models.NodeType {
	return models.NodeTypeAICompletion
}

// Name returns the factory name.
func (f *Factory) Name() string {
	return "AI Completion"
}

// Description returns the factory description.
func (f *Factory) Description() string {
	return "Sends a prompt built from upstream results to a text completion model"
}

// Schema returns the JSON schema for AI completion node configuration.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt": map[string]any{
				"type":        "string",
				"description": "Prompt text. Supports {{Label.field}} references to upstream results",
				"minLength":   1,
				"examples": []string{
					"Summarize these products: {{Catalog.results}}",
				},
			},
			"model": map[string]any{
				"type":    "string",
				"default": DefaultModel,
			},
			"max_tokens": map[string]any{
				"type":    "integer",
				"default": DefaultMaxTokens,
				"minimum": 0,
			},
			"temperature": map[string]any{
				"type":    "number",
				"default": DefaultTemperature,
				"minimum": 0,
				"maximum": 2,
			},
		},
		"required": []string{"prompt"},
	}
}
