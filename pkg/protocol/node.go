// Package protocol defines the interfaces and contracts for pluggable nodes.
package protocol

import (
	"context"

	"github.com/dukex/scrapeflow/pkg/models"
)

// NodeFactory creates node instances and provides metadata about the node type.
type NodeFactory interface {
	// Create creates a node instance from its workflow definition
	Create(ctx context.Context, node *models.Node) (Node, error)

	// Type returns the node type this factory builds
	Type() models.NodeType

	// Name returns the human-readable name for this node type
	Name() string

	// Description returns a description of what this node does
	Description() string

	// Schema returns the JSON schema for configuring this node
	Schema() map[string]any
}

// Node is an executable node bound to its configuration.
type Node interface {
	ID() string
	Type() models.NodeType
	Execute(ctx context.Context, input Input) (Output, error)
}

// Input is what a node sees when it runs.
type Input struct {
	ExecutionID string
	WorkflowID  string
	// TriggerData is the payload the execution was started with.
	TriggerData map[string]any
	// Predecessors holds the results of the direct predecessors of the node,
	// keyed by node label.
	Predecessors map[string]models.NodeResult
}

// Output is what a node produced. Results is the ordered result sequence;
// Outputs are the named fields downstream nodes can reference.
type Output struct {
	Results []any
	Outputs map[string]any
}
