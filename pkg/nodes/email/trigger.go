package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/dukex/scrapeflow/pkg/protocol"
)

// TriggerNode emits the email payload an execution was started with.
type TriggerNode struct {
	id     string
	config models.EmailTriggerConfig
}

func NewTriggerNode(id string, config models.EmailTriggerConfig) *TriggerNode {
	return &TriggerNode{id: id, config: config}
}

func (n *TriggerNode) ID() string {
	return n.id
}

func (n *TriggerNode) Type() models.NodeType {
	return models.NodeTypeEmailTrigger
}

// Execute succeeds with zero results when there is no payload or the payload
// does not pass the from/subject filters.
func (n *TriggerNode) Execute(_ context.Context, input protocol.Input) (protocol.Output, error) {
	if len(input.TriggerData) == 0 || !n.Matches(input.TriggerData) {
		return protocol.Output{
			Results: []any{},
			Outputs: map[string]any{"matched": false},
		}, nil
	}

	outputs := make(map[string]any, len(input.TriggerData)+1)
	for key, value := range input.TriggerData {
		outputs[key] = value
	}

	outputs["matched"] = true

	return protocol.Output{
		Results: []any{input.TriggerData},
		Outputs: outputs,
	}, nil
}

// Matches reports whether the payload passes the configured filters. Matching
// is a case-insensitive substring test.
func (n *TriggerNode) Matches(payload map[string]any) bool {
	return contains(payload["from"], n.config.From) && contains(payload["subject"], n.config.Subject)
}

func contains(value any, filter string) bool {
	if filter == "" {
		return true
	}

	if value == nil {
		return false
	}

	return strings.Contains(strings.ToLower(fmt.Sprint(value)), strings.ToLower(filter))
}
