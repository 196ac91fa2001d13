// Package email provides the EmailTrigger and EmailAction nodes and an SMTP mailer.
package email

import (
	"context"
	"fmt"

	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/dukex/scrapeflow/pkg/protocol"
)

// ActionFactory creates EmailAction nodes.
type ActionFactory struct {
	mailer protocol.Mailer
}

// NewActionFactory creates a new email action node factory.
func NewActionFactory(mailer protocol.Mailer) protocol.NodeFactory {
	return &ActionFactory{mailer: mailer}
}

// Create creates a new EmailAction node.
func (f *ActionFactory) Create(_ context.Context, node *models.Node) (protocol.Node, error) {
	config, ok := node.Config.(models.EmailActionConfig)
	if !ok {
		return nil, fmt.Errorf("node %s: expected email action config, got %T", node.ID, node.Config)
	}

	return NewActionNode(node.ID, config, f.mailer), nil
}

func (f *ActionFactory) Type() models.NodeType {
	return models.NodeTypeEmailAction
}

func (f *ActionFactory) Name() string {
	return "Send Email"
}

func (f *ActionFactory) Description() string {
	return "Sends an email whose fields may reference upstream results"
}

// Schema returns the JSON schema for email action node configuration.
func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"to": map[string]any{
				"type":        "string",
				"description": "Recipient address",
				"minLength":   1,
			},
			"subject": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Message body. Supports {{Label.field}} references to upstream results",
			},
		},
		"required": []string{"to", "subject"},
	}
}

// TriggerFactory creates EmailTrigger nodes.
type TriggerFactory struct{}

// NewTriggerFactory creates a new email trigger node factory.
func NewTriggerFactory() protocol.NodeFactory {
	return &TriggerFactory{}
}

// Create creates a new EmailTrigger node.
func (f *TriggerFactory) Create(_ context.Context, node *models.Node) (protocol.Node, error) {
	config, ok := node.Config.(models.EmailTriggerConfig)
	if !ok {
		return nil, fmt.Errorf("node %s: expected email trigger config, got %T", node.ID, node.Config)
	}

	return NewTriggerNode(node.ID, config), nil
}

func (f *TriggerFactory) Type() models.NodeType {
	return models.NodeTypeEmailTrigger
}

func (f *TriggerFactory) Name() string {
	return "Email Trigger"
}

func (f *TriggerFactory) Description() string {
	return "Starts a workflow from an incoming email payload"
}

// Schema returns the JSON schema for email trigger node configuration.
func (f *TriggerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"from": map[string]any{
				"type":        "string",
				"description": "Only accept messages whose sender contains this value",
			},
			"subject": map[string]any{
				"type":        "string",
				"description": "Only accept messages whose subject contains this value",
			},
			"schedule": map[string]any{
				"type":        "string",
				"description": "Cron expression for scheduled runs",
				"examples":    []string{"*/15 * * * *"},
			},
		},
	}
}
