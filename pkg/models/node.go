package models

import (
	"encoding/json"
	"fmt"
)

// NodeType identifies what a node does and which config it carries.
type NodeType string

const (
	NodeTypeScrapeTrigger NodeType = "ScrapeTrigger"
	NodeTypeScrapeAction  NodeType = "ScrapeAction"
	NodeTypeAICompletion  NodeType = "AICompletion"
	NodeTypeEmailTrigger  NodeType = "EmailTrigger"
	NodeTypeEmailAction   NodeType = "EmailAction"
)

// IsTrigger reports whether nodes of this type start a workflow.
func (t NodeType) IsTrigger() bool {
	return t == NodeTypeScrapeTrigger || t == NodeTypeEmailTrigger
}

// Node is a typed unit of work. Adjacency lives on the owning Workflow.
type Node struct {
	ID     string     `json:"id"     validate:"required"`
	Type   NodeType   `json:"type"   validate:"required"`
	Label  string     `json:"label"  validate:"required"`
	Config NodeConfig `json:"config"`
}

// NodeConfig is the type-specific configuration of a node. The set of
// implementations is closed to this package.
type NodeConfig interface {
	nodeConfig()
}

// Scheduled is implemented by trigger configs that can run on a cron schedule.
type Scheduled interface {
	CronSchedule() string
}

// ScrapeConfig configures ScrapeTrigger and ScrapeAction nodes.
type ScrapeConfig struct {
	URLs      []string         `json:"urls"               validate:"required,min=1,dive,required"`
	Selectors []SelectorConfig `json:"selectors"          validate:"required,min=1,dive"`
	Batch     *BatchConfig     `json:"batch,omitempty"`
	Template  string           `json:"template,omitempty"`
	Schedule  string           `json:"schedule,omitempty"`
}

func (ScrapeConfig) nodeConfig() {}

// CronSchedule returns the cron expression, if any.
func (c ScrapeConfig) CronSchedule() string { return c.Schedule }

// AICompletionConfig configures AICompletion nodes. A nil Temperature selects
// the node default; zero is a valid setting.
type AICompletionConfig struct {
	Prompt      string   `json:"prompt"                validate:"required"`
	Model       string   `json:"model,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"  validate:"gte=0"`
	Temperature *float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
}

func (AICompletionConfig) nodeConfig() {}

// EmailTriggerConfig configures EmailTrigger nodes.
type EmailTriggerConfig struct {
	From     string `json:"from,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Schedule string `json:"schedule,omitempty"`
}

func (EmailTriggerConfig) nodeConfig() {}

// CronSchedule returns the cron expression, if any.
func (c EmailTriggerConfig) CronSchedule() string { return c.Schedule }

// EmailActionConfig configures EmailAction nodes.
type EmailActionConfig struct {
	To      string `json:"to"      validate:"required"`
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body"`
}

func (EmailActionConfig) nodeConfig() {}

type nodeJSON struct {
	ID     string          `json:"id"`
	Type   NodeType        `json:"type"`
	Label  string          `json:"label"`
	Config json.RawMessage `json:"config,omitempty"`
}

// MarshalJSON encodes the node with its config inline.
func (n Node) MarshalJSON() ([]byte, error) {
	raw := nodeJSON{ID: n.ID, Type: n.Type, Label: n.Label}

	if n.Config != nil {
		config, err := json.Marshal(n.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config of node %s: %w", n.ID, err)
		}

		raw.Config = config
	}

	return json.Marshal(raw)
}

// UnmarshalJSON decodes the config into the struct matching the node type.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw nodeJSON

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}

	config, err := newNodeConfig(raw.Type)
	if err != nil {
		return fmt.Errorf("node %s: %w", raw.ID, err)
	}

	if len(raw.Config) > 0 && string(raw.Config) != "null" {
		err = json.Unmarshal(raw.Config, config)
		if err != nil {
			return fmt.Errorf("failed to unmarshal config of node %s: %w", raw.ID, err)
		}
	}

	n.ID = raw.ID
	n.Type = raw.Type
	n.Label = raw.Label
	n.Config = derefConfig(config)

	return nil
}

func newNodeConfig(nodeType NodeType) (any, error) {
	switch nodeType {
	case NodeTypeScrapeTrigger, NodeTypeScrapeAction:
		return &ScrapeConfig{}, nil
	case NodeTypeAICompletion:
		return &AICompletionConfig{}, nil
	case NodeTypeEmailTrigger:
		return &EmailTriggerConfig{}, nil
	case NodeTypeEmailAction:
		return &EmailActionConfig{}, nil
	default:
		return nil, fmt.Errorf("unknown node type %q", nodeType)
	}
}

func derefConfig(config any) NodeConfig {
	switch c := config.(type) {
	case *ScrapeConfig:
		return *c
	case *AICompletionConfig:
		return *c
	case *EmailTriggerConfig:
		return *c
	case *EmailActionConfig:
		return *c
	default:
		return nil
	}
}
