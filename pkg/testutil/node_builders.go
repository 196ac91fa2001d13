// Package testutil provides test data builders for workflows and nodes.
package testutil

import (
	"time"

	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/google/uuid"
)

// CreateTestWorkflow creates a workflow with no nodes that can be filled in
// with overrides.
func CreateTestWorkflow(overrides ...func(*models.Workflow)) *models.Workflow {
	now := time.Now().UTC().Truncate(time.Second)

	workflow := &models.Workflow{
		ID:          uuid.NewString(),
		Name:        "Test Workflow",
		Description: "Workflow built for tests",
		Nodes:       []*models.Node{},
		Edges:       []models.Edge{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for _, override := range overrides {
		override(workflow)
	}

	return workflow
}

// WithID sets the workflow id.
func WithID(id string) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.ID = id
	}
}

// WithNodes appends nodes in declaration order.
func WithNodes(nodes ...*models.Node) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Nodes = append(w.Nodes, nodes...)
	}
}

// WithEdge adds a dependency so that target runs after source.
func WithEdge(source, target string) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Edges = append(w.Edges, models.Edge{Source: source, Target: target})
	}
}

// ScrapeNode creates a ScrapeAction node extracting the text of h1 elements.
func ScrapeNode(id, label string, urls ...string) *models.Node {
	return &models.Node{
		ID:    id,
		Type:  models.NodeTypeScrapeAction,
		Label: label,
		Config: models.ScrapeConfig{
			URLs: urls,
			Selectors: []models.SelectorConfig{{
				Name:         "title",
				Selector:     "h1",
				SelectorType: models.SelectorTypeCSS,
				Attributes:   []string{models.TextAttribute},
			}},
		},
	}
}

// ScrapeTriggerNode is ScrapeNode typed as a trigger with an optional schedule.
func ScrapeTriggerNode(id, label, schedule string, urls ...string) *models.Node {
	node := ScrapeNode(id, label, urls...)
	node.Type = models.NodeTypeScrapeTrigger

	config := node.Config.(models.ScrapeConfig)
	config.Schedule = schedule
	node.Config = config

	return node
}

// AINode creates an AICompletion node with default model settings.
func AINode(id, label, prompt string) *models.Node {
	return &models.Node{
		ID:     id,
		Type:   models.NodeTypeAICompletion,
		Label:  label,
		Config: models.AICompletionConfig{Prompt: prompt},
	}
}

// EmailNode creates an EmailAction node.
func EmailNode(id, label, to, subject, body string) *models.Node {
	return &models.Node{
		ID:     id,
		Type:   models.NodeTypeEmailAction,
		Label:  label,
		Config: models.EmailActionConfig{To: to, Subject: subject, Body: body},
	}
}

// EmailTriggerNode creates an EmailTrigger node.
func EmailTriggerNode(id, label string, config models.EmailTriggerConfig) *models.Node {
	return &models.Node{
		ID:     id,
		Type:   models.NodeTypeEmailTrigger,
		Label:  label,
		Config: config,
	}
}
