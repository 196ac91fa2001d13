// Package models defines the core domain models for scraping workflows.
package models

import "time"

// Workflow is a directed graph of typed nodes executed as a pipeline.
type Workflow struct {
	ID          string    `json:"id"          validate:"required"`
	Name        string    `json:"name"        validate:"required,min=1"`
	Description string    `json:"description"`
	Nodes       []*Node   `json:"nodes"       validate:"dive,required"`
	Edges       []Edge    `json:"edges"       validate:"dive"`
	Owner       string    `json:"owner,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Edge is a directed dependency: Target runs after Source.
type Edge struct {
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

// NodeByID returns the node with the given id.
func (w *Workflow) NodeByID(id string) (*Node, bool) {
	for _, node := range w.Nodes {
		if node != nil && node.ID == id {
			return node, true
		}
	}

	return nil, false
}

// TriggerNodes returns the trigger nodes in declaration order. Null entries
// are ignored.
func (w *Workflow) TriggerNodes() []*Node {
	var triggers []*Node

	for _, node := range w.Nodes {
		if node != nil && node.Type.IsTrigger() {
			triggers = append(triggers, node)
		}
	}

	return triggers
}
