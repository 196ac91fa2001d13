// Package web provides the HTTP handlers of the scraping and workflow API.
package web

import "github.com/dukex/scrapeflow/pkg/models"

// WorkflowRequest is the body for creating or replacing a workflow.
type WorkflowRequest struct {
	Name        string         `json:"name"        validate:"required,min=1"`
	Description string         `json:"description"`
	Nodes       []*models.Node `json:"nodes"       validate:"required,min=1,dive,required"`
	Edges       []models.Edge  `json:"edges"       validate:"dive"`
	Owner       string         `json:"owner,omitempty"`
}

func (r WorkflowRequest) workflow() *models.Workflow {
	return &models.Workflow{
		Name:        r.Name,
		Description: r.Description,
		Nodes:       r.Nodes,
		Edges:       r.Edges,
		Owner:       r.Owner,
	}
}

// ExecuteRequest is the optional body of a workflow run; the data is handed
// to the trigger nodes.
type ExecuteRequest struct {
	TriggerData map[string]any `json:"trigger_data,omitempty"`
}

// NodeTypeResponse describes a registered node type.
type NodeTypeResponse struct {
	Type        models.NodeType `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Schema      map[string]any  `json:"schema"`
}
