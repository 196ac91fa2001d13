// Package persistence provides data storage abstraction layer for workflows and executions.
package persistence

import (
	"context"

	"github.com/dukex/scrapeflow/pkg/models"
)

type Persistence interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	DeleteWorkflow(ctx context.Context, id string) error

	SaveExecution(ctx context.Context, execution *models.Execution) error
	ExecutionByID(ctx context.Context, id string) (*models.Execution, error)
	// ExecutionsByWorkflow returns the executions of a workflow, most recently
	// started first.
	ExecutionsByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error)

	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
