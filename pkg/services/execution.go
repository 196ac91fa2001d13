package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/dukex/scrapeflow/pkg/persistence"
	"github.com/dukex/scrapeflow/pkg/variables"
	"github.com/go-playground/validator/v10"
)

// Executor runs stored workflows.
type Executor interface {
	Execute(ctx context.Context, workflowID string, triggerData map[string]any) (*models.Execution, error)
}

// ExecuteResult summarizes one workflow run.
type ExecuteResult struct {
	Success     bool                   `json:"success"`
	Message     string                 `json:"message,omitempty"`
	ExecutionID string                 `json:"execution_id,omitempty"`
	Status      models.ExecutionStatus `json:"status,omitempty"`
}

// NodeVariablesRequest lists the variables exposed by a node's results.
type NodeVariablesRequest struct {
	NodeID   string         `json:"node_id"           validate:"required"`
	NodeName string         `json:"node_name"         validate:"required"`
	Results  []any          `json:"results"`
	Outputs  map[string]any `json:"outputs,omitempty"`
}

type Execution struct {
	executor    Executor
	persistence persistence.Persistence
	validate    *validator.Validate
	logger      *slog.Logger
}

func NewExecution(executor Executor, persistence persistence.Persistence, logger *slog.Logger) *Execution {
	return &Execution{
		executor:    executor,
		persistence: persistence,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger.With("module", "execution_service"),
	}
}

// ExecuteWorkflow runs the stored workflow. Success is true only when every
// node succeeded; otherwise Message carries the failure breakdown. An error
// is returned when the workflow cannot be loaded.
func (s *Execution) ExecuteWorkflow(ctx context.Context, workflowID string, triggerData map[string]any) (*ExecuteResult, error) {
	if workflowID == "" {
		return nil, ErrWorkflowIDRequired
	}

	execution, err := s.executor.Execute(ctx, workflowID, triggerData)
	if execution == nil {
		return nil, err
	}

	result := &ExecuteResult{
		Success:     err == nil && execution.Status == models.ExecutionStatusSuccess,
		ExecutionID: execution.ID,
		Status:      execution.Status,
	}

	switch {
	case err != nil:
		result.Message = err.Error()
	case result.Success:
		result.Message = "Workflow executed successfully"
	default:
		result.Message = execution.Error
	}

	s.logger.InfoContext(ctx, "Executed workflow",
		"workflow_id", workflowID,
		"execution_id", execution.ID,
		"status", execution.Status,
	)

	return result, nil
}

// GetNodeVariables lists the references downstream nodes can use to read
// the given node's results.
func (s *Execution) GetNodeVariables(req NodeVariablesRequest) (models.NodeVariables, error) {
	err := s.validate.Struct(req)
	if err != nil {
		return models.NodeVariables{}, NewValidationError("get_node_variables", err.Error())
	}

	return variables.Describe(req.NodeID, req.NodeName, req.Results, req.Outputs), nil
}

// ExecutionHistory returns the executions of a workflow, most recent first.
func (s *Execution) ExecutionHistory(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	if workflowID == "" {
		return nil, ErrWorkflowIDRequired
	}

	_, err := s.persistence.WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	executions, err := s.persistence.ExecutionsByWorkflow(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions of workflow %s: %w", workflowID, err)
	}

	return executions, nil
}

func (s *Execution) ExecutionByID(ctx context.Context, id string) (*models.Execution, error) {
	return s.persistence.ExecutionByID(ctx, id)
}
