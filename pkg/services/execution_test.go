package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dukex/scrapeflow/pkg/mocks"
	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/dukex/scrapeflow/pkg/persistence"
	"github.com/dukex/scrapeflow/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockExecutor struct {
	mock.Mock
}

func (m *mockExecutor) Execute(ctx context.Context, workflowID string, triggerData map[string]any) (*models.Execution, error) {
	args := m.Called(ctx, workflowID, triggerData)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Execution), args.Error(1)
}

func finishedExecution(status models.ExecutionStatus, message string) *models.Execution {
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	execution := models.NewExecution("exec-1", "wf-1", nil, started)
	execution.Finish(status, message, started.Add(time.Second))

	return execution
}

func TestExecution_ExecuteWorkflow(t *testing.T) {
	tests := []struct {
		name        string
		execution   *models.Execution
		err         error
		wantSuccess bool
		wantMessage string
	}{
		{
			name:        "all nodes succeeded",
			execution:   finishedExecution(models.ExecutionStatusSuccess, ""),
			wantSuccess: true,
			wantMessage: "Workflow executed successfully",
		},
		{
			name:        "partial failure",
			execution:   finishedExecution(models.ExecutionStatusPartial, "1 of 2 nodes succeeded: b: boom"),
			wantMessage: "1 of 2 nodes succeeded: b: boom",
		},
		{
			name:        "failed",
			execution:   finishedExecution(models.ExecutionStatusFailed, "0 of 1 nodes succeeded: a: boom"),
			wantMessage: "0 of 1 nodes succeeded: a: boom",
		},
		{
			name:        "invalid graph",
			execution:   finishedExecution(models.ExecutionStatusFailed, "cycle"),
			err:         &workflow.CycleError{Nodes: []string{"a", "b"}},
			wantMessage: (&workflow.CycleError{Nodes: []string{"a", "b"}}).Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			executor := &mockExecutor{}
			executor.On("Execute", mock.Anything, "wf-1", map[string]any{"source": "test"}).Return(tt.execution, tt.err)

			service := NewExecution(executor, &mocks.MockPersistence{}, discardLogger())

			result, err := service.ExecuteWorkflow(context.Background(), "wf-1", map[string]any{"source": "test"})

			require.NoError(t, err)
			assert.Equal(t, tt.wantSuccess, result.Success)
			assert.Equal(t, tt.wantMessage, result.Message)
			assert.Equal(t, "exec-1", result.ExecutionID)
			assert.Equal(t, tt.execution.Status, result.Status)
			executor.AssertExpectations(t)
		})
	}
}

func TestExecution_ExecuteWorkflowNotFound(t *testing.T) {
	notFound := persistence.NewWorkflowError("get", "ghost", persistence.ErrWorkflowNotFound)

	executor := &mockExecutor{}
	executor.On("Execute", mock.Anything, "ghost", map[string]any(nil)).Return(nil, notFound)

	service := NewExecution(executor, &mocks.MockPersistence{}, discardLogger())

	result, err := service.ExecuteWorkflow(context.Background(), "ghost", nil)

	assert.Nil(t, result)
	assert.True(t, persistence.IsWorkflowNotFound(err))

	_, err = service.ExecuteWorkflow(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrWorkflowIDRequired)
	assert.True(t, IsValidationError(err))
}

func TestExecution_GetNodeVariables(t *testing.T) {
	service := NewExecution(&mockExecutor{}, &mocks.MockPersistence{}, discardLogger())

	vars, err := service.GetNodeVariables(NodeVariablesRequest{
		NodeID:   "scrape-1",
		NodeName: "Catalog",
		Results:  []any{[]any{"Dune"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "scrape-1", vars.NodeID)
	assert.Equal(t, "Catalog", vars.NodeName)
	require.Len(t, vars.Variables, 2)
	assert.Equal(t, "{{Catalog.results}}", vars.Variables[0].Reference)
	assert.Equal(t, "array", vars.Variables[0].Type)
	assert.Equal(t, "{{Catalog.results[0]}}", vars.Variables[1].Reference)

	_, err = service.GetNodeVariables(NodeVariablesRequest{NodeID: "scrape-1"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestExecution_ExecutionHistory(t *testing.T) {
	store := &mocks.MockPersistence{}
	executions := []*models.Execution{finishedExecution(models.ExecutionStatusSuccess, "")}

	store.On("WorkflowByID", mock.Anything, "wf-1").Return(&models.Workflow{ID: "wf-1"}, nil)
	store.On("ExecutionsByWorkflow", mock.Anything, "wf-1").Return(executions, nil)
	store.On("WorkflowByID", mock.Anything, "ghost").
		Return(nil, persistence.NewWorkflowError("get", "ghost", persistence.ErrWorkflowNotFound))

	service := NewExecution(&mockExecutor{}, store, discardLogger())

	history, err := service.ExecutionHistory(context.Background(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, executions, history)

	_, err = service.ExecutionHistory(context.Background(), "ghost")
	assert.True(t, persistence.IsWorkflowNotFound(err))

	store.AssertExpectations(t)
}

func TestExecution_ExecutionHistoryStoreFailure(t *testing.T) {
	store := &mocks.MockPersistence{}
	store.On("WorkflowByID", mock.Anything, "wf-1").Return(&models.Workflow{ID: "wf-1"}, nil)
	store.On("ExecutionsByWorkflow", mock.Anything, "wf-1").Return(nil, errors.New("disk full"))

	service := NewExecution(&mockExecutor{}, store, discardLogger())

	_, err := service.ExecutionHistory(context.Background(), "wf-1")
	assert.ErrorContains(t, err, "disk full")
}

func TestExecution_ExecutionByID(t *testing.T) {
	store := &mocks.MockPersistence{}
	execution := finishedExecution(models.ExecutionStatusSuccess, "")
	store.On("ExecutionByID", mock.Anything, "exec-1").Return(execution, nil)

	service := NewExecution(&mockExecutor{}, store, discardLogger())

	loaded, err := service.ExecutionByID(context.Background(), "exec-1")
	require.NoError(t, err)
	assert.Same(t, execution, loaded)
}
