package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/dukex/scrapeflow/pkg/persistence"
)

// ExecutionRepository handles execution-related file operations.
type ExecutionRepository struct {
	root string
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{root: root}
}

func (er *ExecutionRepository) dir() string {
	return filepath.Join(er.root, "executions")
}

// Save writes an execution, replacing any previous version.
func (er *ExecutionRepository) Save(_ context.Context, execution *models.Execution) error {
	err := validateID(execution.ID)
	if err != nil {
		return persistence.NewExecutionError("SaveExecution", execution.ID, err)
	}

	err = os.MkdirAll(er.dir(), 0750)
	if err != nil {
		return fmt.Errorf("failed to create executions directory: %w", err)
	}

	data, err := json.Marshal(execution)
	if err != nil {
		return fmt.Errorf("failed to marshal execution %s: %w", execution.ID, err)
	}

	err = os.WriteFile(filepath.Join(er.dir(), execution.ID+".json"), data, 0600)
	if err != nil {
		return fmt.Errorf("failed to write execution %s: %w", execution.ID, err)
	}

	return nil
}

// GetByID retrieves an execution by its ID from the file system.
func (er *ExecutionRepository) GetByID(_ context.Context, executionID string) (*models.Execution, error) {
	err := validateID(executionID)
	if err != nil {
		return nil, persistence.NewExecutionError("ExecutionByID", executionID, err)
	}

	data, err := os.ReadFile(filepath.Join(er.dir(), executionID+".json")) // #nosec G304 -- id is validated
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persistence.NewExecutionError("ExecutionByID", executionID, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to read execution %s: %w", executionID, err)
	}

	var execution models.Execution

	err = json.Unmarshal(data, &execution)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution %s: %w", executionID, err)
	}

	return &execution, nil
}

// GetByWorkflow returns the executions of a workflow, most recently started first.
func (er *ExecutionRepository) GetByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	entries, err := os.ReadDir(er.dir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*models.Execution{}, nil
		}

		return nil, fmt.Errorf("failed to read executions directory: %w", err)
	}

	executions := make([]*models.Execution, 0)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		execution, err := er.GetByID(ctx, strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			// Skip invalid files
			continue
		}

		if execution.WorkflowID == workflowID {
			executions = append(executions, execution)
		}
	}

	sort.SliceStable(executions, func(i, j int) bool {
		return executions[i].StartedAt.After(executions[j].StartedAt)
	})

	return executions, nil
}
