package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/dukex/scrapeflow/pkg/persistence"
)

// ExecutionRepository handles execution-related database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

const selectExecution = `
	SELECT
		id
	  , workflow_id
	  , status
	  , error_message
	  , trigger_data
	  , node_results
	  , started_at
	  , finished_at
	FROM executions
`

// Save inserts or replaces an execution.
func (r *ExecutionRepository) Save(ctx context.Context, execution *models.Execution) error {
	// Encode through the execution itself so the snapshot is taken under its lock.
	encoded, err := json.Marshal(execution)
	if err != nil {
		return fmt.Errorf("failed to marshal execution %s: %w", execution.ID, err)
	}

	var snapshot struct {
		Status      models.ExecutionStatus `json:"status"`
		Error       string                 `json:"error"`
		TriggerData json.RawMessage        `json:"trigger_data"`
		NodeResults json.RawMessage        `json:"node_results"`
		FinishedAt  *time.Time             `json:"finished_at"`
	}

	err = json.Unmarshal(encoded, &snapshot)
	if err != nil {
		return fmt.Errorf("failed to unmarshal execution %s: %w", execution.ID, err)
	}

	triggerData := []byte(snapshot.TriggerData)
	if len(triggerData) == 0 || string(triggerData) == "null" {
		triggerData = []byte("{}")
	}

	query := `
		INSERT INTO executions (id, workflow_id, status, error_message, trigger_data, node_results, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			error_message = EXCLUDED.error_message,
			trigger_data = EXCLUDED.trigger_data,
			node_results = EXCLUDED.node_results,
			finished_at = EXCLUDED.finished_at
	`

	var errorMessage sql.NullString
	if snapshot.Error != "" {
		errorMessage = sql.NullString{String: snapshot.Error, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, query,
		execution.ID,
		execution.WorkflowID,
		snapshot.Status,
		errorMessage,
		triggerData,
		[]byte(snapshot.NodeResults),
		execution.StartedAt,
		snapshot.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save execution %s: %w", execution.ID, err)
	}

	return nil
}

// GetByID returns an execution by its ID.
func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.Execution, error) {
	row := r.db.QueryRowContext(ctx, selectExecution+` WHERE id = $1`, id)

	execution, err := scanExecution(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("ExecutionByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	return execution, nil
}

// GetByWorkflow returns the executions of a workflow, most recently started first.
func (r *ExecutionRepository) GetByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	rows, err := r.db.QueryContext(ctx, selectExecution+` WHERE workflow_id = $1 ORDER BY started_at DESC`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	executions := make([]*models.Execution, 0)

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execution)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return executions, nil
}

func scanExecution(row rowScanner) (*models.Execution, error) {
	var (
		execution   models.Execution
		errMessage  sql.NullString
		triggerJSON []byte
		resultsJSON []byte
		finishedAt  sql.NullTime
	)

	err := row.Scan(
		&execution.ID,
		&execution.WorkflowID,
		&execution.Status,
		&errMessage,
		&triggerJSON,
		&resultsJSON,
		&execution.StartedAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}

	execution.Error = errMessage.String

	if finishedAt.Valid {
		finished := finishedAt.Time
		execution.FinishedAt = &finished
	}

	err = json.Unmarshal(triggerJSON, &execution.TriggerData)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal trigger data of execution %s: %w", execution.ID, err)
	}

	err = json.Unmarshal(resultsJSON, &execution.NodeResults)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal node results of execution %s: %w", execution.ID, err)
	}

	return &execution, nil
}
