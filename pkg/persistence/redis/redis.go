// Package redis provides Redis persistence implementation for workflows and executions.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/dukex/scrapeflow/pkg/persistence"
	rd "github.com/redis/go-redis/v9"
)

const defaultNamespace = "scrapeflow"

// Persistence stores workflows and executions as JSON documents in hashes.
// Each workflow keeps a sorted set of its execution ids scored by start time.
type Persistence struct {
	client    rd.UniversalClient
	logger    *slog.Logger
	namespace string
}

// NewPersistence connects to the Redis server at databaseURL (redis://...).
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	options, err := rd.ParseURL(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := rd.NewClient(options)

	err = client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return NewPersistenceWithClient(client, logger, defaultNamespace), nil
}

// NewPersistenceWithClient wraps an existing client. Keys are prefixed with namespace.
func NewPersistenceWithClient(client rd.UniversalClient, logger *slog.Logger, namespace string) *Persistence {
	return &Persistence{
		client:    client,
		logger:    logger.With("module", "redis_persistence"),
		namespace: namespace,
	}
}

func (p *Persistence) key(args ...string) string {
	return fmt.Sprintf("%s:%s", p.namespace, strings.Join(args, ":"))
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	return nil
}

func (p *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	values, err := p.client.HGetAll(ctx, p.key("workflows")).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(values))

	for id, value := range values {
		var workflow models.Workflow

		err := json.Unmarshal([]byte(value), &workflow)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal workflow %s: %w", id, err)
		}

		workflows = append(workflows, &workflow)
	}

	sort.SliceStable(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
	})

	return workflows, nil
}

func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	if workflow.ID == "" {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, errors.New("workflow id is required"))
	}

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	data, err := json.Marshal(workflow)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", workflow.ID, err)
	}

	err = p.client.HSet(ctx, p.key("workflows"), workflow.ID, data).Err()
	if err != nil {
		return fmt.Errorf("failed to save workflow %s: %w", workflow.ID, err)
	}

	return nil
}

func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	value, err := p.client.HGet(ctx, p.key("workflows"), id).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to fetch workflow %s: %w", id, err)
	}

	var workflow models.Workflow

	err = json.Unmarshal([]byte(value), &workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow %s: %w", id, err)
	}

	return &workflow, nil
}

func (p *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	err := p.client.HDel(ctx, p.key("workflows"), id).Err()
	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	return nil
}

// SaveExecution stores the execution document and indexes it under its
// workflow in one transaction.
func (p *Persistence) SaveExecution(ctx context.Context, execution *models.Execution) error {
	data, err := json.Marshal(execution)
	if err != nil {
		return fmt.Errorf("failed to marshal execution %s: %w", execution.ID, err)
	}

	_, err = p.client.TxPipelined(ctx, func(pipe rd.Pipeliner) error {
		pipe.HSet(ctx, p.key("executions"), execution.ID, data)
		pipe.ZAdd(ctx, p.key("workflow", execution.WorkflowID, "executions"), rd.Z{
			Score:  float64(execution.StartedAt.UnixNano()),
			Member: execution.ID,
		})

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save execution %s: %w", execution.ID, err)
	}

	return nil
}

func (p *Persistence) ExecutionByID(ctx context.Context, id string) (*models.Execution, error) {
	value, err := p.client.HGet(ctx, p.key("executions"), id).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, persistence.NewExecutionError("ExecutionByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to fetch execution %s: %w", id, err)
	}

	var execution models.Execution

	err = json.Unmarshal([]byte(value), &execution)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution %s: %w", id, err)
	}

	return &execution, nil
}

// ExecutionsByWorkflow returns the executions of a workflow, newest first.
// Index entries whose document is gone are skipped.
func (p *Persistence) ExecutionsByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	ids, err := p.client.ZRevRange(ctx, p.key("workflow", workflowID, "executions"), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list executions of workflow %s: %w", workflowID, err)
	}

	executions := make([]*models.Execution, 0, len(ids))
	if len(ids) == 0 {
		return executions, nil
	}

	values, err := p.client.HMGet(ctx, p.key("executions"), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch executions of workflow %s: %w", workflowID, err)
	}

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			p.logger.WarnContext(ctx, "Execution index points to a missing document", "execution_id", ids[i])

			continue
		}

		var execution models.Execution

		err := json.Unmarshal([]byte(raw), &execution)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal execution %s: %w", ids[i], err)
		}

		executions = append(executions, &execution)
	}

	return executions, nil
}
