package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/dukex/scrapeflow/pkg/persistence"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Repository manages workflow definitions on top of a persistence layer.
// Definitions are checked for shape on write; cycles are only rejected when
// a workflow runs.
type Repository struct {
	persistence persistence.Persistence
	validate    *validator.Validate
	now         func() time.Time
}

func NewRepository(persistence persistence.Persistence) *Repository {
	return &Repository{
		persistence: persistence,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (r *Repository) HealthCheck(ctx context.Context) (string, bool) {
	if r.persistence == nil {
		return "Persistence layer not initialized", false
	}

	if err := r.persistence.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

func (r *Repository) FetchAll(ctx context.Context) ([]*models.Workflow, error) {
	workflows, err := r.persistence.Workflows(ctx)
	if err != nil {
		return make([]*models.Workflow, 0), err
	}

	return workflows, nil
}

func (r *Repository) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	return r.persistence.WorkflowByID(ctx, id)
}

// Create assigns an id when missing, stamps the timestamps and saves.
func (r *Repository) Create(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	if workflow.ID == "" {
		workflow.ID = uuid.NewString()
	}

	now := r.now()
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	err := r.check(workflow)
	if err != nil {
		return nil, err
	}

	err = r.persistence.SaveWorkflow(ctx, workflow)
	if err != nil {
		return nil, err
	}

	return workflow, nil
}

// Update replaces the workflow stored under id, keeping its creation time.
func (r *Repository) Update(ctx context.Context, id string, workflow *models.Workflow) (*models.Workflow, error) {
	existing, err := r.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	workflow.ID = id
	workflow.CreatedAt = existing.CreatedAt
	workflow.UpdatedAt = r.now()

	err = r.check(workflow)
	if err != nil {
		return nil, err
	}

	err = r.persistence.SaveWorkflow(ctx, workflow)
	if err != nil {
		return nil, err
	}

	return workflow, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return err
	}

	return r.persistence.DeleteWorkflow(ctx, id)
}

// ScheduledWorkflows returns the workflows with at least one scheduled
// trigger node.
func (r *Repository) ScheduledWorkflows(ctx context.Context) ([]*models.Workflow, error) {
	all, err := r.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	scheduled := make([]*models.Workflow, 0)

	for _, workflow := range all {
		for _, node := range workflow.TriggerNodes() {
			if config, ok := node.Config.(models.Scheduled); ok && config.CronSchedule() != "" {
				scheduled = append(scheduled, workflow)

				break
			}
		}
	}

	return scheduled, nil
}

func (r *Repository) check(workflow *models.Workflow) error {
	err := r.validate.Struct(workflow)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	_, err = NewGraph(workflow)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	return nil
}
