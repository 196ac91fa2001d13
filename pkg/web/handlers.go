package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/dukex/scrapeflow/pkg/registry"
	"github.com/dukex/scrapeflow/pkg/services"
	"github.com/dukex/scrapeflow/pkg/triggers/schedule"
	"github.com/dukex/scrapeflow/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// WorkflowScheduler keeps cron registrations in step with stored workflows.
type WorkflowScheduler interface {
	Register(workflow *models.Workflow) (int, error)
	Unregister(workflowID string)
}

type APIHandlers struct {
	scraping   *services.Scraping
	executions *services.Execution
	workflows  *workflow.Repository
	registry   *registry.Registry
	scheduler  WorkflowScheduler
	validator  *validator.Validate
}

// NewAPIHandlers creates the handlers. scheduler may be nil when scheduled
// triggers are not served by this process.
func NewAPIHandlers(
	scraping *services.Scraping,
	executions *services.Execution,
	workflows *workflow.Repository,
	registry *registry.Registry,
	scheduler WorkflowScheduler,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		scraping:   scraping,
		executions: executions,
		workflows:  workflows,
		registry:   registry,
		scheduler:  scheduler,
		validator:  validator,
	}
}

func (h *APIHandlers) ScrapeURL(c fiber.Ctx) error {
	var req services.ScrapeURLRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	result, err := h.scraping.ScrapeURL(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) ScrapeMultipleURLs(c fiber.Ctx) error {
	var req services.ScrapeManyRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	result, err := h.scraping.ScrapeMultipleURLs(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) GetNodeVariables(c fiber.Ctx) error {
	var req services.NodeVariablesRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	vars, err := h.executions.GetNodeVariables(req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(vars)
}

func (h *APIHandlers) ExecuteWorkflow(c fiber.Ctx) error {
	var req ExecuteRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	result, err := h.executions.ExecuteWorkflow(c.Context(), c.Params("id"), req.TriggerData)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) GetExecutions(c fiber.Ctx) error {
	executions, err := h.executions.ExecutionHistory(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"executions":  executions,
		"total_count": len(executions),
	})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	execution, err := h.executions.ExecutionByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflows.FetchAll(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(workflows)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	workflow, err := h.workflows.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	req, err := h.bindWorkflow(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.workflows.Create(c.Context(), req.workflow())
	if err != nil {
		return handleServiceError(c, err)
	}

	if err := h.schedule(created); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	req, err := h.bindWorkflow(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.workflows.Update(c.Context(), c.Params("id"), req.workflow())
	if err != nil {
		return handleServiceError(c, err)
	}

	if err := h.schedule(updated); err != nil {
		return internalError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")

	err := h.workflows.Delete(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	if h.scheduler != nil {
		h.scheduler.Unregister(id)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetNodeTypes(c fiber.Ctx) error {
	factories := h.registry.GetAvailableNodes()

	nodeTypes := make([]NodeTypeResponse, 0, len(factories))
	for _, factory := range factories {
		nodeTypes = append(nodeTypes, NodeTypeResponse{
			Type:        factory.Type(),
			Name:        factory.Name(),
			Description: factory.Description(),
			Schema:      factory.Schema(),
		})
	}

	return c.JSON(nodeTypes)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	nodeTypes := len(h.registry.GetAvailableNodes())
	repositoryCheck, repOk := h.workflows.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Scrapeflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if nodeTypes > 0 && repOk {
		status = "healthy"
		message = "Scrapeflow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":   fmt.Sprintf("%d node types registered", nodeTypes),
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// bindWorkflow decodes and validates a workflow body, including every node
// config and trigger schedule.
func (h *APIHandlers) bindWorkflow(c fiber.Ctx) (*WorkflowRequest, error) {
	var req WorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	if err := h.validator.Struct(req); err != nil {
		return nil, err
	}

	for _, node := range req.Nodes {
		if err := h.registry.Validate(node); err != nil {
			return nil, err
		}

		if config, ok := node.Config.(models.Scheduled); ok && config.CronSchedule() != "" {
			if err := schedule.ValidateSchedule(config.CronSchedule()); err != nil {
				return nil, fmt.Errorf("node %s: %w", node.ID, err)
			}
		}
	}

	return &req, nil
}

func (h *APIHandlers) schedule(workflow *models.Workflow) error {
	if h.scheduler == nil {
		return nil
	}

	_, err := h.scheduler.Register(workflow)

	return err
}
