// Package services exposes the scraping and workflow operations invoked by
// the REST API and the command line.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/scrapeflow/pkg/workflow"
)

var (
	// ErrInvalidRequest marks request validation failures (400 Bad Request).
	ErrInvalidRequest = errors.New("invalid request")

	// ErrWorkflowIDRequired is returned when no workflow id was given.
	ErrWorkflowIDRequired = errors.New("workflow id is required")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewValidationError creates a validation error for op.
func NewValidationError(op, message string) *ServiceError {
	return &ServiceError{
		Op:      op,
		Message: message,
		Err:     ErrInvalidRequest,
	}
}

// IsValidationError checks if an error is a validation error that should
// return HTTP 400. Structurally invalid workflow graphs count as validation
// errors.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrWorkflowIDRequired) ||
		errors.Is(err, workflow.ErrInvalid) ||
		errors.Is(err, workflow.ErrEmptyWorkflow) ||
		errors.Is(err, workflow.ErrUnknownNode) ||
		errors.Is(err, workflow.ErrDuplicateNode) ||
		errors.Is(err, workflow.ErrDuplicateLabel) ||
		errors.Is(err, workflow.ErrInvalidNode) ||
		workflow.IsCycleError(err)
}
