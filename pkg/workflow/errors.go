package workflow

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyWorkflow  = errors.New("workflow has no nodes")
	ErrInvalidNode    = errors.New("invalid node")
	ErrUnknownNode    = errors.New("unknown node")
	ErrDuplicateNode  = errors.New("duplicate node id")
	ErrDuplicateLabel = errors.New("duplicate node label")
	ErrNoStore        = errors.New("no workflow store configured")
	ErrInvalid        = errors.New("invalid workflow")
)

// CycleError reports the nodes that could not be ordered because they sit on
// or behind a dependency cycle.
type CycleError struct {
	Nodes []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("workflow graph has a cycle through nodes: %s", strings.Join(e.Nodes, ", "))
}

// IsCycleError reports whether err is or wraps a CycleError.
func IsCycleError(err error) bool {
	var cycleErr *CycleError

	return errors.As(err, &cycleErr)
}
