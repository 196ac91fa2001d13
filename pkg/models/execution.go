package models

import (
	"encoding/json"
	"sync"
	"time"
)

// ExecutionStatus is the lifecycle state of one workflow run.
type ExecutionStatus string

const (
	ExecutionStatusRunning ExecutionStatus = "running"
	ExecutionStatusSuccess ExecutionStatus = "success"
	ExecutionStatusPartial ExecutionStatus = "partial"
	ExecutionStatusFailed  ExecutionStatus = "failed"
)

// IsTerminal reports whether no further transition can happen.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusSuccess || s == ExecutionStatusPartial || s == ExecutionStatusFailed
}

// NodeStatus is the outcome of one node within one run.
type NodeStatus string

const (
	NodeStatusSuccess NodeStatus = "success"
	NodeStatusError   NodeStatus = "error"
	NodeStatusSkipped NodeStatus = "skipped"
)

// NodeResult is the recorded outcome of executing one node. It is created
// once per node per execution and never mutated afterwards.
type NodeResult struct {
	NodeID     string         `json:"node_id"`
	NodeName   string         `json:"node_name"`
	NodeType   NodeType       `json:"node_type"`
	Status     NodeStatus     `json:"status"`
	Results    []any          `json:"results"`
	Outputs    map[string]any `json:"outputs,omitempty"`
	Error      string         `json:"error,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// Execution is one end-to-end run of a workflow graph.
type Execution struct {
	ID          string                `json:"id"`
	WorkflowID  string                `json:"workflow_id"`
	Status      ExecutionStatus       `json:"status"`
	Error       string                `json:"error,omitempty"`
	TriggerData map[string]any        `json:"trigger_data,omitempty"`
	NodeResults map[string]NodeResult `json:"node_results"`
	StartedAt   time.Time             `json:"started_at"`
	FinishedAt  *time.Time            `json:"finished_at,omitempty"`

	mu sync.RWMutex
}

type executionJSON Execution

// MarshalJSON encodes the execution under its read lock.
func (e *Execution) MarshalJSON() ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return json.Marshal((*executionJSON)(e))
}

// NewExecution creates a running execution.
func NewExecution(id, workflowID string, triggerData map[string]any, startedAt time.Time) *Execution {
	return &Execution{
		ID:          id,
		WorkflowID:  workflowID,
		Status:      ExecutionStatusRunning,
		TriggerData: triggerData,
		NodeResults: make(map[string]NodeResult),
		StartedAt:   startedAt,
	}
}

// Record stores a node result. It returns false when the node already has a
// result or the execution is finished.
func (e *Execution) Record(result NodeResult) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.FinishedAt != nil {
		return false
	}

	if _, exists := e.NodeResults[result.NodeID]; exists {
		return false
	}

	e.NodeResults[result.NodeID] = result

	return true
}

// Result returns the recorded result of a node.
func (e *Execution) Result(nodeID string) (NodeResult, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	result, ok := e.NodeResults[nodeID]

	return result, ok
}

// Results returns a copy of all recorded node results.
func (e *Execution) Results() map[string]NodeResult {
	e.mu.RLock()
	defer e.mu.RUnlock()

	results := make(map[string]NodeResult, len(e.NodeResults))
	for id, result := range e.NodeResults {
		results[id] = result
	}

	return results
}

// Finish moves the execution into a terminal state.
func (e *Execution) Finish(status ExecutionStatus, errMessage string, finishedAt time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.FinishedAt != nil {
		return
	}

	e.Status = status
	e.Error = errMessage
	e.FinishedAt = &finishedAt
}

// Finished reports whether the execution reached a terminal state.
func (e *Execution) Finished() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.FinishedAt != nil
}
