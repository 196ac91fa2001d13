// Package events defines the execution lifecycle events published by the engine.
package events

import (
	"time"

	"github.com/dukex/scrapeflow/pkg/models"
)

type EventType string

// Topic carries every lifecycle event.
const Topic = "scrapeflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"

	NodeFinishedEvent EventType = "node.finished"
	NodeFailedEvent   EventType = "node.failed"
	NodeSkippedEvent  EventType = "node.skipped"
)

type BaseEvent struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	WorkflowID  string    `json:"workflow_id"`
	ExecutionID string    `json:"execution_id"`
}

// NewBaseEvent fills the common fields of an event.
func NewBaseEvent(id string, eventType EventType, workflowID, executionID string, at time.Time) BaseEvent {
	return BaseEvent{
		ID:          id,
		Type:        eventType,
		Timestamp:   at,
		WorkflowID:  workflowID,
		ExecutionID: executionID,
	}
}

type ExecutionStarted struct {
	BaseEvent

	NodeCount   int            `json:"node_count"`
	TriggerData map[string]any `json:"trigger_data,omitempty"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

// ExecutionCompleted is published when an execution ends in success or partial
// failure.
type ExecutionCompleted struct {
	BaseEvent

	Status     models.ExecutionStatus `json:"status"`
	DurationMs int64                  `json:"duration_ms"`
	Succeeded  int                    `json:"succeeded"`
	Failed     int                    `json:"failed"`
	Skipped    int                    `json:"skipped"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

type ExecutionFailed struct {
	BaseEvent

	Error      string `json:"error"`
	DurationMs int64  `json:"duration_ms"`
	Failed     int    `json:"failed"`
	Skipped    int    `json:"skipped"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}

type NodeFinished struct {
	BaseEvent

	NodeID      string          `json:"node_id"`
	NodeName    string          `json:"node_name"`
	NodeType    models.NodeType `json:"node_type"`
	ResultCount int             `json:"result_count"`
	DurationMs  int64           `json:"duration_ms"`
}

func (e NodeFinished) GetType() EventType {
	return NodeFinishedEvent
}

type NodeFailed struct {
	BaseEvent

	NodeID     string          `json:"node_id"`
	NodeName   string          `json:"node_name"`
	NodeType   models.NodeType `json:"node_type"`
	Error      string          `json:"error"`
	DurationMs int64           `json:"duration_ms"`
}

func (e NodeFailed) GetType() EventType {
	return NodeFailedEvent
}

type NodeSkipped struct {
	BaseEvent

	NodeID   string          `json:"node_id"`
	NodeName string          `json:"node_name"`
	NodeType models.NodeType `json:"node_type"`
	Reason   string          `json:"reason"`
}

func (e NodeSkipped) GetType() EventType {
	return NodeSkippedEvent
}

// New returns an empty event value for eventType, ready to be decoded into.
func New(eventType EventType) (any, bool) {
	switch eventType {
	case ExecutionStartedEvent:
		return &ExecutionStarted{}, true
	case ExecutionCompletedEvent:
		return &ExecutionCompleted{}, true
	case ExecutionFailedEvent:
		return &ExecutionFailed{}, true
	case NodeFinishedEvent:
		return &NodeFinished{}, true
	case NodeFailedEvent:
		return &NodeFailed{}, true
	case NodeSkippedEvent:
		return &NodeSkipped{}, true
	default:
		return nil, false
	}
}
