package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/scrapeflow/pkg/eventbus"
	"github.com/dukex/scrapeflow/pkg/events"
	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/dukex/scrapeflow/pkg/otelhelper"
	"github.com/dukex/scrapeflow/pkg/protocol"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// NodeCreator builds executable nodes from their definitions.
type NodeCreator interface {
	CreateNode(ctx context.Context, node *models.Node) (protocol.Node, error)
}

// Store loads workflows and records finished executions.
type Store interface {
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	SaveExecution(ctx context.Context, execution *models.Execution) error
}

// Engine runs workflow graphs. Independent nodes run concurrently; a node
// starts only after every predecessor has a recorded result, and a node whose
// predecessor did not succeed is skipped.
type Engine struct {
	nodes       NodeCreator
	store       Store
	publisher   eventbus.EventPublisher
	tracer      trace.Tracer
	logger      *slog.Logger
	maxParallel int
	now         func() time.Time
	newID       func() string
}

type Option func(*Engine)

// WithPublisher publishes lifecycle events to publisher.
func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(e *Engine) {
		e.publisher = publisher
	}
}

// WithTracer sets the tracer used for execution and node spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// WithMaxParallel caps how many nodes run at once. Zero means no cap.
func WithMaxParallel(n int) Option {
	return func(e *Engine) {
		e.maxParallel = n
	}
}

// NewEngine creates an engine. store may be nil, in which case only Run is
// usable and executions are not saved.
func NewEngine(nodes NodeCreator, store Store, logger *slog.Logger, opts ...Option) *Engine {
	engine := &Engine{
		nodes:  nodes,
		store:  store,
		tracer: otel.Tracer("scrapeflow/workflow"),
		logger: logger.With("module", "workflow_engine"),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}

	for _, opt := range opts {
		opt(engine)
	}

	return engine
}

// Execute loads the workflow from the store and runs it.
func (e *Engine) Execute(ctx context.Context, workflowID string, triggerData map[string]any) (*models.Execution, error) {
	if e.store == nil {
		return nil, ErrNoStore
	}

	workflow, err := e.store.WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow %s: %w", workflowID, err)
	}

	return e.Run(ctx, workflow, triggerData)
}

// Run executes workflow to a terminal state and saves the execution. The
// returned error is non-nil only when the graph is invalid or the execution
// could not be saved; node failures are reported through the execution.
func (e *Engine) Run(ctx context.Context, workflow *models.Workflow, triggerData map[string]any) (*models.Execution, error) {
	workflowID := ""
	if workflow != nil {
		workflowID = workflow.ID
	}

	execution := models.NewExecution(e.newID(), workflowID, triggerData, e.now())

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.ExecutionIDKey, execution.ID),
	)
	defer span.End()

	logger := e.logger.With("workflow_id", workflowID, "execution_id", execution.ID)
	logger.InfoContext(ctx, "Starting workflow execution")

	nodeCount := 0
	if workflow != nil {
		nodeCount = len(workflow.Nodes)
	}

	e.publish(ctx, workflowID, events.ExecutionStarted{
		BaseEvent:   e.baseEvent(events.ExecutionStartedEvent, execution),
		NodeCount:   nodeCount,
		TriggerData: triggerData,
	})

	graph, order, err := plan(workflow)
	if err != nil {
		logger.ErrorContext(ctx, "Workflow graph is invalid", "error", err)
		otelhelper.SetError(span, err)

		execution.Finish(models.ExecutionStatusFailed, err.Error(), e.now())
		e.publishOutcome(ctx, execution, tally{})

		return execution, errors.Join(err, e.save(ctx, execution))
	}

	run := &run{
		engine:    e,
		graph:     graph,
		order:     order,
		execution: execution,
		logger:    logger,
		done:      make(chan models.NodeResult),
	}
	run.loop(ctx)

	counts := countResults(execution.Results())
	status, message := counts.outcome(ctx.Err(), execution.Results(), order)
	execution.Finish(status, message, e.now())

	otelhelper.SetOutcome(span, statusError(status, message),
		attribute.String("scrapeflow.execution.status", string(status)),
	)

	logger.InfoContext(ctx, "Completed workflow execution",
		"status", status,
		"succeeded", counts.succeeded,
		"failed", counts.failed,
		"skipped", counts.skipped,
	)

	e.publishOutcome(ctx, execution, counts)

	return execution, e.save(ctx, execution)
}

func plan(workflow *models.Workflow) (*Graph, []string, error) {
	graph, err := NewGraph(workflow)
	if err != nil {
		return nil, nil, err
	}

	order, err := graph.TopologicalOrder()
	if err != nil {
		return nil, nil, err
	}

	return graph, order, nil
}

// run is the state of one execution. Only the goroutine calling loop reads or
// writes it; node goroutines report back through done.
type run struct {
	engine    *Engine
	graph     *Graph
	order     []string
	execution *models.Execution
	logger    *slog.Logger
	done      chan models.NodeResult

	dispatched map[string]bool
	running    int
}

func (r *run) loop(ctx context.Context) {
	r.dispatched = make(map[string]bool, len(r.order))

	for {
		r.schedule(ctx)

		if r.running == 0 {
			return
		}

		result := <-r.done
		r.running--
		r.record(ctx, result)
	}
}

// schedule walks the nodes in topological order, so a skip decided here is
// already visible to the descendants visited after it.
func (r *run) schedule(ctx context.Context) {
	for _, id := range r.order {
		if r.dispatched[id] {
			continue
		}

		if _, decided := r.execution.Result(id); decided {
			continue
		}

		predecessors, ready := r.predecessorResults(id)
		if !ready {
			continue
		}

		node, _ := r.graph.Node(id)

		if reason := skipReason(ctx, predecessors); reason != "" {
			r.record(ctx, r.skipped(node, reason))

			continue
		}

		if r.engine.maxParallel > 0 && r.running >= r.engine.maxParallel {
			return
		}

		r.dispatch(ctx, node, predecessors)
	}
}

// predecessorResults returns the results of the direct predecessors of id and
// whether all of them are recorded.
func (r *run) predecessorResults(id string) ([]models.NodeResult, bool) {
	ids := r.graph.PredecessorsOf(id)
	results := make([]models.NodeResult, 0, len(ids))

	for _, predecessor := range ids {
		result, ok := r.execution.Result(predecessor)
		if !ok {
			return nil, false
		}

		results = append(results, result)
	}

	return results, true
}

func skipReason(ctx context.Context, predecessors []models.NodeResult) string {
	for _, predecessor := range predecessors {
		if predecessor.Status != models.NodeStatusSuccess {
			return fmt.Sprintf("predecessor %s did not succeed", predecessor.NodeID)
		}
	}

	if ctx.Err() != nil {
		return "execution cancelled"
	}

	return ""
}

func (r *run) dispatch(ctx context.Context, node *models.Node, predecessors []models.NodeResult) {
	input := protocol.Input{
		ExecutionID:  r.execution.ID,
		WorkflowID:   r.execution.WorkflowID,
		TriggerData:  r.execution.TriggerData,
		Predecessors: make(map[string]models.NodeResult, len(predecessors)),
	}

	for _, predecessor := range predecessors {
		input.Predecessors[predecessor.NodeName] = predecessor
	}

	r.dispatched[node.ID] = true
	r.running++

	go func() {
		r.done <- r.engine.executeNode(ctx, node, input, r.logger)
	}()
}

func (r *run) record(ctx context.Context, result models.NodeResult) {
	if !r.execution.Record(result) {
		r.logger.WarnContext(ctx, "Ignoring duplicate node result", "node_id", result.NodeID)

		return
	}

	r.engine.publishNode(ctx, r.execution, result)
}

func (r *run) skipped(node *models.Node, reason string) models.NodeResult {
	now := r.engine.now()

	r.logger.Info("Skipping node", "node_id", node.ID, "reason", reason)

	return models.NodeResult{
		NodeID:     node.ID,
		NodeName:   node.Label,
		NodeType:   node.Type,
		Status:     models.NodeStatusSkipped,
		Results:    []any{},
		Error:      reason,
		StartedAt:  now,
		FinishedAt: now,
	}
}

// executeNode builds and runs one node. Every failure, including a panic in
// the node, becomes an error result.
func (e *Engine) executeNode(ctx context.Context, node *models.Node, input protocol.Input, logger *slog.Logger) (result models.NodeResult) {
	result = models.NodeResult{
		NodeID:    node.ID,
		NodeName:  node.Label,
		NodeType:  node.Type,
		Results:   []any{},
		StartedAt: e.now(),
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.node",
		attribute.String(otelhelper.NodeIDKey, node.ID),
		attribute.String(otelhelper.NodeTypeKey, string(node.Type)),
		attribute.String(otelhelper.NodeLabelKey, node.Label),
	)
	defer span.End()

	logger = logger.With("node_id", node.ID, "node_type", node.Type)

	defer func() {
		if recovered := recover(); recovered != nil {
			result.Status = models.NodeStatusError
			result.Error = fmt.Sprintf("node panicked: %v", recovered)
			result.Outputs = nil
		}

		result.FinishedAt = e.now()

		var err error
		if result.Status == models.NodeStatusError {
			err = errors.New(result.Error)
			logger.ErrorContext(ctx, "Node failed", "error", result.Error)
		} else {
			logger.InfoContext(ctx, "Node finished", "results", len(result.Results))
		}

		otelhelper.SetOutcome(span, err, attribute.String(otelhelper.NodeStatusKey, string(result.Status)))
	}()

	logger.InfoContext(ctx, "Executing node")

	executable, err := e.nodes.CreateNode(ctx, node)
	if err != nil {
		result.Status = models.NodeStatusError
		result.Error = err.Error()

		return result
	}

	output, err := executable.Execute(ctx, input)
	if err != nil {
		result.Status = models.NodeStatusError
		result.Error = err.Error()

		return result
	}

	result.Status = models.NodeStatusSuccess
	result.Outputs = output.Outputs

	if output.Results != nil {
		result.Results = output.Results
	}

	return result
}

type tally struct {
	succeeded int
	failed    int
	skipped   int
}

func countResults(results map[string]models.NodeResult) tally {
	var counts tally

	for _, result := range results {
		switch result.Status {
		case models.NodeStatusSuccess:
			counts.succeeded++
		case models.NodeStatusError:
			counts.failed++
		case models.NodeStatusSkipped:
			counts.skipped++
		}
	}

	return counts
}

// outcome maps node results to the execution status: all succeeded is
// success, none succeeded is failed, anything in between is partial.
func (t tally) outcome(cancelled error, results map[string]models.NodeResult, order []string) (models.ExecutionStatus, string) {
	total := len(order)

	if t.succeeded == total {
		return models.ExecutionStatusSuccess, ""
	}

	var failures []string

	if cancelled != nil {
		failures = append(failures, "execution cancelled: "+cancelled.Error())
	}

	for _, id := range order {
		if result, ok := results[id]; ok && result.Status == models.NodeStatusError {
			failures = append(failures, fmt.Sprintf("%s: %s", id, result.Error))
		}
	}

	message := fmt.Sprintf("%d of %d nodes succeeded", t.succeeded, total)
	if len(failures) > 0 {
		message += ": " + strings.Join(failures, "; ")
	}

	if t.succeeded == 0 {
		return models.ExecutionStatusFailed, message
	}

	return models.ExecutionStatusPartial, message
}

func statusError(status models.ExecutionStatus, message string) error {
	if status == models.ExecutionStatusSuccess {
		return nil
	}

	return errors.New(message)
}

// save outlives cancellation of ctx so that cancelled runs are recorded.
func (e *Engine) save(ctx context.Context, execution *models.Execution) error {
	if e.store == nil {
		return nil
	}

	err := e.store.SaveExecution(context.WithoutCancel(ctx), execution)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to save execution", "execution_id", execution.ID, "error", err)

		return fmt.Errorf("failed to save execution %s: %w", execution.ID, err)
	}

	return nil
}

func (e *Engine) baseEvent(eventType events.EventType, execution *models.Execution) events.BaseEvent {
	return events.NewBaseEvent(e.newID(), eventType, execution.WorkflowID, execution.ID, e.now())
}

func (e *Engine) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	err := e.publisher.Publish(context.WithoutCancel(ctx), key, event)
	if err != nil {
		e.logger.WarnContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

func (e *Engine) publishNode(ctx context.Context, execution *models.Execution, result models.NodeResult) {
	durationMs := result.FinishedAt.Sub(result.StartedAt).Milliseconds()

	switch result.Status {
	case models.NodeStatusSuccess:
		e.publish(ctx, execution.WorkflowID, events.NodeFinished{
			BaseEvent:   e.baseEvent(events.NodeFinishedEvent, execution),
			NodeID:      result.NodeID,
			NodeName:    result.NodeName,
			NodeType:    result.NodeType,
			ResultCount: len(result.Results),
			DurationMs:  durationMs,
		})
	case models.NodeStatusError:
		e.publish(ctx, execution.WorkflowID, events.NodeFailed{
			BaseEvent:  e.baseEvent(events.NodeFailedEvent, execution),
			NodeID:     result.NodeID,
			NodeName:   result.NodeName,
			NodeType:   result.NodeType,
			Error:      result.Error,
			DurationMs: durationMs,
		})
	case models.NodeStatusSkipped:
		e.publish(ctx, execution.WorkflowID, events.NodeSkipped{
			BaseEvent: e.baseEvent(events.NodeSkippedEvent, execution),
			NodeID:    result.NodeID,
			NodeName:  result.NodeName,
			NodeType:  result.NodeType,
			Reason:    result.Error,
		})
	}
}

func (e *Engine) publishOutcome(ctx context.Context, execution *models.Execution, counts tally) {
	durationMs := int64(0)
	if execution.FinishedAt != nil {
		durationMs = execution.FinishedAt.Sub(execution.StartedAt).Milliseconds()
	}

	if execution.Status == models.ExecutionStatusFailed {
		e.publish(ctx, execution.WorkflowID, events.ExecutionFailed{
			BaseEvent:  e.baseEvent(events.ExecutionFailedEvent, execution),
			Error:      execution.Error,
			DurationMs: durationMs,
			Failed:     counts.failed,
			Skipped:    counts.skipped,
		})

		return
	}

	e.publish(ctx, execution.WorkflowID, events.ExecutionCompleted{
		BaseEvent:  e.baseEvent(events.ExecutionCompletedEvent, execution),
		Status:     execution.Status,
		DurationMs: durationMs,
		Succeeded:  counts.succeeded,
		Failed:     counts.failed,
		Skipped:    counts.skipped,
	})
}
