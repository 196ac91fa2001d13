// Package schedule runs workflows whose trigger nodes carry a cron schedule.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/robfig/cron/v3"
)

var ErrEmptySchedule = errors.New("schedule expression is empty")

// ExecuteFunc starts one run of a workflow.
type ExecuteFunc func(ctx context.Context, workflowID string, triggerData map[string]any) error

// Scheduler keeps one cron entry per scheduled trigger node.
type Scheduler struct {
	cron    *cron.Cron
	execute ExecuteFunc
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	ctx     context.Context
	entries map[string][]cron.EntryID
}

func NewScheduler(execute ExecuteFunc, logger *slog.Logger) *Scheduler {
	logger = logger.With("module", "schedule_trigger")
	cronLog := cronLogger{logger: logger}

	return &Scheduler{
		cron: cron.New(cron.WithLogger(cronLog), cron.WithChain(
			cron.SkipIfStillRunning(cronLog),
			cron.Recover(cronLog),
		)),
		execute: execute,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		ctx:     context.Background(),
		entries: make(map[string][]cron.EntryID),
	}
}

// ValidateSchedule checks a standard five field expression or a descriptor
// such as @hourly or @every 10m.
func ValidateSchedule(expr string) error {
	if expr == "" {
		return ErrEmptySchedule
	}

	_, err := cron.ParseStandard(expr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}

	return nil
}

// Register schedules every trigger node of workflow that has a schedule,
// replacing entries from an earlier registration. It returns the number of
// scheduled nodes.
func (s *Scheduler) Register(workflow *models.Workflow) (int, error) {
	var ids []cron.EntryID

	for _, node := range workflow.TriggerNodes() {
		scheduled, ok := node.Config.(models.Scheduled)
		if !ok || scheduled.CronSchedule() == "" {
			continue
		}

		expr := scheduled.CronSchedule()

		err := ValidateSchedule(expr)
		if err != nil {
			s.remove(ids)

			return 0, fmt.Errorf("node %s: %w", node.ID, err)
		}

		id, err := s.cron.AddFunc(expr, s.job(workflow.ID, node.ID, expr))
		if err != nil {
			s.remove(ids)

			return 0, fmt.Errorf("failed to schedule node %s: %w", node.ID, err)
		}

		ids = append(ids, id)
	}

	s.mu.Lock()
	previous := s.entries[workflow.ID]

	if len(ids) > 0 {
		s.entries[workflow.ID] = ids
	} else {
		delete(s.entries, workflow.ID)
	}
	s.mu.Unlock()

	s.remove(previous)

	if len(ids) > 0 {
		s.logger.Info("Scheduled workflow", "workflow_id", workflow.ID, "triggers", len(ids))
	}

	return len(ids), nil
}

// Load registers every workflow, logging the ones that cannot be scheduled.
func (s *Scheduler) Load(workflows []*models.Workflow) int {
	total := 0

	for _, workflow := range workflows {
		count, err := s.Register(workflow)
		if err != nil {
			s.logger.Error("Failed to schedule workflow", "workflow_id", workflow.ID, "error", err)

			continue
		}

		total += count
	}

	return total
}

// Unregister removes the entries of a workflow.
func (s *Scheduler) Unregister(workflowID string) {
	s.mu.Lock()
	ids := s.entries[workflowID]
	delete(s.entries, workflowID)
	s.mu.Unlock()

	s.remove(ids)
}

// Scheduled returns how many trigger nodes of a workflow are scheduled.
func (s *Scheduler) Scheduled(workflowID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries[workflowID])
}

// Start runs the cron loop. Runs use ctx and stop being started once it is
// cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Starting scheduler", "entries", len(s.cron.Entries()))
	s.cron.Start()
}

// Stop halts the cron loop and waits for running jobs or ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Stopping scheduler")

	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) remove(ids []cron.EntryID) {
	for _, id := range ids {
		s.cron.Remove(id)
	}
}

func (s *Scheduler) job(workflowID, nodeID, expr string) func() {
	return func() {
		s.mu.Lock()
		ctx := s.ctx
		s.mu.Unlock()

		if ctx.Err() != nil {
			return
		}

		triggerData := map[string]any{
			"trigger_node": nodeID,
			"schedule":     expr,
			"timestamp":    s.now().Format(time.RFC3339),
		}

		s.logger.InfoContext(ctx, "Cron job triggered", "workflow_id", workflowID, "node_id", nodeID)

		err := s.execute(ctx, workflowID, triggerData)
		if err != nil {
			s.logger.ErrorContext(ctx, "Error executing scheduled workflow", "workflow_id", workflowID, "error", err)
		}
	}
}

// cronLogger routes cron's own logging to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
