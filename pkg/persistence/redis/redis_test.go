package redis

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/dukex/scrapeflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPersistence(t *testing.T) (*Persistence, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)

	p, err := NewPersistence(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)), "redis://"+server.Addr())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = p.Close(context.Background())
	})

	return p, server
}

func TestPersistence_Workflows(t *testing.T) {
	ctx := context.Background()
	p, server := newTestPersistence(t)

	workflow := &models.Workflow{
		ID:   "wf-1",
		Name: "Inbox digest",
		Nodes: []*models.Node{{
			ID:     "inbox",
			Type:   models.NodeTypeEmailTrigger,
			Label:  "Inbox",
			Config: models.EmailTriggerConfig{From: "alerts@example.com", Schedule: "@daily"},
		}},
	}

	require.NoError(t, p.SaveWorkflow(ctx, workflow))
	assert.True(t, server.Exists("scrapeflow:workflows"))

	loaded, err := p.WorkflowByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.Nodes[0].Config, loaded.Nodes[0].Config)

	all, err := p.Workflows(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, p.DeleteWorkflow(ctx, "wf-1"))

	_, err = p.WorkflowByID(ctx, "wf-1")
	assert.True(t, persistence.IsWorkflowNotFound(err))

	assert.Error(t, p.SaveWorkflow(ctx, &models.Workflow{Name: "no id"}))
}

func TestPersistence_ExecutionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	p, server := newTestPersistence(t)
	base := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"exec-a", "exec-c", "exec-b"} {
		started := base.Add(map[int]time.Duration{0: 0, 1: 2 * time.Hour, 2: time.Hour}[i])
		execution := models.NewExecution(id, "wf-1", nil, started)
		execution.Finish(models.ExecutionStatusSuccess, "", started.Add(time.Minute))

		require.NoError(t, p.SaveExecution(ctx, execution))
	}

	require.NoError(t, p.SaveExecution(ctx, models.NewExecution("exec-other", "wf-2", nil, base)))

	executions, err := p.ExecutionsByWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, executions, 3)
	assert.Equal(t, []string{"exec-c", "exec-b", "exec-a"}, []string{executions[0].ID, executions[1].ID, executions[2].ID})

	server.HDel("scrapeflow:executions", "exec-b")

	executions, err = p.ExecutionsByWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	assert.Len(t, executions, 2)

	empty, err := p.ExecutionsByWorkflow(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPersistence_ExecutionByID(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPersistence(t)

	execution := models.NewExecution("exec-1", "wf-1", map[string]any{"from": "cron"}, time.Now().UTC())
	execution.Record(models.NodeResult{NodeID: "n1", NodeName: "Scrape", Status: models.NodeStatusSkipped})
	execution.Finish(models.ExecutionStatusPartial, "", time.Now().UTC())
	require.NoError(t, p.SaveExecution(ctx, execution))

	loaded, err := p.ExecutionByID(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusPartial, loaded.Status)
	assert.Equal(t, "cron", loaded.TriggerData["from"])

	result, ok := loaded.Result("n1")
	require.True(t, ok)
	assert.Equal(t, models.NodeStatusSkipped, result.Status)

	_, err = p.ExecutionByID(ctx, "missing")
	assert.True(t, persistence.IsExecutionNotFound(err))
}

func TestPersistence_HealthCheck(t *testing.T) {
	p, _ := newTestPersistence(t)
	assert.NoError(t, p.HealthCheck(context.Background()))

	server, err := miniredis.Run()
	require.NoError(t, err)

	down, err := NewPersistence(context.Background(), slog.Default(), "redis://"+server.Addr())
	require.NoError(t, err)

	defer func() { _ = down.Close(context.Background()) }()

	server.Close()
	assert.Error(t, down.HealthCheck(context.Background()))
}

func TestNewPersistence_InvalidURL(t *testing.T) {
	_, err := NewPersistence(context.Background(), slog.Default(), "not-a-url")
	assert.Error(t, err)
}
