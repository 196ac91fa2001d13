package schedule

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/dukex/scrapeflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	calls []map[string]any
	ids   []string
	err   error
}

func (r *recorder) execute(_ context.Context, workflowID string, triggerData map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ids = append(r.ids, workflowID)
	r.calls = append(r.calls, triggerData)

	return r.err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.calls)
}

func newTestScheduler(r *recorder) *Scheduler {
	return NewScheduler(r.execute, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestValidateSchedule(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"*/5 * * * *", false},
		{"30 14 * * 1-5", false},
		{"@hourly", false},
		{"@every 10m", false},
		{"", true},
		{"invalid cron", true},
		{"61 * * * *", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			err := ValidateSchedule(tt.expr)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScheduler_Register(t *testing.T) {
	scheduler := newTestScheduler(&recorder{})

	workflow := testutil.CreateTestWorkflow(
		testutil.WithID("wf-1"),
		testutil.WithNodes(
			testutil.ScrapeTriggerNode("catalog", "Catalog", "@hourly", "https://example.com"),
			testutil.EmailTriggerNode("inbox", "Inbox", models.EmailTriggerConfig{Schedule: "*/15 * * * *"}),
			testutil.ScrapeTriggerNode("manual", "Manual", "", "https://example.com"),
			testutil.ScrapeNode("action", "Action", "https://example.com"),
		),
	)

	count, err := scheduler.Register(workflow)

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 2, scheduler.Scheduled("wf-1"))
	assert.Len(t, scheduler.cron.Entries(), 2)

	// Registering again replaces the previous entries.
	workflow.Nodes = workflow.Nodes[:1]

	count, err = scheduler.Register(workflow)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Len(t, scheduler.cron.Entries(), 1)

	scheduler.Unregister("wf-1")
	assert.Equal(t, 0, scheduler.Scheduled("wf-1"))
	assert.Empty(t, scheduler.cron.Entries())
}

func TestScheduler_RegisterInvalidKeepsPrevious(t *testing.T) {
	scheduler := newTestScheduler(&recorder{})

	valid := testutil.CreateTestWorkflow(
		testutil.WithID("wf-1"),
		testutil.WithNodes(testutil.ScrapeTriggerNode("a", "A", "@daily", "https://example.com")),
	)
	_, err := scheduler.Register(valid)
	require.NoError(t, err)

	invalid := testutil.CreateTestWorkflow(
		testutil.WithID("wf-1"),
		testutil.WithNodes(
			testutil.ScrapeTriggerNode("a", "A", "@daily", "https://example.com"),
			testutil.ScrapeTriggerNode("b", "B", "every tuesday", "https://example.com"),
		),
	)

	_, err = scheduler.Register(invalid)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "node b")
	assert.Equal(t, 1, scheduler.Scheduled("wf-1"))
	assert.Len(t, scheduler.cron.Entries(), 1)
}

func TestScheduler_Load(t *testing.T) {
	scheduler := newTestScheduler(&recorder{})

	total := scheduler.Load([]*models.Workflow{
		testutil.CreateTestWorkflow(testutil.WithNodes(testutil.ScrapeTriggerNode("a", "A", "@daily", "https://example.com"))),
		testutil.CreateTestWorkflow(testutil.WithNodes(testutil.ScrapeTriggerNode("b", "B", "nope", "https://example.com"))),
		testutil.CreateTestWorkflow(testutil.WithNodes(testutil.ScrapeNode("c", "C", "https://example.com"))),
	})

	assert.Equal(t, 1, total)
}

func TestScheduler_Job(t *testing.T) {
	r := &recorder{err: errors.New("workflow failed")}
	scheduler := newTestScheduler(r)
	scheduler.now = func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }

	scheduler.job("wf-1", "catalog", "@hourly")()

	require.Equal(t, 1, r.count())
	assert.Equal(t, []string{"wf-1"}, r.ids)
	assert.Equal(t, map[string]any{
		"trigger_node": "catalog",
		"schedule":     "@hourly",
		"timestamp":    "2025-03-01T09:00:00Z",
	}, r.calls[0])
}

func TestScheduler_JobSkippedAfterCancel(t *testing.T) {
	r := &recorder{}
	scheduler := newTestScheduler(r)

	ctx, cancel := context.WithCancel(context.Background())
	scheduler.Start(ctx)
	cancel()

	scheduler.job("wf-1", "catalog", "@hourly")()

	assert.Equal(t, 0, r.count())
	require.NoError(t, scheduler.Stop(context.Background()))
}

func TestScheduler_StartStop(t *testing.T) {
	r := &recorder{}
	scheduler := newTestScheduler(r)

	_, err := scheduler.Register(testutil.CreateTestWorkflow(
		testutil.WithID("wf-1"),
		testutil.WithNodes(testutil.ScrapeTriggerNode("a", "A", "@every 1s", "https://example.com")),
	))
	require.NoError(t, err)

	scheduler.Start(context.Background())

	assert.Eventually(t, func() bool { return r.count() >= 1 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, scheduler.Stop(ctx))
}
