package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/dukex/scrapeflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleWorkflow(id string) *models.Workflow {
	return &models.Workflow{
		ID:   id,
		Name: "Catalog digest",
		Nodes: []*models.Node{
			{
				ID:    "scrape",
				Type:  models.NodeTypeScrapeTrigger,
				Label: "Catalog",
				Config: models.ScrapeConfig{
					URLs: []string{"https://shop.test"},
					Selectors: []models.SelectorConfig{{
						Selector:     "li.product a",
						SelectorType: models.SelectorTypeCSS,
						Attributes:   []string{"text", "href"},
					}},
					Batch: &models.BatchConfig{BatchSize: 2, RateLimit: 1},
				},
			},
			{
				ID:     "mail",
				Type:   models.NodeTypeEmailAction,
				Label:  "Notify",
				Config: models.EmailActionConfig{To: "ops@example.com", Subject: "Digest", Body: "{{Catalog.results}}"},
			},
		},
		Edges: []models.Edge{{Source: "scrape", Target: "mail"}},
	}
}

func TestPersistence_WorkflowRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence("file://" + t.TempDir())

	workflow := sampleWorkflow("wf-1")
	require.NoError(t, store.SaveWorkflow(ctx, workflow))
	assert.False(t, workflow.CreatedAt.IsZero())

	loaded, err := store.WorkflowByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.Nodes[0].Config, loaded.Nodes[0].Config)
	assert.Equal(t, workflow.Nodes[1].Config, loaded.Nodes[1].Config)
	assert.Equal(t, workflow.Edges, loaded.Edges)

	all, err := store.Workflows(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, store.DeleteWorkflow(ctx, "wf-1"))
	require.NoError(t, store.DeleteWorkflow(ctx, "wf-1"))

	_, err = store.WorkflowByID(ctx, "wf-1")
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestPersistence_RejectsPathTraversal(t *testing.T) {
	store := NewPersistence(t.TempDir())

	_, err := store.WorkflowByID(context.Background(), "../secrets")
	assert.Error(t, err)
	assert.False(t, persistence.IsWorkflowNotFound(err))

	_, err = store.ExecutionByID(context.Background(), "a/b")
	assert.Error(t, err)
}

func TestPersistence_Executions(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence(t.TempDir())
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"exec-old", "exec-new", "exec-mid"} {
		offset := map[int]time.Duration{0: 0, 1: 2 * time.Minute, 2: time.Minute}[i]
		execution := models.NewExecution(id, "wf-1", nil, base.Add(offset))
		execution.Record(models.NodeResult{NodeID: "scrape", NodeName: "Catalog", Status: models.NodeStatusSuccess, Results: []any{"row"}})
		execution.Finish(models.ExecutionStatusSuccess, "", base.Add(offset+time.Second))

		require.NoError(t, store.SaveExecution(ctx, execution))
	}

	other := models.NewExecution("exec-other", "wf-2", nil, base)
	require.NoError(t, store.SaveExecution(ctx, other))

	executions, err := store.ExecutionsByWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, executions, 3)
	assert.Equal(t, "exec-new", executions[0].ID)
	assert.Equal(t, "exec-mid", executions[1].ID)
	assert.Equal(t, "exec-old", executions[2].ID)

	loaded, err := store.ExecutionByID(ctx, "exec-new")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusSuccess, loaded.Status)
	require.NotNil(t, loaded.FinishedAt)

	result, ok := loaded.Result("scrape")
	require.True(t, ok)
	assert.Equal(t, []any{"row"}, result.Results)

	_, err = store.ExecutionByID(ctx, "missing")
	assert.True(t, persistence.IsExecutionNotFound(err))

	none, err := NewPersistence(t.TempDir()).ExecutionsByWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPersistence_HealthCheck(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, NewPersistence(t.TempDir()).HealthCheck(ctx))
	assert.ErrorIs(t, NewPersistence(filepath.Join(t.TempDir(), "missing")).HealthCheck(ctx), os.ErrNotExist)
}

func TestLoadWorkflowFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "digest.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
id: digest
name: Digest
nodes:
  - id: scrape
    type: ScrapeTrigger
    label: Catalog
    config:
      urls: ["https://shop.test/a", "https://shop.test/b"]
      selectors:
        - selector: "//li/a"
          selector_type: xpath
          attributes: [text, href]
      batch:
        batch_size: 2
        rate_limit: 4
  - id: ai
    type: AICompletion
    label: Summary
    config:
      prompt: "Summarize {{Catalog.results}}"
      max_tokens: 100
edges:
  - source: scrape
    target: ai
`), 0600))

	workflow, err := LoadWorkflowFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "digest", workflow.ID)
	require.Len(t, workflow.Nodes, 2)

	scrape, ok := workflow.Nodes[0].Config.(models.ScrapeConfig)
	require.True(t, ok)
	assert.Equal(t, models.SelectorTypeXPath, scrape.Selectors[0].SelectorType)
	assert.Equal(t, 2, scrape.Batch.BatchSize)
	assert.Equal(t, 4, scrape.Batch.RateLimit)

	ai, ok := workflow.Nodes[1].Config.(models.AICompletionConfig)
	require.True(t, ok)
	assert.Equal(t, 100, ai.MaxTokens)
	assert.Equal(t, []models.Edge{{Source: "scrape", Target: "ai"}}, workflow.Edges)

	jsonPath := filepath.Join(dir, "digest.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"id":"j","name":"J","nodes":[{"id":"t","type":"EmailTrigger","label":"Inbox","config":{"from":"a@b.test"}}]}`), 0600))

	workflow, err = LoadWorkflowFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, models.EmailTriggerConfig{From: "a@b.test"}, workflow.Nodes[0].Config)

	badPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte(`{"nodes":[{"id":"x","type":"Teleport"}]}`), 0600))

	_, err = LoadWorkflowFile(badPath)
	assert.Error(t, err)
}
