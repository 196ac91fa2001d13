package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/dukex/scrapeflow/pkg/mocks"
	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/dukex/scrapeflow/pkg/persistence"
	"github.com/dukex/scrapeflow/pkg/persistence/file"
	"github.com/dukex/scrapeflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRepository_Create(t *testing.T) {
	repo := NewRepository(file.NewPersistence(t.TempDir()))
	ctx := context.Background()

	created, err := repo.Create(ctx, &models.Workflow{
		Name:  "Daily digest",
		Nodes: []*models.Node{testutil.ScrapeNode("scrape", "Catalog", "https://example.com")},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	loaded, err := repo.FetchByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Daily digest", loaded.Name)
}

func TestRepository_CreateRejectsInvalid(t *testing.T) {
	repo := NewRepository(file.NewPersistence(t.TempDir()))
	ctx := context.Background()

	_, err := repo.Create(ctx, &models.Workflow{
		Nodes: []*models.Node{testutil.ScrapeNode("scrape", "Catalog", "https://example.com")},
	})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = repo.Create(ctx, testutil.CreateTestWorkflow(
		testutil.WithNodes(testutil.ScrapeNode("scrape", "Catalog", "https://example.com")),
		testutil.WithEdge("scrape", "ghost"),
	))
	assert.ErrorIs(t, err, ErrUnknownNode)
	assert.ErrorIs(t, err, ErrInvalid)

	// Cycles are accepted on write and rejected when the workflow runs.
	_, err = repo.Create(ctx, testutil.CreateTestWorkflow(
		testutil.WithNodes(testutil.AINode("a", "A", "p"), testutil.AINode("b", "B", "p")),
		testutil.WithEdge("a", "b"),
		testutil.WithEdge("b", "a"),
	))
	assert.NoError(t, err)
}

func TestRepository_Update(t *testing.T) {
	repo := NewRepository(file.NewPersistence(t.TempDir()))
	ctx := context.Background()

	created, err := repo.Create(ctx, testutil.CreateTestWorkflow(
		testutil.WithNodes(testutil.ScrapeNode("scrape", "Catalog", "https://example.com")),
	))
	require.NoError(t, err)

	createdAt := created.CreatedAt
	repo.now = func() time.Time { return createdAt.Add(time.Hour) }

	updated, err := repo.Update(ctx, created.ID, &models.Workflow{
		Name:  "Renamed",
		Nodes: []*models.Node{testutil.ScrapeNode("scrape", "Catalog", "https://example.org")},
	})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, createdAt, updated.CreatedAt)
	assert.Equal(t, createdAt.Add(time.Hour), updated.UpdatedAt)

	_, err = repo.Update(ctx, "missing", &models.Workflow{Name: "x"})
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestRepository_Delete(t *testing.T) {
	repo := NewRepository(file.NewPersistence(t.TempDir()))
	ctx := context.Background()

	created, err := repo.Create(ctx, testutil.CreateTestWorkflow(
		testutil.WithNodes(testutil.ScrapeNode("scrape", "Catalog", "https://example.com")),
	))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))

	_, err = repo.FetchByID(ctx, created.ID)
	assert.True(t, persistence.IsWorkflowNotFound(err))

	assert.True(t, persistence.IsWorkflowNotFound(repo.Delete(ctx, created.ID)))
}

func TestRepository_ScheduledWorkflows(t *testing.T) {
	repo := NewRepository(file.NewPersistence(t.TempDir()))
	ctx := context.Background()

	scheduled, err := repo.Create(ctx, testutil.CreateTestWorkflow(
		testutil.WithNodes(testutil.ScrapeTriggerNode("t", "T", "@hourly", "https://example.com")),
	))
	require.NoError(t, err)

	_, err = repo.Create(ctx, testutil.CreateTestWorkflow(
		testutil.WithNodes(testutil.ScrapeTriggerNode("t", "T", "", "https://example.com")),
	))
	require.NoError(t, err)

	workflows, err := repo.ScheduledWorkflows(ctx)
	require.NoError(t, err)
	require.Len(t, workflows, 1)
	assert.Equal(t, scheduled.ID, workflows[0].ID)
}

func TestRepository_HealthCheck(t *testing.T) {
	store := &mocks.MockPersistence{}
	store.On("HealthCheck", mock.Anything).Return(nil).Once()
	store.On("HealthCheck", mock.Anything).Return(assert.AnError).Once()

	repo := NewRepository(store)

	message, ok := repo.HealthCheck(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "Persistence layer is healthy", message)

	message, ok = repo.HealthCheck(context.Background())
	assert.False(t, ok)
	assert.Contains(t, message, "unhealthy")

	_, ok = NewRepository(nil).HealthCheck(context.Background())
	assert.False(t, ok)
}
