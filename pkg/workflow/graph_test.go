package workflow

import (
	"testing"

	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/dukex/scrapeflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id string) *models.Node {
	return testutil.EmailTriggerNode(id, "Label"+id, models.EmailTriggerConfig{})
}

func graphOf(t *testing.T, ids []string, edges ...[2]string) *Graph {
	t.Helper()

	workflow := testutil.CreateTestWorkflow()
	for _, id := range ids {
		workflow.Nodes = append(workflow.Nodes, node(id))
	}

	for _, edge := range edges {
		workflow.Edges = append(workflow.Edges, models.Edge{Source: edge[0], Target: edge[1]})
	}

	graph, err := NewGraph(workflow)
	require.NoError(t, err)

	return graph
}

func TestGraph_TopologicalOrder(t *testing.T) {
	tests := []struct {
		name  string
		ids   []string
		edges [][2]string
		want  []string
	}{
		{
			name: "no edges keeps declaration order",
			ids:  []string{"c", "a", "b"},
			want: []string{"c", "a", "b"},
		},
		{
			name:  "chain declared backwards",
			ids:   []string{"email", "ai", "scrape"},
			edges: [][2]string{{"scrape", "ai"}, {"ai", "email"}},
			want:  []string{"scrape", "ai", "email"},
		},
		{
			name:  "diamond",
			ids:   []string{"a", "b", "c", "d"},
			edges: [][2]string{{"a", "c"}, {"a", "b"}, {"b", "d"}, {"c", "d"}},
			want:  []string{"a", "b", "c", "d"},
		},
		{
			name:  "later ready node does not jump earlier declared one",
			ids:   []string{"x", "y", "z"},
			edges: [][2]string{{"z", "x"}},
			want:  []string{"y", "z", "x"},
		},
		{
			name:  "ready nodes taken by declaration index",
			ids:   []string{"root", "late", "early", "other"},
			edges: [][2]string{{"root", "early"}, {"late", "other"}},
			want:  []string{"root", "late", "early", "other"},
		},
		{
			name:  "duplicate edges",
			ids:   []string{"a", "b"},
			edges: [][2]string{{"a", "b"}, {"a", "b"}},
			want:  []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := graphOf(t, tt.ids, tt.edges...).TopologicalOrder()

			require.NoError(t, err)
			assert.Equal(t, tt.want, order)
		})
	}
}

func TestGraph_Cycle(t *testing.T) {
	graph := graphOf(t, []string{"a", "b", "c", "d"},
		[2]string{"a", "b"}, [2]string{"b", "c"}, [2]string{"c", "b"}, [2]string{"c", "d"})

	order, err := graph.TopologicalOrder()

	assert.Nil(t, order)

	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"b", "c", "d"}, cycleErr.Nodes)
	assert.True(t, IsCycleError(err))
	assert.Contains(t, err.Error(), "b, c, d")
}

func TestGraph_SelfLoop(t *testing.T) {
	_, err := graphOf(t, []string{"a"}, [2]string{"a", "a"}).TopologicalOrder()

	assert.True(t, IsCycleError(err))
}

func TestNewGraph_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		workflow *models.Workflow
		wantErr  error
	}{
		{"nil workflow", nil, ErrEmptyWorkflow},
		{"no nodes", testutil.CreateTestWorkflow(), ErrEmptyWorkflow},
		{
			"unknown edge target",
			testutil.CreateTestWorkflow(testutil.WithNodes(node("a")), testutil.WithEdge("a", "ghost")),
			ErrUnknownNode,
		},
		{
			"unknown edge source",
			testutil.CreateTestWorkflow(testutil.WithNodes(node("a")), testutil.WithEdge("ghost", "a")),
			ErrUnknownNode,
		},
		{
			"duplicate id",
			testutil.CreateTestWorkflow(testutil.WithNodes(node("a"), testutil.AINode("a", "Other", "p"))),
			ErrDuplicateNode,
		},
		{
			"duplicate label",
			testutil.CreateTestWorkflow(testutil.WithNodes(
				testutil.AINode("a", "Same", "p"),
				testutil.AINode("b", "Same", "p"),
			)),
			ErrDuplicateLabel,
		},
		{
			"null node",
			testutil.CreateTestWorkflow(testutil.WithNodes(node("a"), nil)),
			ErrInvalidNode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGraph(tt.workflow)

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGraph_Predecessors(t *testing.T) {
	graph := graphOf(t, []string{"s1", "s2", "ai", "mail", "solo"},
		[2]string{"s2", "ai"}, [2]string{"s1", "ai"}, [2]string{"ai", "mail"}, [2]string{"s1", "ai"})

	assert.Equal(t, []string{"s1", "s2"}, graph.PredecessorsOf("ai"))
	assert.Equal(t, []string{"ai"}, graph.PredecessorsOf("mail"))
	assert.Empty(t, graph.PredecessorsOf("s1"))
	assert.Empty(t, graph.PredecessorsOf("solo"))

	predecessors := graph.PredecessorsOf("ai")
	predecessors[0] = "changed"
	assert.Equal(t, []string{"s1", "s2"}, graph.PredecessorsOf("ai"))
}
