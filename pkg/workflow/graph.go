// Package workflow orders workflow graphs and executes them.
package workflow

import (
	"fmt"
	"slices"

	"github.com/dukex/scrapeflow/pkg/models"
)

// Graph is the dependency structure of a workflow. Node order everywhere is
// declaration order.
type Graph struct {
	nodes        []*models.Node
	index        map[string]int
	predecessors map[string][]string
	successors   map[string][]string
}

// NewGraph indexes the nodes and edges of workflow. It rejects empty
// workflows, null nodes, duplicate ids or labels and edges naming unknown
// nodes. Cycles are only detected by TopologicalOrder.
func NewGraph(workflow *models.Workflow) (*Graph, error) {
	if workflow == nil || len(workflow.Nodes) == 0 {
		return nil, ErrEmptyWorkflow
	}

	g := &Graph{
		nodes:        workflow.Nodes,
		index:        make(map[string]int, len(workflow.Nodes)),
		predecessors: make(map[string][]string, len(workflow.Nodes)),
		successors:   make(map[string][]string, len(workflow.Nodes)),
	}

	labels := make(map[string]string, len(workflow.Nodes))

	for i, node := range workflow.Nodes {
		if node == nil {
			return nil, fmt.Errorf("%w: null entry at position %d", ErrInvalidNode, i)
		}

		if _, exists := g.index[node.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, node.ID)
		}

		if other, exists := labels[node.Label]; exists {
			return nil, fmt.Errorf("%w: %q is used by %s and %s", ErrDuplicateLabel, node.Label, other, node.ID)
		}

		g.index[node.ID] = i
		labels[node.Label] = node.ID
	}

	for _, edge := range workflow.Edges {
		if _, ok := g.index[edge.Source]; !ok {
			return nil, fmt.Errorf("%w: edge source %s", ErrUnknownNode, edge.Source)
		}

		if _, ok := g.index[edge.Target]; !ok {
			return nil, fmt.Errorf("%w: edge target %s", ErrUnknownNode, edge.Target)
		}

		if slices.Contains(g.predecessors[edge.Target], edge.Source) {
			continue
		}

		g.predecessors[edge.Target] = g.insert(g.predecessors[edge.Target], edge.Source)
		g.successors[edge.Source] = g.insert(g.successors[edge.Source], edge.Target)
	}

	return g, nil
}

// insert adds id to ids keeping declaration order.
func (g *Graph) insert(ids []string, id string) []string {
	pos, _ := slices.BinarySearchFunc(ids, id, func(a, b string) int {
		return g.index[a] - g.index[b]
	})

	return slices.Insert(ids, pos, id)
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*models.Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return nil, false
	}

	return g.nodes[i], true
}

// TopologicalOrder returns every node id so that each node comes after all of
// its predecessors. Among nodes that are ready at the same time the one
// declared first wins.
func (g *Graph) TopologicalOrder() ([]string, error) {
	inDegree := make([]int, len(g.nodes))

	var ready []int

	for i, node := range g.nodes {
		inDegree[i] = len(g.predecessors[node.ID])
		if inDegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]string, 0, len(g.nodes))

	for len(ready) > 0 {
		current := ready[0]
		ready = ready[1:]

		id := g.nodes[current].ID
		order = append(order, id)

		for _, successor := range g.successors[id] {
			next := g.index[successor]

			inDegree[next]--
			if inDegree[next] == 0 {
				pos, _ := slices.BinarySearch(ready, next)
				ready = slices.Insert(ready, pos, next)
			}
		}
	}

	if len(order) < len(g.nodes) {
		var blocked []string

		for i, node := range g.nodes {
			if inDegree[i] > 0 {
				blocked = append(blocked, node.ID)
			}
		}

		return nil, &CycleError{Nodes: blocked}
	}

	return order, nil
}

// PredecessorsOf returns the direct predecessors of id.
func (g *Graph) PredecessorsOf(id string) []string {
	return slices.Clone(g.predecessors[id])
}
