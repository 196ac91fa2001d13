package models

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecution_Record(t *testing.T) {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	execution := NewExecution("exec", "wf", nil, started)

	assert.Equal(t, ExecutionStatusRunning, execution.Status)
	assert.False(t, execution.Status.IsTerminal())

	assert.True(t, execution.Record(NodeResult{NodeID: "a", Status: NodeStatusSuccess}))
	assert.False(t, execution.Record(NodeResult{NodeID: "a", Status: NodeStatusError}))

	result, ok := execution.Result("a")
	require.True(t, ok)
	assert.Equal(t, NodeStatusSuccess, result.Status)

	execution.Finish(ExecutionStatusSuccess, "", started.Add(time.Second))
	assert.True(t, execution.Finished())
	assert.True(t, execution.Status.IsTerminal())

	assert.False(t, execution.Record(NodeResult{NodeID: "b", Status: NodeStatusSuccess}))

	execution.Finish(ExecutionStatusFailed, "late", started.Add(time.Minute))
	assert.Equal(t, ExecutionStatusSuccess, execution.Status)
	assert.Equal(t, started.Add(time.Second), *execution.FinishedAt)
}

func TestExecution_ConcurrentRecord(t *testing.T) {
	execution := NewExecution("exec", "wf", nil, time.Now())

	var wg sync.WaitGroup

	for i := range 100 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			execution.Record(NodeResult{NodeID: fmt.Sprintf("n%d", i%50), Status: NodeStatusSuccess})
		}()
	}

	wg.Wait()

	assert.Len(t, execution.Results(), 50)
}

func TestExecution_ResultsIsACopy(t *testing.T) {
	execution := NewExecution("exec", "wf", nil, time.Now())
	execution.Record(NodeResult{NodeID: "a", Status: NodeStatusSuccess})

	results := execution.Results()
	delete(results, "a")

	_, ok := execution.Result("a")
	assert.True(t, ok)
}
