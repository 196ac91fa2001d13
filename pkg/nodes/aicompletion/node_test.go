package aicompletion

import (
	"context"
	"errors"
	"testing"

	"github.com/dukex/scrapeflow/pkg/mocks"
	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/dukex/scrapeflow/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func scrapeInput() protocol.Input {
	return protocol.Input{
		Predecessors: map[string]models.NodeResult{
			"News": {
				NodeID:   "scrape-news",
				NodeName: "News",
				Status:   models.NodeStatusSuccess,
				Results:  []any{[]string{"First story"}, []string{"Second story"}},
			},
		},
	}
}

func TestNode_Execute(t *testing.T) {
	completer := &mocks.MockCompleter{}
	completer.On("Complete", mock.Anything, protocol.CompletionRequest{
		Prompt:      `Summarize: [["First story"],["Second story"]]`,
		Model:       DefaultModel,
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
	}).Return("Two stories.", nil)

	node := NewNode("ai", models.AICompletionConfig{Prompt: "Summarize: {{News.results}}"}, completer)

	output, err := node.Execute(context.Background(), scrapeInput())

	require.NoError(t, err)
	assert.Equal(t, []any{"Two stories."}, output.Results)
	assert.Equal(t, "Two stories.", output.Outputs["completion"])
	assert.Equal(t, DefaultModel, output.Outputs["model"])
	completer.AssertExpectations(t)
}

func TestNode_ExplicitSettings(t *testing.T) {
	temperature := 1.5
	completer := &mocks.MockCompleter{}
	completer.On("Complete", mock.Anything, protocol.CompletionRequest{
		Prompt:      "Hi",
		Model:       "gpt-4o",
		MaxTokens:   32,
		Temperature: 1.5,
	}).Return("Hello", nil)

	node := NewNode("ai", models.AICompletionConfig{
		Prompt:      "Hi",
		Model:       "gpt-4o",
		MaxTokens:   32,
		Temperature: &temperature,
	}, completer)

	_, err := node.Execute(context.Background(), protocol.Input{})

	require.NoError(t, err)
	completer.AssertExpectations(t)
}

func TestNode_ZeroTemperature(t *testing.T) {
	temperature := 0.0
	completer := &mocks.MockCompleter{}
	completer.On("Complete", mock.Anything, protocol.CompletionRequest{
		Prompt:      "Classify this",
		Model:       DefaultModel,
		MaxTokens:   DefaultMaxTokens,
		Temperature: 0,
	}).Return("positive", nil)

	node := NewNode("ai", models.AICompletionConfig{Prompt: "Classify this", Temperature: &temperature}, completer)

	_, err := node.Execute(context.Background(), protocol.Input{})

	require.NoError(t, err)
	completer.AssertExpectations(t)
}

func TestNode_EmptyPrompt(t *testing.T) {
	completer := &mocks.MockCompleter{}

	node := NewNode("ai", models.AICompletionConfig{Prompt: "   "}, completer)

	_, err := node.Execute(context.Background(), protocol.Input{})

	require.ErrorIs(t, err, ErrEmptyPrompt)
	completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestNode_CompletionError(t *testing.T) {
	completer := &mocks.MockCompleter{}
	completer.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("HTTP 429: rate limited"))

	node := NewNode("ai", models.AICompletionConfig{Prompt: "Hi", Model: "gpt-4o"}, completer)

	_, err := node.Execute(context.Background(), protocol.Input{})

	var completionErr *CompletionError
	require.ErrorAs(t, err, &completionErr)
	assert.Equal(t, "gpt-4o", completionErr.Model)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestFactory(t *testing.T) {
	factory := NewFactory(&mocks.MockCompleter{})

	assert.Equal(t, models.NodeTypeAICompletion, factory.Type())
	assert.Contains(t, factory.Schema()["required"], "prompt")

	node, err := factory.Create(context.Background(), &models.Node{
		ID:     "ai",
		Type:   models.NodeTypeAICompletion,
		Config: models.AICompletionConfig{Prompt: "Hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ai", node.ID())

	_, err = factory.Create(context.Background(), &models.Node{ID: "ai", Config: models.EmailActionConfig{}})
	assert.Error(t, err)
}
