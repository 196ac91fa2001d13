package aicompletion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/dukex/scrapeflow/pkg/protocol"
	"github.com/dukex/scrapeflow/pkg/variables"
)

const (
	DefaultModel       = "gpt-3.5-turbo"
	DefaultMaxTokens   = 256
	DefaultTemperature = 0.7
)

var ErrEmptyPrompt = errors.New("prompt is empty")

// CompletionError wraps a failure of the completion provider.
type CompletionError struct {
	Model string
	Err   error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion with model %s failed: %v", e.Model, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

type Node struct {
	id          string
	config      models.AICompletionConfig
	temperature float64
	completer   protocol.Completer
}

// NewNode creates an AICompletion node. An empty model, a zero max tokens and
// an absent temperature select the defaults.
func NewNode(id string, config models.AICompletionConfig, completer protocol.Completer) *Node {
	if config.Model == "" {
		config.Model = DefaultModel
	}

	if config.MaxTokens <= 0 {
		config.MaxTokens = DefaultMaxTokens
	}

	temperature := DefaultTemperature
	if config.Temperature != nil {
		temperature = *config.Temperature
	}

	return &Node{
		id:          id,
		config:      config,
		temperature: temperature,
		completer:   completer,
	}
}

func (n *Node) ID() string {
	return n.id
}

func (n *Node) Type() models.NodeType {
	return models.NodeTypeAICompletion
}

// Execute renders the prompt with upstream variables and asks the completer
// for a completion.
func (n *Node) Execute(ctx context.Context, input protocol.Input) (protocol.Output, error) {
	prompt := variables.Interpolate(n.config.Prompt, input.Predecessors)
	if strings.TrimSpace(prompt) == "" {
		return protocol.Output{}, ErrEmptyPrompt
	}

	completion, err := n.completer.Complete(ctx, protocol.CompletionRequest{
		Prompt:      prompt,
		Model:       n.config.Model,
		MaxTokens:   n.config.MaxTokens,
		Temperature: n.temperature,
	})
	if err != nil {
		return protocol.Output{}, &CompletionError{Model: n.config.Model, Err: err}
	}

	return protocol.Output{
		Results: []any{completion},
		Outputs: map[string]any{
			"completion": completion,
			"model":      n.config.Model,
		},
	}, nil
}
