package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/dukex/scrapeflow/pkg/protocol"
	"github.com/dukex/scrapeflow/pkg/variables"
)

var (
	ErrNotSent     = errors.New("mailer reported the message as not sent")
	ErrNoRecipient = errors.New("recipient is empty")
)

// SendError wraps a failure of the mail provider.
type SendError struct {
	To  string
	Err error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("failed to send email to %s: %v", e.To, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

type ActionNode struct {
	id     string
	config models.EmailActionConfig
	mailer protocol.Mailer
}

func NewActionNode(id string, config models.EmailActionConfig, mailer protocol.Mailer) *ActionNode {
	return &ActionNode{
		id:     id,
		config: config,
		mailer: mailer,
	}
}

func (n *ActionNode) ID() string {
	return n.id
}

func (n *ActionNode) Type() models.NodeType {
	return models.NodeTypeEmailAction
}

// Execute renders the message with upstream variables and hands it to the mailer.
func (n *ActionNode) Execute(ctx context.Context, input protocol.Input) (protocol.Output, error) {
	message := protocol.Email{
		To:      strings.TrimSpace(variables.Interpolate(n.config.To, input.Predecessors)),
		Subject: variables.Interpolate(n.config.Subject, input.Predecessors),
		Body:    variables.Interpolate(n.config.Body, input.Predecessors),
	}

	if message.To == "" {
		return protocol.Output{}, &SendError{Err: ErrNoRecipient}
	}

	sent, err := n.mailer.Send(ctx, message)
	if err != nil {
		return protocol.Output{}, &SendError{To: message.To, Err: err}
	}

	if !sent {
		return protocol.Output{}, &SendError{To: message.To, Err: ErrNotSent}
	}

	return protocol.Output{
		Results: []any{message.To},
		Outputs: map[string]any{
			"sent":    true,
			"to":      message.To,
			"subject": message.Subject,
		},
	}, nil
}
