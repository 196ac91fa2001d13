package protocol

import "context"

// CompletionRequest is one prompt sent to a text completion provider.
type CompletionRequest struct {
	Prompt      string  `json:"prompt"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// Completer produces text completions.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Email is one outgoing message.
type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Mailer sends email. A false result without an error means the provider
// accepted the call but did not send the message.
type Mailer interface {
	Send(ctx context.Context, email Email) (bool, error)
}
