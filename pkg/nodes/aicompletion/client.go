package aicompletion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dukex/scrapeflow/pkg/protocol"
)

var ErrNoChoices = errors.New("completion response has no choices")

// HTTPCompleter calls a chat completions endpoint speaking the OpenAI wire
// format.
type HTTPCompleter struct {
	url    string
	apiKey string
	client *http.Client
}

// NewHTTPCompleter creates a completer posting to url.
func NewHTTPCompleter(url, apiKey string, timeout time.Duration) *HTTPCompleter {
	return &HTTPCompleter{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends the prompt as a single user message and returns the first
// choice.
func (c *HTTPCompleter) Complete(ctx context.Context, req protocol.CompletionRequest) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       req.Model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var decoded chatResponse

	decodeErr := json.Unmarshal(respBody, &decoded)

	if resp.StatusCode >= 400 {
		if decodeErr == nil && decoded.Error != nil {
			return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, decoded.Error.Message)
		}

		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if decodeErr != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", decodeErr)
	}

	if len(decoded.Choices) == 0 {
		return "", ErrNoChoices
	}

	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}
