// Package llm provides the Ollama chat client used as the model
// backend for both answering and query rewriting.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/blackpowerc/ragchat/internal/core"
	"github.com/blackpowerc/ragchat/internal/logger"
)

// Options configures an OllamaChat client.
type Options struct {
	BaseURL     string
	Model       string
	Temperature float64
	NumCtx      int
	Timeout     time.Duration
	MaxRetries  int
	LogRequests bool
}

// OllamaChat implements core.ChatModel against the Ollama /api/chat
// endpoint. Responses are requested non-streaming; a turn waits for the
// single complete answer.
type OllamaChat struct {
	baseURL     string
	model       string
	temperature float64
	numCtx      int
	timeout     time.Duration
	maxRetries  int
	logRequests bool
	httpClient  *http.Client
}

// NewOllamaChat creates a new chat client. BaseURL and Model are
// required.
func NewOllamaChat(opts Options) (*OllamaChat, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("%w: chat base URL is required", core.ErrInvalidConfig)
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("%w: chat model is required", core.ErrInvalidConfig)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}
	if opts.NumCtx <= 0 {
		opts.NumCtx = 4096
	}
	return &OllamaChat{
		baseURL:     opts.BaseURL,
		model:       opts.Model,
		temperature: opts.Temperature,
		numCtx:      opts.NumCtx,
		timeout:     opts.Timeout,
		maxRetries:  opts.MaxRetries,
		logRequests: opts.LogRequests,
		httpClient:  &http.Client{},
	}, nil
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []core.Message `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  chatOptions    `json:"options"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
	NumCtx      int     `json:"num_ctx"`
}

type chatResponse struct {
	Model   string       `json:"model"`
	Message core.Message `json:"message"`
	Done    bool         `json:"done"`
	Error   string       `json:"error,omitempty"`
}

// Chat sends the conversation to the backend and returns the completion
// text.
func (c *OllamaChat) Chat(ctx context.Context, messages []core.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("%w: no messages to send", core.ErrEmptyInput)
	}

	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
		Options:  chatOptions{Temperature: c.temperature, NumCtx: c.numCtx},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}
	if c.logRequests {
		logger.LLMDebug("Request to %s (%d messages): %s", c.model, len(messages), body)
	}
	logger.LLMInfo("Sending %d messages to model %s", len(messages), c.model)

	var answer string
	var permanent bool
	attempt := 0
	operation := func() error {
		attempt++
		a, err := c.doChat(ctx, body)
		if err != nil {
			logger.LLMDebug("Attempt %d/%d failed: %v", attempt, c.maxRetries, err)
			var perm *backoff.PermanentError
			if errors.As(err, &perm) {
				permanent = true
			}
			return err
		}
		answer = a
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries-1)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		if permanent || ctx.Err() != nil {
			return "", err
		}
		logger.LLMError("Model backend failed after %d attempts: %v", attempt, err)
		if errors.Is(err, core.ErrTimeout) {
			return "", fmt.Errorf("model backend after %d attempts: %w", attempt, err)
		}
		return "", fmt.Errorf("%w: model backend after %d attempts: %v", core.ErrProviderUnavailable, attempt, err)
	}

	if c.logRequests {
		logger.LLMDebug("Response: %s", answer)
	}
	return answer, nil
}

func (c *OllamaChat) doChat(ctx context.Context, body []byte) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("failed to create chat request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			// Attempt-level timeout; the next attempt gets a fresh deadline.
			return "", fmt.Errorf("%w: chat request exceeded %s", core.ErrTimeout, c.timeout)
		}
		return "", fmt.Errorf("failed to send chat request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("model backend HTTP error (status %d): %s", resp.StatusCode, respBody)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return "", backoff.Permanent(err)
		}
		return "", err
	}

	var decoded chatResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if decoded.Error != "" {
		return "", fmt.Errorf("model backend error: %s", decoded.Error)
	}
	if decoded.Message.Content == "" {
		return "", fmt.Errorf("model backend returned an empty message")
	}
	return decoded.Message.Content, nil
}
