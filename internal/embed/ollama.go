// Package embed provides the Ollama embedding client used to turn text
// into fixed-dimension vectors.
package embed

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

// Options configures an OllamaEmbedder. Zero values fall back to the
// documented defaults.
type Options struct {
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	LogRequests bool
}

// OllamaEmbedder implements core.Embedder against the Ollama /api/embed
// endpoint.
type OllamaEmbedder struct {
	baseURL     string
	model       string
	timeout     time.Duration
	maxRetries  int
	logRequests bool
	httpClient  *http.Client
}

// NewOllamaEmbedder creates a new embedder client. BaseURL and Model are
// required.
func NewOllamaEmbedder(opts Options) (*OllamaEmbedder, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("%w: embedder base URL is required", core.ErrInvalidConfig)
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("%w: embedding model is required", core.ErrInvalidConfig)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}
	return &OllamaEmbedder{
		baseURL:     opts.BaseURL,
		model:       opts.Model,
		timeout:     opts.Timeout,
		maxRetries:  opts.MaxRetries,
		logRequests: opts.LogRequests,
		httpClient:  &http.Client{},
	}, nil
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed converts a single text into a vector.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedAll(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedAll converts a batch of texts into vectors, preserving input
// order. Every text must be non-empty.
func (e *OllamaEmbedder) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no texts to embed", core.ErrEmptyInput)
	}
	for i, t := range texts {
		if t == "" {
			return nil, fmt.Errorf("%w: text %d is empty", core.ErrEmptyInput, i)
		}
	}

	body, err := json.Marshal(embedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}
	if e.logRequests {
		logger.EmbedDebug("Request to %s (%d texts): %s", e.model, len(texts), body)
	}
	logger.EmbedInfo("Embedding %d texts with model %s", len(texts), e.model)

	var vectors [][]float32
	var permanent bool
	attempt := 0
	operation := func() error {
		attempt++
		v, err := e.doEmbed(ctx, body)
		if err != nil {
			logger.EmbedDebug("Attempt %d/%d failed: %v", attempt, e.maxRetries, err)
			var perm *backoff.PermanentError
			if errors.As(err, &perm) {
				permanent = true
			}
			return err
		}
		vectors = v
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(e.maxRetries-1)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		if permanent || ctx.Err() != nil {
			return nil, err
		}
		if errors.Is(err, core.ErrTimeout) {
			return nil, fmt.Errorf("embedding backend after %d attempts: %w", attempt, err)
		}
		return nil, fmt.Errorf("%w: embedding backend after %d attempts: %v", core.ErrProviderUnavailable, attempt, err)
	}

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding backend returned %d vectors for %d texts", len(vectors), len(texts))
	}
	if e.logRequests {
		logger.EmbedDebug("Received %d vectors of dimension %d", len(vectors), len(vectors[0]))
	}
	return vectors, nil
}

// doEmbed performs one HTTP attempt. Errors it returns are retryable
// unless wrapped in backoff.Permanent.
func (e *OllamaEmbedder) doEmbed(ctx context.Context, body []byte) ([][]float32, error) {
	reqCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create embed request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			// Attempt-level timeout; the next attempt gets a fresh deadline.
			return nil, fmt.Errorf("%w: embedding request exceeded %s", core.ErrTimeout, e.timeout)
		}
		return nil, fmt.Errorf("failed to send embed request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read embed response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("embedding backend HTTP error (status %d): %s", resp.StatusCode, respBody)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	var decoded embedResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode embed response: %w", err)
	}
	if len(decoded.Embeddings) == 0 {
		return nil, fmt.Errorf("embedding backend returned no vectors")
	}
	return decoded.Embeddings, nil
}
