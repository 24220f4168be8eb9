// Package rag implements the retrieval pipeline: query compression,
// content retrieval, prompt injection and the per-turn orchestration
// that ties them to the model backend and conversation memory.
package rag

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/blackpowerc/ragchat/internal/core"
	"github.com/blackpowerc/ragchat/internal/logger"
	"github.com/blackpowerc/ragchat/internal/memory"
)

// QueryTransformer rewrites a raw query into retrieval queries.
type QueryTransformer interface {
	Transform(ctx context.Context, query string, history []core.Message) []string
}

// ContentRetriever fetches relevant segments for one retrieval query.
type ContentRetriever interface {
	Retrieve(ctx context.Context, query string) ([]core.Content, error)
}

// Augmentor runs one full RAG turn: it reads the conversation window,
// transforms the question, retrieves content concurrently across
// sub-queries, injects it into the prompt and asks the model. Memory is
// updated only after a successful response, and turns of one session
// never interleave.
type Augmentor struct {
	transformer QueryTransformer
	retriever   ContentRetriever
	injector    *Injector
	model       core.ChatModel
	window      *memory.Window
	workers     int

	mu sync.Mutex
}

// NewAugmentor wires the pipeline. Every collaborator is required.
// workers bounds the retrieval fan-out; values below 1 fall back to the
// available parallelism.
func NewAugmentor(transformer QueryTransformer, retriever ContentRetriever, injector *Injector, model core.ChatModel, window *memory.Window, workers int) (*Augmentor, error) {
	if transformer == nil {
		return nil, fmt.Errorf("%w: augmentor requires a query transformer", core.ErrInvalidConfig)
	}
	if retriever == nil {
		return nil, fmt.Errorf("%w: augmentor requires a content retriever", core.ErrInvalidConfig)
	}
	if injector == nil {
		return nil, fmt.Errorf("%w: augmentor requires a content injector", core.ErrInvalidConfig)
	}
	if model == nil {
		return nil, fmt.Errorf("%w: augmentor requires a chat model", core.ErrInvalidConfig)
	}
	if window == nil {
		return nil, fmt.Errorf("%w: augmentor requires a memory window", core.ErrInvalidConfig)
	}
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &Augmentor{
		transformer: transformer,
		retriever:   retriever,
		injector:    injector,
		model:       model,
		window:      window,
		workers:     workers,
	}, nil
}

// Answer runs one conversation turn and returns the model's answer.
// When the turn fails, memory is left untouched and the session stays
// usable.
func (a *Augmentor) Answer(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("%w: question is empty", core.ErrEmptyInput)
	}

	// One turn at a time per session: the window is read before the
	// turn starts and written only after the response arrives.
	a.mu.Lock()
	defer a.mu.Unlock()

	history := a.window.Messages()
	queries := a.transformer.Transform(ctx, question, history)

	contents, err := a.retrieveAll(ctx, queries)
	if err != nil {
		return "", err
	}

	prompt := a.injector.Inject(contents, question)
	messages := append(history, core.Message{Role: core.RoleUser, Content: prompt})

	answer, err := a.model.Chat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("model call failed: %w", err)
	}

	a.window.Append(core.Message{Role: core.RoleUser, Content: question})
	a.window.Append(core.Message{Role: core.RoleAssistant, Content: answer})
	return answer, nil
}

// retrieveAll fans retrieval out over a bounded worker pool and merges
// the per-query results, de-duplicated by segment identity with the
// highest score winning, best first.
func (a *Augmentor) retrieveAll(ctx context.Context, queries []string) ([]core.Content, error) {
	results := make([][]core.Content, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, query := range queries {
		g.Go(func() error {
			contents, err := a.retriever.Retrieve(gctx, query)
			if err != nil {
				return err
			}
			results[i] = contents
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := make(map[string]core.Content)
	for _, contents := range results {
		for _, c := range contents {
			key := c.ID
			if key == "" {
				key = c.Text
			}
			if prev, ok := best[key]; !ok || c.Score > prev.Score {
				best[key] = c
			}
		}
	}

	merged := make([]core.Content, 0, len(best))
	for _, c := range best {
		merged = append(merged, c)
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })

	if len(queries) > 1 {
		logger.RAGDebug("Merged %d sub-queries into %d segments", len(queries), len(merged))
	}
	return merged, nil
}
