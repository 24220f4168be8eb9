package rag

import (
	"context"
	"fmt"

	"github.com/blackpowerc/ragchat/internal/core"
	"github.com/blackpowerc/ragchat/internal/logger"
)

// Retriever embeds a retrieval query and searches the vector store,
// keeping at most maxResults hits scoring at least minScore.
type Retriever struct {
	embedder   core.Embedder
	store      core.VectorStore
	maxResults int
	minScore   float32
}

// NewRetriever creates a content retriever. Both collaborators are
// required.
func NewRetriever(embedder core.Embedder, store core.VectorStore, maxResults int, minScore float32) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: retriever requires an embedder", core.ErrInvalidConfig)
	}
	if store == nil {
		return nil, fmt.Errorf("%w: retriever requires a vector store", core.ErrInvalidConfig)
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Retriever{embedder: embedder, store: store, maxResults: maxResults, minScore: minScore}, nil
}

// Retrieve returns the segments relevant to the query, best first. An
// empty result means no stored content scored above the minimum; it is
// not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]core.Content, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: retrieval query is empty", core.ErrEmptyInput)
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed retrieval query: %w", err)
	}

	contents, err := r.store.Search(ctx, vector, r.maxResults, r.minScore)
	if err != nil {
		return nil, fmt.Errorf("failed to search vector store: %w", err)
	}
	logger.RAGDebug("Retrieved %d segments for %q", len(contents), query)
	return contents, nil
}
