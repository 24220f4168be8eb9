package core

import "context"

// Embedder converts text into fixed-dimension vectors.
type Embedder interface {
	// Embed converts a single non-empty text into a vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedAll converts a batch of texts, preserving input order.
	EmbedAll(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore persists (vector, text, metadata) entries and answers
// nearest-neighbour queries.
type VectorStore interface {
	// Upsert stores one vector per segment and returns the assigned ids.
	Upsert(ctx context.Context, vectors [][]float32, segments []Segment) ([]string, error)

	// Search returns up to maxResults entries with score >= minScore,
	// ordered by descending score. Tie order is store-defined and must
	// not be relied on.
	Search(ctx context.Context, vector []float32, maxResults int, minScore float32) ([]Content, error)
}

// ChatModel sends a conversation to the model backend and returns the
// completion text.
type ChatModel interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// Loader fetches the raw text of a document from a URL or file path.
type Loader interface {
	Load(ctx context.Context, source string) (Document, error)
}
