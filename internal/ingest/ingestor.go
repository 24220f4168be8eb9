// Package ingest drives the offline pipeline: load documents, split
// them into segments, embed each segment and upsert into the vector
// store.
package ingest

import (
	"context"
	"fmt"

	"github.com/blackpowerc/ragchat/internal/core"
	"github.com/blackpowerc/ragchat/internal/logger"
)

// Splitter cuts a document into bounded segments.
type Splitter interface {
	Split(doc core.Document) []core.Segment
}

// Ingestor wires the loader, splitter, embedder and store together.
type Ingestor struct {
	loader   core.Loader
	splitter Splitter
	embedder core.Embedder
	store    core.VectorStore
}

// New creates an Ingestor. Every collaborator is required; missing ones
// are configuration errors reported before any network call.
func New(loader core.Loader, splitter Splitter, embedder core.Embedder, store core.VectorStore) (*Ingestor, error) {
	if loader == nil {
		return nil, fmt.Errorf("%w: ingestor requires a loader", core.ErrInvalidConfig)
	}
	if splitter == nil {
		return nil, fmt.Errorf("%w: ingestor requires a splitter", core.ErrInvalidConfig)
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: ingestor requires an embedder", core.ErrInvalidConfig)
	}
	if store == nil {
		return nil, fmt.Errorf("%w: ingestor requires a vector store", core.ErrInvalidConfig)
	}
	return &Ingestor{loader: loader, splitter: splitter, embedder: embedder, store: store}, nil
}

// IngestSources loads each source and ingests the resulting documents.
func (in *Ingestor) IngestSources(ctx context.Context, sources []string) error {
	if len(sources) == 0 {
		return fmt.Errorf("%w: no document sources provided", core.ErrEmptyInput)
	}
	documents := make([]core.Document, 0, len(sources))
	for _, source := range sources {
		doc, err := in.loader.Load(ctx, source)
		if err != nil {
			return err
		}
		documents = append(documents, doc)
	}
	return in.Ingest(ctx, documents)
}

// Ingest splits, embeds and stores the given documents. Ingesting the
// same document twice stores its segments twice; the store does not
// deduplicate and neither does this method.
func (in *Ingestor) Ingest(ctx context.Context, documents []core.Document) error {
	if len(documents) == 0 {
		return fmt.Errorf("%w: no documents to ingest", core.ErrEmptyInput)
	}

	var segments []core.Segment
	for _, doc := range documents {
		segments = append(segments, in.splitter.Split(doc)...)
	}
	if len(segments) == 0 {
		return fmt.Errorf("%w: documents produced no segments", core.ErrEmptyInput)
	}
	logger.RAGInfo("Ingesting %d documents as %d segments", len(documents), len(segments))

	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}
	vectors, err := in.embedder.EmbedAll(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed segments: %w", err)
	}

	ids, err := in.store.Upsert(ctx, vectors, segments)
	if err != nil {
		return fmt.Errorf("failed to store segments: %w", err)
	}
	logger.RAGInfo("Stored %d segments", len(ids))
	return nil
}
