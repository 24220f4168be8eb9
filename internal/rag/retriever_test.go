package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackpowerc/ragchat/internal/core"
)

type stubEmbedder struct {
	vector []float32
	err    error
	texts  []string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.texts = append(s.texts, text)
	if s.err != nil {
		return nil, s.err
	}
	return s.vector, nil
}

func (s *stubEmbedder) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

type stubStore struct {
	contents   []core.Content
	err        error
	maxResults int
	minScore   float32
}

func (s *stubStore) Upsert(_ context.Context, _ [][]float32, _ []core.Segment) ([]string, error) {
	return nil, errors.New("not used")
}

func (s *stubStore) Search(_ context.Context, _ []float32, maxResults int, minScore float32) ([]core.Content, error) {
	s.maxResults = maxResults
	s.minScore = minScore
	if s.err != nil {
		return nil, s.err
	}
	return s.contents, nil
}

func TestNewRetriever_RequiresCollaborators(t *testing.T) {
	_, err := NewRetriever(nil, &stubStore{}, 5, 0.5)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	_, err = NewRetriever(&stubEmbedder{}, nil, 5, 0.5)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestRetrieve_PassesConfiguredLimits(t *testing.T) {
	store := &stubStore{contents: []core.Content{{Text: "hit", Score: 0.8}}}
	r, err := NewRetriever(&stubEmbedder{vector: []float32{1, 2}}, store, 7, 0.6)
	require.NoError(t, err)

	contents, err := r.Retrieve(context.Background(), "query")
	require.NoError(t, err)

	require.Len(t, contents, 1)
	assert.Equal(t, 7, store.maxResults)
	assert.InDelta(t, 0.6, store.minScore, 1e-6)
}

func TestRetrieve_EmptyQueryRejected(t *testing.T) {
	r, err := NewRetriever(&stubEmbedder{vector: []float32{1}}, &stubStore{}, 5, 0.5)
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrEmptyInput)
}

func TestRetrieve_EmptyResultIsNotAnError(t *testing.T) {
	r, err := NewRetriever(&stubEmbedder{vector: []float32{1}}, &stubStore{}, 5, 0.5)
	require.NoError(t, err)

	contents, err := r.Retrieve(context.Background(), "nothing relevant")
	require.NoError(t, err)
	assert.Empty(t, contents)
}

func TestRetrieve_EmbedderFailureSurfaces(t *testing.T) {
	embedder := &stubEmbedder{err: core.ErrProviderUnavailable}
	r, err := NewRetriever(embedder, &stubStore{}, 5, 0.5)
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), "query")
	assert.ErrorIs(t, err, core.ErrProviderUnavailable)
}
