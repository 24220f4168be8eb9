package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackpowerc/ragchat/internal/core"
)

func newEmbedServer(t *testing.T, dimension int, handler func(w http.ResponseWriter, r *http.Request) bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embed", r.URL.Path)
		if handler != nil && !handler(w, r) {
			return
		}

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		vectors := make([][]float32, len(req.Input))
		for i := range req.Input {
			vectors[i] = make([]float32, dimension)
			vectors[i][0] = float32(i + 1)
		}
		json.NewEncoder(w).Encode(embedResponse{Model: req.Model, Embeddings: vectors})
	}))
}

func TestNewOllamaEmbedder_Validation(t *testing.T) {
	_, err := NewOllamaEmbedder(Options{Model: "m"})
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	_, err = NewOllamaEmbedder(Options{BaseURL: "http://localhost"})
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestEmbedAll_PreservesInputOrder(t *testing.T) {
	srv := newEmbedServer(t, 768, nil)
	defer srv.Close()

	e, err := NewOllamaEmbedder(Options{BaseURL: srv.URL, Model: "paraphrase-multilingual:278m"})
	require.NoError(t, err)

	vectors, err := e.EmbedAll(context.Background(), []string{"first", "second", "third"})
	require.NoError(t, err)

	require.Len(t, vectors, 3)
	for i, v := range vectors {
		assert.Len(t, v, 768)
		assert.Equal(t, float32(i+1), v[0])
	}
}

func TestEmbed_DimensionIsStable(t *testing.T) {
	srv := newEmbedServer(t, 384, nil)
	defer srv.Close()

	e, err := NewOllamaEmbedder(Options{BaseURL: srv.URL, Model: "all-minilm:l12"})
	require.NoError(t, err)

	first, err := e.Embed(context.Background(), "same text")
	require.NoError(t, err)
	second, err := e.Embed(context.Background(), "same text")
	require.NoError(t, err)

	assert.Len(t, first, 384)
	assert.Equal(t, len(first), len(second))
}

func TestEmbed_RejectsEmptyText(t *testing.T) {
	e, err := NewOllamaEmbedder(Options{BaseURL: "http://localhost:11434", Model: "m"})
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrEmptyInput)

	_, err = e.EmbedAll(context.Background(), nil)
	assert.ErrorIs(t, err, core.ErrEmptyInput)

	_, err = e.EmbedAll(context.Background(), []string{"ok", ""})
	assert.ErrorIs(t, err, core.ErrEmptyInput)
}

func TestEmbed_RetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := newEmbedServer(t, 8, func(w http.ResponseWriter, _ *http.Request) bool {
		if calls.Add(1) == 1 {
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return false
		}
		return true
	})
	defer srv.Close()

	e, err := NewOllamaEmbedder(Options{BaseURL: srv.URL, Model: "m", MaxRetries: 3})
	require.NoError(t, err)

	vector, err := e.Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.Len(t, vector, 8)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmbed_ExhaustedRetriesSurfaceProviderUnavailable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	e, err := NewOllamaEmbedder(Options{BaseURL: srv.URL, Model: "m", MaxRetries: 2})
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrProviderUnavailable)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmbed_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "no such model", http.StatusNotFound)
	}))
	defer srv.Close()

	e, err := NewOllamaEmbedder(Options{BaseURL: srv.URL, Model: "missing", MaxRetries: 5})
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrProviderUnavailable)
	assert.Equal(t, int32(1), calls.Load())
}

func TestEmbed_TimeoutIsRetried(t *testing.T) {
	var calls atomic.Int32
	srv := newEmbedServer(t, 4, func(_ http.ResponseWriter, _ *http.Request) bool {
		if calls.Add(1) == 1 {
			// Stall the first attempt past the client deadline.
			time.Sleep(200 * time.Millisecond)
			return false
		}
		return true
	})
	defer srv.Close()

	e, err := NewOllamaEmbedder(Options{BaseURL: srv.URL, Model: "m", Timeout: 50 * time.Millisecond, MaxRetries: 5})
	require.NoError(t, err)

	vector, err := e.Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.Len(t, vector, 4)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmbed_TimeoutSurfacesAfterRetriesExhaust(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	e, err := NewOllamaEmbedder(Options{BaseURL: srv.URL, Model: "m", Timeout: 30 * time.Millisecond, MaxRetries: 3})
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrTimeout)
	assert.Equal(t, int32(3), calls.Load())
}
