package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackpowerc/ragchat/internal/core"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OLLAMA_BASE_URL", "OLLAMA_CHAT_MODEL", "OLLAMA_EMBEDDING_MODEL",
		"OLLAMA_TEMPERATURE", "OLLAMA_NUM_CTX", "OLLAMA_TIMEOUT",
		"OLLAMA_MAX_RETRIES", "OLLAMA_LOG_REQUESTS",
		"MILVUS_ADDRESS", "MILVUS_USERNAME", "MILVUS_PASSWORD",
		"MILVUS_DATABASE", "MILVUS_COLLECTION", "MILVUS_DIMENSION", "MILVUS_RECREATE",
		"RAG_MAX_RESULTS", "RAG_MIN_SCORE", "RAG_MAX_SEGMENT_SIZE",
		"RAG_SEGMENT_OVERLAP", "RAG_MEMORY_WINDOW", "RAG_PROMPT_TEMPLATE",
		"DOCUMENT_SOURCES", "DOCUMENT_PARSER", "DEBUG",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := FromEnv()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultOllamaBaseURL, cfg.Ollama.BaseURL)
	assert.Equal(t, DefaultChatModel, cfg.Ollama.ChatModel)
	assert.Equal(t, DefaultEmbeddingModel, cfg.Ollama.EmbeddingModel)
	assert.InDelta(t, DefaultTemperature, cfg.Ollama.Temperature, 1e-9)
	assert.Equal(t, DefaultNumCtx, cfg.Ollama.NumCtx)
	assert.Equal(t, DefaultTimeout, cfg.Ollama.Timeout)
	assert.Equal(t, DefaultMaxRetries, cfg.Ollama.MaxRetries)

	assert.Equal(t, DefaultMilvusAddress, cfg.Milvus.Address)
	assert.Equal(t, DefaultCollection, cfg.Milvus.Collection)
	// Dimension follows the default embedding model.
	assert.Equal(t, 768, cfg.Milvus.Dimension)

	assert.Equal(t, DefaultMaxResults, cfg.RAG.MaxResults)
	assert.InDelta(t, DefaultMinScore, cfg.RAG.MinScore, 1e-6)
	assert.Equal(t, DefaultMaxSegmentSize, cfg.RAG.MaxSegmentSize)
	assert.Equal(t, DefaultSegmentOverlap, cfg.RAG.SegmentOverlap)
	assert.Equal(t, DefaultMemoryWindow, cfg.RAG.MemoryWindow)

	assert.Empty(t, cfg.Sources)
	assert.Equal(t, "text", cfg.Parser)
	assert.False(t, cfg.Debug)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OLLAMA_BASE_URL", "http://ollama:11434")
	t.Setenv("OLLAMA_CHAT_MODEL", "qwen2.5:3b")
	t.Setenv("OLLAMA_EMBEDDING_MODEL", "all-minilm:l12")
	t.Setenv("OLLAMA_TIMEOUT", "90s")
	t.Setenv("MILVUS_ADDRESS", "milvus:19530")
	t.Setenv("RAG_MAX_RESULTS", "10")
	t.Setenv("RAG_MIN_SCORE", "0.7")
	t.Setenv("RAG_MEMORY_WINDOW", "12")
	t.Setenv("DOCUMENT_SOURCES", "a.txt, https://example.com/b.html ,")
	t.Setenv("DOCUMENT_PARSER", "html")
	t.Setenv("DEBUG", "true")

	cfg := FromEnv()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "http://ollama:11434", cfg.Ollama.BaseURL)
	assert.Equal(t, "qwen2.5:3b", cfg.Ollama.ChatModel)
	assert.Equal(t, 90*time.Second, cfg.Ollama.Timeout)
	assert.Equal(t, "milvus:19530", cfg.Milvus.Address)
	// all-minilm:l12 produces 384-dimensional vectors.
	assert.Equal(t, 384, cfg.Milvus.Dimension)
	assert.Equal(t, 10, cfg.RAG.MaxResults)
	assert.InDelta(t, 0.7, cfg.RAG.MinScore, 1e-6)
	assert.Equal(t, 12, cfg.RAG.MemoryWindow)
	assert.Equal(t, []string{"a.txt", "https://example.com/b.html"}, cfg.Sources)
	assert.Equal(t, "html", cfg.Parser)
	assert.True(t, cfg.Debug)
}

func TestFromEnv_UnknownModelNeedsExplicitDimension(t *testing.T) {
	clearEnv(t)
	t.Setenv("OLLAMA_EMBEDDING_MODEL", "custom-embedder:1b")

	cfg := FromEnv()
	err := cfg.Validate()
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	t.Setenv("MILVUS_DIMENSION", "1024")
	cfg = FromEnv()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1024, cfg.Milvus.Dimension)
}

func TestValidate_DimensionMismatchWithCatalog(t *testing.T) {
	clearEnv(t)
	t.Setenv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text:latest")
	t.Setenv("MILVUS_DIMENSION", "768")

	err := FromEnv().Validate()
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	base := func() *Config {
		clearEnv(t)
		return FromEnv()
	}

	cfg := base()
	cfg.Ollama.BaseURL = ""
	assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidConfig)

	cfg = base()
	cfg.Ollama.ChatModel = ""
	assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidConfig)

	cfg = base()
	cfg.Milvus.Collection = ""
	assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidConfig)

	cfg = base()
	cfg.RAG.MaxResults = 0
	assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidConfig)

	cfg = base()
	cfg.RAG.SegmentOverlap = cfg.RAG.MaxSegmentSize
	assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidConfig)

	cfg = base()
	cfg.RAG.MemoryWindow = 0
	assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidConfig)

	cfg = base()
	cfg.Parser = "pdf"
	assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidConfig)
}

func TestEmbeddingModelCatalog(t *testing.T) {
	assert.Equal(t, 512, EmbeddingModels["nomic-embed-text:latest"].Dimension)
	assert.Equal(t, 768, EmbeddingModels["paraphrase-multilingual:278m"].Dimension)
	assert.Equal(t, 384, EmbeddingModels["all-minilm:l12"].Dimension)
	assert.Contains(t, ChatModels, "mistral:7b")
}
