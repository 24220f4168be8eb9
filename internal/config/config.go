package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/blackpowerc/ragchat/internal/core"
)

// Defaults matching the reference deployment.
const (
	DefaultOllamaBaseURL  = "http://127.0.0.1:11434"
	DefaultChatModel      = "mistral:7b"
	DefaultEmbeddingModel = "paraphrase-multilingual:278m"
	DefaultMilvusAddress  = "localhost:19530"
	DefaultCollection     = "segments"

	DefaultTemperature    = 0.1
	DefaultNumCtx         = 4096
	DefaultTimeout        = 60 * time.Second
	DefaultMaxRetries     = 5
	DefaultMaxResults     = 5
	DefaultMinScore       = 0.5
	DefaultMaxSegmentSize = 512
	DefaultSegmentOverlap = 0
	DefaultMemoryWindow   = 30
)

// Ollama configures the chat and embedding clients.
type Ollama struct {
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	Temperature    float64
	NumCtx         int
	Timeout        time.Duration
	MaxRetries     int
	LogRequests    bool
}

// Milvus configures the vector store connection.
type Milvus struct {
	Address    string
	Username   string
	Password   string
	Database   string
	Collection string
	// Dimension of stored vectors; must match the embedding model output.
	Dimension int
	// Recreate drops and recreates the collection on startup.
	Recreate bool
}

// RAG configures the retrieval pipeline.
type RAG struct {
	MaxResults     int
	MinScore       float32
	MaxSegmentSize int
	SegmentOverlap int
	MemoryWindow   int
	// PromptTemplate overrides the built-in answer template. Must keep
	// the {{contents}} and {{userMessage}} placeholders.
	PromptTemplate string
}

// Config is the explicit, dependency-injected configuration for the
// whole pipeline. There is no process-wide instance; construct one and
// pass it down.
type Config struct {
	Ollama  Ollama
	Milvus  Milvus
	RAG     RAG
	Sources []string
	// Parser selects how loaded documents are read: "text" or "html".
	Parser string
	Debug  bool
}

// FromEnv builds a Config from environment variables, applying defaults
// for anything unset. Call Validate before using it.
func FromEnv() *Config {
	cfg := &Config{
		Ollama: Ollama{
			BaseURL:        getEnvWithDefault("OLLAMA_BASE_URL", DefaultOllamaBaseURL),
			ChatModel:      getEnvWithDefault("OLLAMA_CHAT_MODEL", DefaultChatModel),
			EmbeddingModel: getEnvWithDefault("OLLAMA_EMBEDDING_MODEL", DefaultEmbeddingModel),
			Temperature:    getEnvFloat("OLLAMA_TEMPERATURE", DefaultTemperature),
			NumCtx:         getEnvInt("OLLAMA_NUM_CTX", DefaultNumCtx),
			Timeout:        getEnvDuration("OLLAMA_TIMEOUT", DefaultTimeout),
			MaxRetries:     getEnvInt("OLLAMA_MAX_RETRIES", DefaultMaxRetries),
			LogRequests:    getEnvBool("OLLAMA_LOG_REQUESTS", false),
		},
		Milvus: Milvus{
			Address:    getEnvWithDefault("MILVUS_ADDRESS", DefaultMilvusAddress),
			Username:   os.Getenv("MILVUS_USERNAME"),
			Password:   os.Getenv("MILVUS_PASSWORD"),
			Database:   os.Getenv("MILVUS_DATABASE"),
			Collection: getEnvWithDefault("MILVUS_COLLECTION", DefaultCollection),
			Dimension:  getEnvInt("MILVUS_DIMENSION", 0),
			Recreate:   getEnvBool("MILVUS_RECREATE", false),
		},
		RAG: RAG{
			MaxResults:     getEnvInt("RAG_MAX_RESULTS", DefaultMaxResults),
			MinScore:       float32(getEnvFloat("RAG_MIN_SCORE", DefaultMinScore)),
			MaxSegmentSize: getEnvInt("RAG_MAX_SEGMENT_SIZE", DefaultMaxSegmentSize),
			SegmentOverlap: getEnvInt("RAG_SEGMENT_OVERLAP", DefaultSegmentOverlap),
			MemoryWindow:   getEnvInt("RAG_MEMORY_WINDOW", DefaultMemoryWindow),
			PromptTemplate: os.Getenv("RAG_PROMPT_TEMPLATE"),
		},
		Parser: getEnvWithDefault("DOCUMENT_PARSER", "text"),
		Debug:  getEnvBool("DEBUG", false),
	}

	if sources := os.Getenv("DOCUMENT_SOURCES"); sources != "" {
		for _, s := range strings.Split(sources, ",") {
			if s = strings.TrimSpace(s); s != "" {
				cfg.Sources = append(cfg.Sources, s)
			}
		}
	}

	// The store dimension follows the embedding model unless pinned
	// explicitly.
	if cfg.Milvus.Dimension == 0 {
		if m, ok := EmbeddingModels[cfg.Ollama.EmbeddingModel]; ok {
			cfg.Milvus.Dimension = m.Dimension
		}
	}

	return cfg
}

// Validate checks every required parameter eagerly, before any network
// call is made.
func (c *Config) Validate() error {
	if c.Ollama.BaseURL == "" {
		return fmt.Errorf("%w: ollama base URL is required", core.ErrInvalidConfig)
	}
	if c.Ollama.ChatModel == "" {
		return fmt.Errorf("%w: chat model is required", core.ErrInvalidConfig)
	}
	if c.Ollama.EmbeddingModel == "" {
		return fmt.Errorf("%w: embedding model is required", core.ErrInvalidConfig)
	}
	if c.Ollama.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", core.ErrInvalidConfig)
	}
	if c.Ollama.MaxRetries < 0 {
		return fmt.Errorf("%w: max retries must not be negative", core.ErrInvalidConfig)
	}
	if c.Milvus.Address == "" {
		return fmt.Errorf("%w: milvus address is required", core.ErrInvalidConfig)
	}
	if c.Milvus.Collection == "" {
		return fmt.Errorf("%w: milvus collection is required", core.ErrInvalidConfig)
	}
	if c.Milvus.Dimension <= 0 {
		return fmt.Errorf("%w: vector dimension must be positive", core.ErrInvalidConfig)
	}
	if m, ok := EmbeddingModels[c.Ollama.EmbeddingModel]; ok && m.Dimension != c.Milvus.Dimension {
		return fmt.Errorf("%w: embedding model %q produces %d-dimensional vectors but the store is configured for %d",
			core.ErrInvalidConfig, c.Ollama.EmbeddingModel, m.Dimension, c.Milvus.Dimension)
	}
	if c.RAG.MaxResults <= 0 {
		return fmt.Errorf("%w: max results must be positive", core.ErrInvalidConfig)
	}
	if c.RAG.MaxSegmentSize <= 0 {
		return fmt.Errorf("%w: max segment size must be positive", core.ErrInvalidConfig)
	}
	if c.RAG.SegmentOverlap < 0 || c.RAG.SegmentOverlap >= c.RAG.MaxSegmentSize {
		return fmt.Errorf("%w: segment overlap must be in [0, max segment size)", core.ErrInvalidConfig)
	}
	if c.RAG.MemoryWindow <= 0 {
		return fmt.Errorf("%w: memory window must be greater than 0", core.ErrInvalidConfig)
	}
	if c.Parser != "text" && c.Parser != "html" {
		return fmt.Errorf("%w: unknown document parser %q", core.ErrInvalidConfig, c.Parser)
	}
	return nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
