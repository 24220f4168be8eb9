package config

// EmbeddingModel describes a known embedding model and the dimension of
// the vectors it produces.
type EmbeddingModel struct {
	Name      string
	Dimension int
}

// EmbeddingModels maps Ollama embedding model identifiers to their
// vector dimensions. The configured store dimension is checked against
// this catalog at startup; an unknown model is allowed as long as the
// dimension is set explicitly.
var EmbeddingModels = map[string]EmbeddingModel{
	// https://huggingface.co/nomic-ai/nomic-embed-text-v1.5
	"nomic-embed-text:latest": {Name: "nomic-embed-text:latest", Dimension: 512},
	// https://ollama.com/library/paraphrase-multilingual
	"paraphrase-multilingual:278m": {Name: "paraphrase-multilingual:278m", Dimension: 768},
	// https://huggingface.co/sentence-transformers
	"all-minilm:l12": {Name: "all-minilm:l12", Dimension: 384},
}

// ChatModels lists the Ollama chat models this project has been run
// against. Informational only; any model identifier is accepted.
var ChatModels = []string{
	// https://ollama.com/library/qwen2.5-coder
	"qwen2.5-coder:7b",
	// https://ollama.com/library/qwen2.5
	"qwen2.5:3b",
	// https://ollama.com/library/llama3.2
	"llama3.2:1b",
	// https://ollama.com/library/granite3-moe
	"granite3-moe:3b",
	// https://ollama.com/library/mistral
	"mistral:7b",
}
