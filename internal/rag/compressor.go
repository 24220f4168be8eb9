package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/blackpowerc/ragchat/internal/core"
	"github.com/blackpowerc/ragchat/internal/logger"
)

const compressionPrompt = `Read the conversation between the User and the AI, then look at the new User query.
Resolve references such as "it" or "that" and fold any relevant detail from the conversation into the query.
Rewrite it as one or more clear, self-contained search queries, one per line.
Reply with the queries only, nothing else.

Conversation:
%s

User query: %s`

// Compressor rewrites a raw, possibly multi-turn query into one or more
// self-contained retrieval queries using the model backend. It never
// fails a turn: when the backend is unavailable the raw query is used
// unchanged.
type Compressor struct {
	model core.ChatModel
}

// NewCompressor creates a query compressor backed by the given model.
func NewCompressor(model core.ChatModel) (*Compressor, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: compressor requires a chat model", core.ErrInvalidConfig)
	}
	return &Compressor{model: model}, nil
}

// Transform produces the retrieval queries for a raw user query given
// the prior conversation. The result is never empty.
func (c *Compressor) Transform(ctx context.Context, query string, history []core.Message) []string {
	if len(history) == 0 {
		// Nothing to compress; the query already stands alone.
		return []string{query}
	}

	prompt := fmt.Sprintf(compressionPrompt, renderHistory(history), query)
	answer, err := c.model.Chat(ctx, []core.Message{{Role: core.RoleUser, Content: prompt}})
	if err != nil {
		// Retrieval degrades gracefully, it never blocks the turn.
		logger.RAGDebug("Query compression failed, using raw query: %v", err)
		return []string{query}
	}

	queries := parseQueries(answer)
	if len(queries) == 0 {
		return []string{query}
	}
	logger.RAGDebug("Compressed %q into %d retrieval queries", query, len(queries))
	return queries
}

func renderHistory(history []core.Message) string {
	var sb strings.Builder
	for _, msg := range history {
		role := "User"
		if msg.Role == core.RoleAssistant {
			role = "AI"
		}
		fmt.Fprintf(&sb, "%s: %s\n", role, msg.Content)
	}
	return sb.String()
}

// parseQueries splits the model output into one query per line,
// tolerating list numbering and bullets.
func parseQueries(answer string) []string {
	var queries []string
	for _, line := range strings.Split(answer, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789.) ")
		line = strings.Trim(line, `"`)
		if line != "" {
			queries = append(queries, line)
		}
	}
	return queries
}
