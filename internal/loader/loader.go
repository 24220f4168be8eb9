// Package loader fetches raw documents from URLs or local files and
// turns them into core.Documents through a pluggable parser.
package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/blackpowerc/ragchat/internal/core"
	"github.com/blackpowerc/ragchat/internal/logger"
)

// Parser extracts plain text from raw document bytes.
type Parser interface {
	Parse(data []byte) (string, error)
}

// Loader fetches documents over http(s) or from the local filesystem.
type Loader struct {
	parser     Parser
	httpClient *http.Client
}

// Option customizes a Loader.
type Option func(*Loader)

// WithParser replaces the default plain-text parser.
func WithParser(p Parser) Option {
	return func(l *Loader) { l.parser = p }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) { l.httpClient = c }
}

// New creates a Loader. Without options it reads documents as plain
// text.
func New(opts ...Option) *Loader {
	l := &Loader{
		parser:     TextParser{},
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches one document. Sources starting with http:// or https://
// are fetched over the network, everything else is treated as a file
// path. The source identifier is recorded on the document.
func (l *Loader) Load(ctx context.Context, source string) (core.Document, error) {
	if source == "" {
		return core.Document{}, fmt.Errorf("%w: document source is empty", core.ErrEmptyInput)
	}

	var data []byte
	var err error
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		data, err = l.fetch(ctx, source)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return core.Document{}, fmt.Errorf("failed to load document from %s: %w", source, err)
	}

	text, err := l.parser.Parse(data)
	if err != nil {
		return core.Document{}, fmt.Errorf("failed to parse document from %s: %w", source, err)
	}
	if strings.TrimSpace(text) == "" {
		return core.Document{}, fmt.Errorf("%w: document from %s has no text", core.ErrEmptyInput, source)
	}

	logger.Debug("Loaded document from %s (%d bytes of text)", source, len(text))
	return core.Document{
		Text:     text,
		Source:   source,
		Metadata: map[string]string{"source": source},
	}, nil
}

// LoadAll fetches every source in order.
func (l *Loader) LoadAll(ctx context.Context, sources []string) ([]core.Document, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: no document sources provided", core.ErrEmptyInput)
	}
	documents := make([]core.Document, 0, len(sources))
	for _, source := range sources {
		doc, err := l.Load(ctx, source)
		if err != nil {
			return nil, err
		}
		documents = append(documents, doc)
	}
	return documents, nil
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
