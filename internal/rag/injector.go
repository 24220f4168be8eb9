package rag

import (
	"fmt"
	"strings"

	"github.com/blackpowerc/ragchat/internal/core"
)

// Placeholders a prompt template must carry.
const (
	PlaceholderContents    = "{{contents}}"
	PlaceholderUserMessage = "{{userMessage}}"
)

// DefaultTemplate is used when no template is configured. It tells the
// model to admit ignorance, in the language of the question, rather
// than invent an answer.
const DefaultTemplate = `Answer the question using only the context below.

If you are unsure of the answer, or the context does not contain enough
information, say that you do not know, in the same language as the question.

Context:
` + PlaceholderContents + `

Question: ` + PlaceholderUserMessage + `

Answer:`

// Separator between retrieved segments in the contents section.
const contentSeparator = "\n\n"

// Injector merges retrieved segments and the user question into a
// prompt template.
type Injector struct {
	template string
}

// NewInjector creates an injector for the given template; an empty
// template selects DefaultTemplate. A template missing either
// placeholder is a configuration error, not a silent drop.
func NewInjector(template string) (*Injector, error) {
	if template == "" {
		template = DefaultTemplate
	}
	if !strings.Contains(template, PlaceholderUserMessage) {
		return nil, fmt.Errorf("%w: prompt template is missing the %s placeholder", core.ErrInvalidConfig, PlaceholderUserMessage)
	}
	if !strings.Contains(template, PlaceholderContents) {
		return nil, fmt.Errorf("%w: prompt template is missing the %s placeholder", core.ErrInvalidConfig, PlaceholderContents)
	}
	return &Injector{template: template}, nil
}

// Inject substitutes the retrieved segment texts and the raw question
// into the template. Both values are inserted verbatim. No retrieved
// content yields an empty contents section, which is valid.
func (i *Injector) Inject(contents []core.Content, question string) string {
	texts := make([]string, 0, len(contents))
	for _, c := range contents {
		texts = append(texts, c.Text)
	}

	prompt := strings.ReplaceAll(i.template, PlaceholderContents, strings.Join(texts, contentSeparator))
	return strings.ReplaceAll(prompt, PlaceholderUserMessage, question)
}
