package loader

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// TextParser returns document bytes verbatim as UTF-8 text.
type TextParser struct{}

// Parse implements Parser.
func (TextParser) Parse(data []byte) (string, error) {
	return string(data), nil
}

// HTMLParser extracts the visible text of an HTML page, dropping
// scripts, styles and markup. Useful when ingesting web pages.
type HTMLParser struct{}

// Parse implements Parser.
func (HTMLParser) Parse(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	var sb strings.Builder
	doc.Find("body").Each(func(_ int, sel *goquery.Selection) {
		sb.WriteString(sel.Text())
	})
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		// Pages without a body still may carry text nodes.
		text = doc.Text()
	}

	// Collapse the whitespace runs left behind by removed tags.
	return strings.Join(strings.Fields(text), " "), nil
}
