// Package splitter cuts documents into bounded segments for embedding.
package splitter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/blackpowerc/ragchat/internal/core"
)

var (
	paragraphRe = regexp.MustCompile(`\n{2,}`)
	// A sentence is anything up to and including its terminator, plus a
	// trailing remainder without one.
	sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+|[^.!?]+$`)
)

// Recursive splits text with a cascade of progressively smaller
// separators: paragraph, sentence, word, and finally raw characters.
// Every produced segment is at most MaxSize characters and the segments
// cover the document text in order.
type Recursive struct {
	maxSize int
	overlap int
}

// NewRecursive creates a splitter. maxSize must be positive and overlap
// must be smaller than maxSize.
func NewRecursive(maxSize, overlap int) (*Recursive, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: max segment size must be positive", core.ErrInvalidConfig)
	}
	if overlap < 0 || overlap >= maxSize {
		return nil, fmt.Errorf("%w: segment overlap must be in [0, max segment size)", core.ErrInvalidConfig)
	}
	return &Recursive{maxSize: maxSize, overlap: overlap}, nil
}

// Split cuts one document into segments carrying the document's source
// and metadata plus their position index.
func (r *Recursive) Split(doc core.Document) []core.Segment {
	chunks := r.applyOverlap(r.chunk(strings.TrimSpace(doc.Text), 0))

	segments := make([]core.Segment, 0, len(chunks))
	for i, text := range chunks {
		metadata := map[string]string{"index": strconv.Itoa(i)}
		for k, v := range doc.Metadata {
			metadata[k] = v
		}
		segments = append(segments, core.Segment{
			Text:     text,
			Source:   doc.Source,
			Metadata: metadata,
		})
	}
	return segments
}

// chunk splits text at the given cascade level, recursing into the next
// level for any piece that still exceeds the limit.
func (r *Recursive) chunk(text string, level int) []string {
	if text == "" {
		return nil
	}
	if len(text) <= r.maxSize {
		return []string{text}
	}

	var pieces []string
	var sep string
	switch level {
	case 0: // paragraphs
		pieces, sep = paragraphRe.Split(text, -1), "\n\n"
	case 1: // sentences
		pieces, sep = sentenceRe.FindAllString(text, -1), " "
	case 2: // words
		pieces, sep = strings.Fields(text), " "
	default:
		return r.hardSplit(text)
	}

	for i := range pieces {
		pieces[i] = strings.TrimSpace(pieces[i])
	}

	var chunks []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, piece := range pieces {
		if piece == "" {
			continue
		}
		if len(piece) > r.maxSize {
			// Too big for this level; cut it with the next separator.
			flush()
			chunks = append(chunks, r.chunk(piece, level+1)...)
			continue
		}
		if current.Len() > 0 && current.Len()+len(sep)+len(piece) > r.maxSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(sep)
		}
		current.WriteString(piece)
	}
	flush()

	return chunks
}

// hardSplit is the last resort: fixed-size windows of runes, never
// cutting a multi-byte character apart.
func (r *Recursive) hardSplit(text string) []string {
	runes := []rune(text)
	var chunks []string
	for start := 0; start < len(runes); start += r.maxSize {
		end := start + r.maxSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// applyOverlap prefixes each chunk with the tail of its predecessor.
func (r *Recursive) applyOverlap(chunks []string) []string {
	if r.overlap == 0 || len(chunks) < 2 {
		return chunks
	}
	out := make([]string, len(chunks))
	out[0] = chunks[0]
	for i := 1; i < len(chunks); i++ {
		tail := []rune(chunks[i-1])
		if len(tail) > r.overlap {
			tail = tail[len(tail)-r.overlap:]
		}
		merged := []rune(string(tail) + " " + chunks[i])
		if len(merged) > r.maxSize {
			merged = merged[len(merged)-r.maxSize:]
		}
		out[i] = string(merged)
	}
	return out
}
