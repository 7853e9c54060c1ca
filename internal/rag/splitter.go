package rag

import (
	"fmt"
	"strings"

	"coachrag/pkg/domain"
)

// defaultSeparators are tried from largest to smallest; the empty separator
// falls back to a hard character split for text with no structure at all.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter cuts document text into bounded chunks with a fixed character
// overlap between consecutive chunks. Splitting is deterministic and
// lossless: dropping the first chunkOverlap runes of every chunk after the
// first and concatenating the rest reproduces the input exactly.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
}

// NewSplitter builds a splitter. Overlap must be smaller than the chunk size.
func NewSplitter(chunkSize, chunkOverlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap (%d) must be in [0, %d)", chunkOverlap, chunkSize)
	}
	return &Splitter{chunkSize: chunkSize, chunkOverlap: chunkOverlap}, nil
}

// SplitDocuments splits each document and tags every chunk with the document
// metadata plus its position.
func (s *Splitter) SplitDocuments(docs []domain.Document) []domain.Chunk {
	var chunks []domain.Chunk
	for _, doc := range docs {
		pieces := s.SplitText(doc.Text)
		for i, piece := range pieces {
			meta := make(map[string]string, len(doc.Metadata)+1)
			for k, v := range doc.Metadata {
				meta[k] = v
			}
			meta["chunk"] = fmt.Sprintf("%d", i)
			chunks = append(chunks, domain.Chunk{Content: piece, Metadata: meta})
		}
	}
	return chunks
}

// SplitText splits a single text into chunks of at most chunkSize runes.
// Whitespace-only input yields no chunks. The base segments are budgeted to
// chunkSize-chunkOverlap runes so that prepending the overlap never pushes a
// chunk past the size bound.
func (s *Splitter) SplitText(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	budget := s.chunkSize - s.chunkOverlap
	pieces := s.splitRecursive(text, defaultSeparators, budget)
	if s.chunkOverlap > 0 {
		pieces = s.applyOverlap(pieces)
	}
	return pieces
}

// splitRecursive cuts text into segments of at most budget runes, preferring
// the largest separator that fits. Segments keep their trailing separator so
// concatenating them reproduces text exactly.
func (s *Splitter) splitRecursive(text string, separators []string, budget int) []string {
	if len([]rune(text)) <= budget {
		return []string{text}
	}
	separator := ""
	var remaining []string
	if len(separators) > 0 {
		separator = separators[0]
		remaining = separators[1:]
	}
	if separator == "" {
		return s.hardSplit([]rune(text), budget)
	}

	var out []string
	current := ""
	currentLen := 0
	flush := func() {
		if current != "" {
			out = append(out, current)
			current = ""
			currentLen = 0
		}
	}
	for _, segment := range strings.SplitAfter(text, separator) {
		if segment == "" {
			continue
		}
		segLen := len([]rune(segment))
		if segLen > budget {
			flush()
			out = append(out, s.splitRecursive(segment, remaining, budget)...)
			continue
		}
		if currentLen > 0 && currentLen+segLen > budget {
			flush()
		}
		current += segment
		currentLen += segLen
	}
	flush()
	return out
}

// hardSplit cuts text at fixed rune boundaries, used when no separator fits.
func (s *Splitter) hardSplit(runes []rune, budget int) []string {
	var out []string
	for start := 0; start < len(runes); start += budget {
		end := start + budget
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

// applyOverlap prefixes each chunk after the first with the last chunkOverlap
// runes of the text preceding it, so retrieval does not lose context at chunk
// boundaries. The prefix duplicates preceding content verbatim; stripping it
// restores the original stream.
func (s *Splitter) applyOverlap(pieces []string) []string {
	if len(pieces) < 2 {
		return pieces
	}
	out := make([]string, 0, len(pieces))
	var tail []rune
	for i, piece := range pieces {
		if i == 0 {
			out = append(out, piece)
		} else {
			out = append(out, string(tail)+piece)
		}
		tail = append(tail, []rune(piece)...)
		if len(tail) > s.chunkOverlap {
			tail = tail[len(tail)-s.chunkOverlap:]
		}
	}
	return out
}
