package entity

import "github.com/google/uuid"

// RawPage is one PDF page rendered to an encoded image. Owned by the
// orchestrator for the duration of one document's processing and discarded
// after extraction.
type RawPage struct {
	DocumentID uuid.UUID
	Index      int    // zero-based page index within the document
	PNG        []byte // encoded page image
	DPI        int    // effective dots-per-inch of the rendering
}

// Word is a recognized token with its source line and engine confidence (0..1).
type Word struct {
	Text       string
	Line       int
	Confidence float64
}

// PageText is the OCR output for one RawPage. Never mutated after creation;
// re-parsing derives a new record rather than editing page text in place.
type PageText struct {
	index int
	lines []string
	words []Word
}

// NewPageText builds an immutable PageText, copying the provided slices.
func NewPageText(index int, lines []string, words []Word) PageText {
	l := make([]string, len(lines))
	copy(l, lines)
	var w []Word
	if len(words) > 0 {
		w = make([]Word, len(words))
		copy(w, words)
	}
	return PageText{index: index, lines: l, words: w}
}

// Index returns the zero-based page index the text was recognized from.
func (p PageText) Index() int { return p.index }

// Lines returns a copy of the recognized lines in reading order.
func (p PageText) Lines() []string {
	out := make([]string, len(p.lines))
	copy(out, p.lines)
	return out
}

// Line returns the line at i, or "" when out of range.
func (p PageText) Line(i int) string {
	if i < 0 || i >= len(p.lines) {
		return ""
	}
	return p.lines[i]
}

// LineCount returns the number of recognized lines.
func (p PageText) LineCount() int { return len(p.lines) }

// Words returns a copy of the per-token data, if the engine provided any.
func (p PageText) Words() []Word {
	if len(p.words) == 0 {
		return nil
	}
	out := make([]Word, len(p.words))
	copy(out, p.words)
	return out
}

// Empty reports whether no text was recognized for the page.
func (p PageText) Empty() bool {
	for _, l := range p.lines {
		if l != "" {
			return false
		}
	}
	return true
}
