package fingerprint

import (
	"strings"
)

// Fingerprint is the derived, ephemeral summary of one document used for
// template matching and field extraction. It is built fresh per call and
// never persisted.
type Fingerprint struct {
	Format    string            `json:"format"`
	SourceTag string            `json:"source_tag,omitempty"`
	PageCount int               `json:"page_count"`
	WordCount int               `json:"word_count"`
	Language  string            `json:"language"`
	Keywords  map[string]bool   `json:"keywords"`
	RawText   string            `json:"raw_text"`
	Spans     []TextSpan        `json:"spans,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// TextSpan is a positioned run of text, the unit of the fingerprint's zone
// index. Coordinates are in the source document's own coordinate space;
// templates author their zones against the same space.
type TextSpan struct {
	Page int     `json:"page"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

// HasKeyword reports whether the keyword set contains the given word,
// case-insensitively.
func (fp *Fingerprint) HasKeyword(word string) bool {
	return fp.Keywords[strings.ToLower(word)]
}

// HasContent reports whether the fingerprint carries anything a field
// could extract from: text, positioned spans, or metadata.
func (fp *Fingerprint) HasContent() bool {
	return strings.TrimSpace(fp.RawText) != "" || len(fp.Spans) > 0 || len(fp.Metadata) > 0
}

// TextIn gathers the text of every span whose anchor point falls inside
// the given rectangle on the given page, in encounter order.
func (fp *Fingerprint) TextIn(page int, x, y, width, height float64) string {
	var parts []string
	for _, span := range fp.Spans {
		if span.Page != page {
			continue
		}
		if span.X >= x && span.X <= x+width && span.Y >= y && span.Y <= y+height {
			parts = append(parts, span.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// ZoneCount returns the number of spans indexed for the given page, or for
// the whole document when page is 0.
func (fp *Fingerprint) ZoneCount(page int) int {
	if page == 0 {
		return len(fp.Spans)
	}
	count := 0
	for _, span := range fp.Spans {
		if span.Page == page {
			count++
		}
	}
	return count
}
