package fingerprint

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// TextAdapter fingerprints plain-text documents. Lines become spans on a
// synthetic single page so zone-based fields still have something to read.
type TextAdapter struct{}

// NewTextAdapter creates a plain-text adapter.
func NewTextAdapter() *TextAdapter {
	return &TextAdapter{}
}

// Format returns the adapter's format token.
func (a *TextAdapter) Format() string {
	return "txt"
}

// Extract builds a fingerprint from a plain-text file.
func (a *TextAdapter) Extract(path string) (*Fingerprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read text file: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: text file is not valid UTF-8", ErrCorruptDocument)
	}

	text := string(data)
	fp := &Fingerprint{
		Format:    a.Format(),
		PageCount: 1,
		WordCount: countWords(text),
		Language:  detectLanguage(text),
		Keywords:  deriveKeywords(text),
		RawText:   text,
		Metadata:  map[string]string{},
	}

	// One span per non-blank line; Y advances per line so coordinate
	// zones can address regions of the file.
	y := 0.0
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			fp.Spans = append(fp.Spans, TextSpan{Page: 1, X: 0, Y: y, Text: trimmed})
		}
		y += 12.0
	}
	return fp, nil
}
