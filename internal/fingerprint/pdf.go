package fingerprint

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFAdapter fingerprints PDF documents. Text and positioned spans come
// from ledongthuc/pdf; a relaxed pdfcpu validation pass runs first so a
// structurally broken file is reported as corrupt rather than surfacing
// as an opaque parse failure later.
type PDFAdapter struct{}

// NewPDFAdapter creates a PDF adapter.
func NewPDFAdapter() *PDFAdapter {
	return &PDFAdapter{}
}

// Format returns the adapter's format token.
func (a *PDFAdapter) Format() string {
	return "pdf"
}

// Extract builds a fingerprint from a PDF file.
func (a *PDFAdapter) Extract(path string) (*Fingerprint, error) {
	if err := a.validateStructure(path); err != nil {
		return nil, err
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	defer f.Close()

	fp := &Fingerprint{
		Format:    a.Format(),
		PageCount: reader.NumPage(),
		Metadata:  map[string]string{},
	}

	var builder strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err == nil {
			builder.WriteString(text)
			builder.WriteString("\n")
		}

		a.collectSpans(fp, page, pageNum)
	}

	fp.RawText = builder.String()
	fp.WordCount = countWords(fp.RawText)
	fp.Language = detectLanguage(fp.RawText)
	fp.Keywords = deriveKeywords(fp.RawText)
	a.collectMetadata(fp, reader)

	return fp, nil
}

// validateStructure runs pdfcpu's relaxed validation over the file.
func (a *PDFAdapter) validateStructure(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}
	defer file.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(file, conf)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	return nil
}

// collectSpans indexes the page's positioned text runs. Adjacent glyphs on
// the same baseline are merged into one span.
func (a *PDFAdapter) collectSpans(fp *Fingerprint, page pdf.Page, pageNum int) {
	defer func() {
		// Content streams with exotic encodings can panic inside the parser;
		// the page simply contributes no spans.
		_ = recover()
	}()

	content := page.Content()
	var current *TextSpan
	var lastY float64
	for _, txt := range content.Text {
		if current != nil && txt.Y == lastY {
			current.Text += txt.S
			continue
		}
		if current != nil {
			a.appendSpan(fp, *current)
		}
		current = &TextSpan{Page: pageNum, X: txt.X, Y: txt.Y, Text: txt.S}
		lastY = txt.Y
	}
	if current != nil {
		a.appendSpan(fp, *current)
	}
}

func (a *PDFAdapter) appendSpan(fp *Fingerprint, span TextSpan) {
	span.Text = strings.TrimSpace(span.Text)
	if span.Text != "" {
		fp.Spans = append(fp.Spans, span)
	}
}

// collectMetadata copies the document info dictionary into the fingerprint.
func (a *PDFAdapter) collectMetadata(fp *Fingerprint, reader *pdf.Reader) {
	defer func() {
		// Malformed info dictionaries are not worth failing the document for.
		_ = recover()
	}()

	trailer := reader.Trailer()
	if trailer.IsNull() {
		return
	}
	info := trailer.Key("Info")
	if info.IsNull() {
		return
	}

	for _, key := range []string{"Title", "Author", "Subject", "Producer", "Creator", "CreationDate"} {
		if v := info.Key(key); !v.IsNull() {
			if s := strings.TrimSpace(v.String()); s != "" {
				fp.Metadata[strings.ToLower(key)] = s
			}
		}
	}
}
