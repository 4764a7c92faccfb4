package fingerprint

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExcelAdapter fingerprints XLSX workbooks. Each sheet becomes a page and
// each non-empty cell becomes a span whose coordinates are its column and
// row indexes, so coordinate zones address rectangular cell ranges.
type ExcelAdapter struct{}

// NewExcelAdapter creates an XLSX adapter.
func NewExcelAdapter() *ExcelAdapter {
	return &ExcelAdapter{}
}

// Format returns the adapter's format token.
func (a *ExcelAdapter) Format() string {
	return "xlsx"
}

// Extract builds a fingerprint from an XLSX workbook.
func (a *ExcelAdapter) Extract(path string) (*Fingerprint, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	defer f.Close()

	fp := &Fingerprint{
		Format:   a.Format(),
		Metadata: map[string]string{},
	}

	sheets := f.GetSheetList()
	fp.PageCount = len(sheets)

	var builder strings.Builder
	for sheetIdx, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("%w: reading sheet %s: %v", ErrCorruptDocument, sheet, err)
		}
		fp.Metadata[fmt.Sprintf("sheet_%d", sheetIdx+1)] = sheet

		for rowIdx, row := range rows {
			for colIdx, cell := range row {
				cell = strings.TrimSpace(cell)
				if cell == "" {
					continue
				}
				fp.Spans = append(fp.Spans, TextSpan{
					Page: sheetIdx + 1,
					X:    float64(colIdx),
					Y:    float64(rowIdx),
					Text: cell,
				})
				builder.WriteString(cell)
				builder.WriteString(" ")
			}
			builder.WriteString("\n")
		}
	}

	if props, err := f.GetDocProps(); err == nil && props != nil {
		if props.Title != "" {
			fp.Metadata["title"] = props.Title
		}
		if props.Creator != "" {
			fp.Metadata["author"] = props.Creator
		}
		if props.Subject != "" {
			fp.Metadata["subject"] = props.Subject
		}
	}

	fp.RawText = builder.String()
	fp.WordCount = countWords(fp.RawText)
	fp.Language = detectLanguage(fp.RawText)
	fp.Keywords = deriveKeywords(fp.RawText)

	return fp, nil
}
