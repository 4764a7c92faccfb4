package fingerprint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Adapter failures are distinguishable: an unsupported format is the
// caller handing us something we never claimed to read, a corrupt document
// is a supported format we could not parse.
var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrCorruptDocument   = errors.New("corrupt document")
)

// Adapter turns one document format into a fingerprint.
type Adapter interface {
	// Format returns the format token this adapter produces, e.g. "pdf".
	Format() string
	// Extract builds a fingerprint from the file at path. Parse failures
	// wrap ErrCorruptDocument.
	Extract(path string) (*Fingerprint, error)
}

// Extractor dispatches documents to format adapters by file extension.
type Extractor struct {
	maxFileSize int64
	adapters    map[string]Adapter
}

// NewExtractor creates an extractor with the built-in adapters registered:
// plain text, PDF, and XLSX.
func NewExtractor(maxFileSize int64) *Extractor {
	e := &Extractor{
		maxFileSize: maxFileSize,
		adapters:    make(map[string]Adapter),
	}
	e.Register(".txt", NewTextAdapter())
	e.Register(".text", NewTextAdapter())
	e.Register(".pdf", NewPDFAdapter())
	e.Register(".xlsx", NewExcelAdapter())
	return e
}

// Register maps a file extension (with leading dot) to an adapter.
func (e *Extractor) Register(ext string, adapter Adapter) {
	e.adapters[strings.ToLower(ext)] = adapter
}

// SupportedExtensions lists the registered extensions.
func (e *Extractor) SupportedExtensions() []string {
	exts := make([]string, 0, len(e.adapters))
	for ext := range e.adapters {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract fingerprints the document at path.
func (e *Extractor) Extract(path string) (*Fingerprint, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}
	if e.maxFileSize > 0 && info.Size() > e.maxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (max: %d bytes)", info.Size(), e.maxFileSize)
	}

	ext := strings.ToLower(filepath.Ext(path))
	adapter, ok := e.adapters[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	fp, err := adapter.Extract(path)
	if err != nil {
		return nil, err
	}
	fp.SourceTag = filepath.Base(path)
	return fp, nil
}
