package exchange

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/structa/fieldwise/internal/store"
	"github.com/structa/fieldwise/internal/template"
)

// ErrVersionMismatch means the export document's major format version is
// not one this engine reads.
var ErrVersionMismatch = errors.New("unsupported export format version")

// gzipMagic is the two-byte header that marks a compressed payload.
var gzipMagic = []byte{0x1f, 0x8b}

// ImportOptions control how an export document is applied to the store.
type ImportOptions struct {
	// AssignNewIDs gives every imported template a fresh id instead of
	// keeping the exported one.
	AssignNewIDs bool
	// OverwriteExisting updates a stored template that shares the imported
	// template's id.
	OverwriteExisting bool
	// RenameOnConflict suffixes the imported name when an active template
	// already holds it; otherwise the conflicting template is skipped.
	RenameOnConflict bool
	// IgnoreVersionMismatch downgrades a major-version mismatch from an
	// error to a warning.
	IgnoreVersionMismatch bool
}

// ImportResult summarizes an import run.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Warnings []string `json:"warnings,omitempty"`
}

// Import reads an export document and applies it to the store. Compressed
// payloads are detected by the gzip magic header and transparently
// decompressed. Each template is schema-validated and then model-validated
// before it is written; per-template failures skip that template with a
// warning instead of aborting the run.
func Import(r io.Reader, st store.Store, checks *template.CheckRegistry, opts ImportOptions) (*ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading import payload: %w", err)
	}

	if bytes.HasPrefix(data, gzipMagic) {
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("opening compressed import payload: %w", err)
		}
		data, err = io.ReadAll(gz)
		if err != nil {
			return nil, fmt.Errorf("decompressing import payload: %w", err)
		}
		if err := gz.Close(); err != nil {
			return nil, fmt.Errorf("decompressing import payload: %w", err)
		}
	}

	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("parsing export document: %w", err)
	}
	if err := validateDocument(generic); err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing export document: %w", err)
	}

	result := &ImportResult{}

	if err := checkFormatVersion(doc.Version, opts, result); err != nil {
		return nil, err
	}

	if doc.Integrity != "" {
		computed, err := integrityHash(doc.Templates)
		if err != nil {
			return nil, err
		}
		if computed != doc.Integrity {
			return nil, fmt.Errorf("integrity hash mismatch: document %s, computed %s", doc.Integrity, computed)
		}
	}

	for i := range doc.Templates {
		if err := importOne(&doc.Templates[i], st, checks, opts, result); err != nil {
			result.Skipped++
			result.Warnings = append(result.Warnings, err.Error())
		}
	}
	return result, nil
}

func checkFormatVersion(v string, opts ImportOptions, result *ImportResult) error {
	major, err := majorVersion(v)
	if err != nil {
		return err
	}
	supported, _ := majorVersion(FormatVersion)
	if major == supported {
		return nil
	}
	if opts.IgnoreVersionMismatch {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"export format version %s differs from supported %d.x; importing anyway", v, supported))
		return nil
	}
	return fmt.Errorf("%w: document is %s, engine reads %d.x", ErrVersionMismatch, v, supported)
}

func importOne(exported *ExportedTemplate, st store.Store, checks *template.CheckRegistry, opts ImportOptions, result *ImportResult) error {
	tpl := exported.Template.Clone()

	if opts.AssignNewIDs || tpl.ID == "" {
		tpl.ID = uuid.NewString()
	}
	if err := tpl.Validate(checks); err != nil {
		return fmt.Errorf("template %q rejected: %v", tpl.Name, err)
	}

	if opts.OverwriteExisting {
		if _, err := st.GetTemplate(tpl.ID); err == nil {
			if err := st.UpdateTemplate(tpl); err != nil {
				return fmt.Errorf("template %q: %v", tpl.Name, err)
			}
			result.Imported++
			return importHistory(exported, st, tpl.ID, result)
		}
	}

	err := st.CreateTemplate(tpl)
	if errors.Is(err, store.ErrDuplicateName) && opts.RenameOnConflict {
		for n := 2; n <= 10 && errors.Is(err, store.ErrDuplicateName); n++ {
			tpl.Name = suffixName(exported.Name, n)
			err = st.CreateTemplate(tpl)
		}
		if err == nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"template %q renamed to %q on name conflict", exported.Name, tpl.Name))
		}
	}
	if err != nil {
		return fmt.Errorf("template %q: %v", exported.Name, err)
	}
	result.Imported++
	return importHistory(exported, st, tpl.ID, result)
}

func importHistory(exported *ExportedTemplate, st store.Store, templateID string, result *ImportResult) error {
	for _, rec := range exported.Versions {
		copied := *rec
		copied.TemplateID = templateID
		if err := st.AppendVersion(&copied); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"template %q: version %s not imported: %v", exported.Name, rec.Label, err))
		}
	}
	return nil
}
