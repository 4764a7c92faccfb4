package exchange

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/structa/fieldwise/internal/store"
	"github.com/structa/fieldwise/internal/template"
)

// ExportOptions control what an export document carries.
type ExportOptions struct {
	// IncludeHistory adds each template's version records.
	IncludeHistory bool
	// IncludeStats adds each template's usage statistics.
	IncludeStats bool
	// Compress gzips the output stream.
	Compress bool
}

// Export writes the given templates as an export document. History and
// statistics are pulled from the store when requested.
func Export(w io.Writer, st store.Store, templates []*template.Template, opts ExportOptions) error {
	doc := Document{
		Version:    FormatVersion,
		ExportedAt: time.Now().UTC(),
	}

	for _, tpl := range templates {
		exported := ExportedTemplate{Template: *tpl.Clone()}
		if opts.IncludeHistory {
			versions, err := st.ListVersions(tpl.ID)
			if err != nil {
				return fmt.Errorf("loading history of %q: %w", tpl.Name, err)
			}
			exported.Versions = versions
		}
		if opts.IncludeStats {
			stats, err := st.GetUsageStats(tpl.ID)
			if err != nil {
				return fmt.Errorf("loading usage stats of %q: %w", tpl.Name, err)
			}
			if stats.TotalRuns > 0 {
				exported.Usage = stats
			}
		}
		doc.Templates = append(doc.Templates, exported)
	}

	hash, err := integrityHash(doc.Templates)
	if err != nil {
		return err
	}
	doc.Integrity = hash

	out := w
	var gz *gzip.Writer
	if opts.Compress {
		gz = gzip.NewWriter(w)
		out = gz
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding export document: %w", err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return fmt.Errorf("finishing compressed export: %w", err)
		}
	}
	return nil
}
