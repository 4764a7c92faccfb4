package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/structa/fieldwise/internal/config"
	"github.com/structa/fieldwise/internal/exchange"
	"github.com/structa/fieldwise/internal/extract"
	"github.com/structa/fieldwise/internal/fingerprint"
	"github.com/structa/fieldwise/internal/inherit"
	"github.com/structa/fieldwise/internal/match"
	"github.com/structa/fieldwise/internal/store"
	"github.com/structa/fieldwise/internal/template"
	"github.com/structa/fieldwise/internal/version"
)

// Service bundles the template catalog, matching, extraction, versioning,
// and exchange operations behind one API. Both the MCP server and the CLI
// front it.
type Service struct {
	cfg       *config.Config
	store     store.Store
	checks    *template.CheckRegistry
	extractor *fingerprint.Extractor
	matcher   *match.Engine
	fields    *extract.Engine
	versions  *version.Engine
}

// NewService wires the engines together over the given store.
func NewService(cfg *config.Config, st store.Store) *Service {
	checks := template.NewCheckRegistry()

	fields := extract.NewEngine(checks)
	fields.SetUsageCallback(func(templateID string, success bool, elapsed time.Duration, confidence float64) {
		// Usage bookkeeping must never fail an extraction.
		_ = st.RecordUsage(templateID, success, elapsed, confidence)
	})

	return &Service{
		cfg:       cfg,
		store:     st,
		checks:    checks,
		extractor: fingerprint.NewExtractor(cfg.MaxFileSize),
		matcher: match.NewEngine(match.Weights{
			Keyword:   cfg.KeywordWeight,
			Format:    cfg.FormatWeight,
			Structure: cfg.StructureWeight,
			Content:   cfg.ContentWeight,
		}),
		fields:   fields,
		versions: version.NewEngine(st),
	}
}

// Checks exposes the validation check registry.
func (s *Service) Checks() *template.CheckRegistry { return s.checks }

// Store exposes the underlying template store.
func (s *Service) Store() store.Store { return s.store }

// SupportedExtensions lists the document extensions the service can
// fingerprint.
func (s *Service) SupportedExtensions() []string {
	return s.extractor.SupportedExtensions()
}

// LoadCatalog reads every template definition under the configured
// directory into the store. Templates whose active name already exists are
// skipped, so reloading an unchanged directory is idempotent. It returns
// the number of templates stored and any per-file errors.
func (s *Service) LoadCatalog() (int, []error) {
	templates, errs := template.LoadDir(s.cfg.TemplateDirectory, s.checks)

	loaded := 0
	for _, tpl := range templates {
		if err := s.SaveTemplate(tpl); err != nil {
			if errors.Is(err, store.ErrDuplicateName) {
				continue
			}
			errs = append(errs, fmt.Errorf("storing %q: %w", tpl.Name, err))
			continue
		}
		loaded++
	}
	return loaded, errs
}

// SaveTemplate validates and persists the template, creating it when its
// id is unknown and updating it otherwise, and records a version snapshot
// when the content changed.
func (s *Service) SaveTemplate(tpl *template.Template) error {
	if err := tpl.Validate(s.checks); err != nil {
		return fmt.Errorf("invalid template %q: %w", tpl.Name, err)
	}

	_, err := s.store.GetTemplate(tpl.ID)
	switch {
	case err == nil:
		if err := s.store.UpdateTemplate(tpl); err != nil {
			return err
		}
	case errors.Is(err, store.ErrNotFound):
		if err := s.store.CreateTemplate(tpl); err != nil {
			return err
		}
	default:
		return err
	}

	label, err := s.nextVersionLabel(tpl.ID)
	if err != nil {
		return err
	}
	if _, err := s.versions.Record(tpl, label, ""); err != nil {
		return fmt.Errorf("recording version of %q: %w", tpl.Name, err)
	}
	return nil
}

func (s *Service) nextVersionLabel(templateID string) (string, error) {
	existing, err := s.store.ListVersions(templateID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("v%d", len(existing)+1), nil
}

// ListTemplates returns stored templates passing the filter, sorted by
// name.
func (s *Service) ListTemplates(filter store.Filter) ([]*template.Template, error) {
	templates, err := s.store.ListTemplates(filter)
	if err != nil {
		return nil, err
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].Name < templates[j].Name })
	return templates, nil
}

// GetTemplate returns one stored template by id.
func (s *Service) GetTemplate(id string) (*template.Template, error) {
	return s.store.GetTemplate(id)
}

// DeleteTemplate removes a stored template.
func (s *Service) DeleteTemplate(id string) error {
	return s.store.DeleteTemplate(id)
}

// catalog snapshots the active templates and relationships for one
// resolution pass. Every caller takes its own snapshot; resolved templates
// are never cached across calls.
func (s *Service) catalog() (*inherit.Catalog, error) {
	templates, err := s.store.ListTemplates(store.Filter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	relationships, err := s.store.ListRelationships()
	if err != nil {
		return nil, err
	}
	return inherit.NewCatalog(templates, relationships), nil
}

// ResolveTemplate returns the template with all inherited fields merged
// in, parents first.
func (s *Service) ResolveTemplate(id string) (*template.Template, error) {
	catalog, err := s.catalog()
	if err != nil {
		return nil, err
	}
	return inherit.NewResolver(catalog).Resolve(id)
}

// Fingerprint extracts a document fingerprint from the file at path.
func (s *Service) Fingerprint(path string) (*fingerprint.Fingerprint, error) {
	return s.extractor.Extract(path)
}

// MatchDocument fingerprints the document and ranks the active catalog
// against it. Candidates are resolved through their inheritance chain
// before scoring so that inherited trigger keywords and fields count.
func (s *Service) MatchDocument(path string, limit int) ([]match.Match, error) {
	fp, err := s.extractor.Extract(path)
	if err != nil {
		return nil, err
	}
	return s.MatchFingerprint(fp, limit)
}

// MatchFingerprint ranks the active catalog against an already extracted
// fingerprint.
func (s *Service) MatchFingerprint(fp *fingerprint.Fingerprint, limit int) ([]match.Match, error) {
	catalog, err := s.catalog()
	if err != nil {
		return nil, err
	}

	resolver := inherit.NewResolver(catalog)
	candidates := make([]*template.Template, 0, len(catalog.Templates()))
	for _, tpl := range catalog.Templates() {
		resolved, err := resolver.Resolve(tpl.ID)
		if err != nil {
			return nil, fmt.Errorf("resolving %q: %w", tpl.Name, err)
		}
		candidates = append(candidates, resolved)
	}

	matches := s.matcher.Rank(fp, candidates, s.cfg.MinMatchConfidence)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// ExtractFields fingerprints the document and extracts field values using
// the given template. An empty templateID selects the best-matching
// template automatically.
func (s *Service) ExtractFields(path, templateID string) (*extract.Result, error) {
	fp, err := s.extractor.Extract(path)
	if err != nil {
		return nil, err
	}

	if templateID == "" {
		matches, err := s.MatchFingerprint(fp, 1)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no template matched %s above confidence %.2f", path, s.cfg.MinMatchConfidence)
		}
		templateID = matches[0].Template.ID
	}

	resolved, err := s.ResolveTemplate(templateID)
	if err != nil {
		return nil, err
	}
	return s.fields.Extract(resolved, fp)
}

// ExtractBatch extracts fields from several documents with one resolved
// template, fanning out across the configured worker count. Cancellation
// is honored between documents; results keep input order.
func (s *Service) ExtractBatch(ctx context.Context, templateID string, paths []string) ([]extract.BatchItem, error) {
	resolved, err := s.ResolveTemplate(templateID)
	if err != nil {
		return nil, err
	}

	fps := make([]*fingerprint.Fingerprint, len(paths))
	items := make([]extract.BatchItem, len(paths))
	for i, path := range paths {
		fp, err := s.extractor.Extract(path)
		if err != nil {
			items[i] = extract.BatchItem{Source: path, Err: err}
			continue
		}
		fp.SourceTag = path
		fps[i] = fp
	}

	extracted := s.fields.ExtractBatch(ctx, resolved, compactFingerprints(fps), s.cfg.Workers)

	j := 0
	for i := range items {
		if items[i].Err != nil {
			continue
		}
		items[i] = extracted[j]
		j++
	}
	return items, nil
}

func compactFingerprints(fps []*fingerprint.Fingerprint) []*fingerprint.Fingerprint {
	out := fps[:0:0]
	for _, fp := range fps {
		if fp != nil {
			out = append(out, fp)
		}
	}
	return out
}

// CreateRelationship links child to parent after cycle validation.
func (s *Service) CreateRelationship(rel template.Relationship) error {
	return s.store.CreateRelationship(rel)
}

// RemoveRelationship deletes the child-parent link.
func (s *Service) RemoveRelationship(childID, parentID string) error {
	return s.store.RemoveRelationship(childID, parentID)
}

// ListVersions returns the full version history of a template, oldest
// first.
func (s *Service) ListVersions(templateID string) ([]*version.Record, error) {
	return s.store.ListVersions(templateID)
}

// CompareVersions diffs two recorded versions of a template field by
// field.
func (s *Service) CompareVersions(templateID, labelA, labelB string) (*version.Comparison, error) {
	return s.versions.Compare(templateID, labelA, labelB)
}

// RollbackTemplate restores the template content recorded under label. The
// restored snapshot is appended as a new version and becomes the stored
// template; history is never rewritten.
func (s *Service) RollbackTemplate(templateID, label string) (*version.Record, error) {
	rec, err := s.versions.Rollback(templateID, label)
	if err != nil {
		return nil, err
	}
	tpl, err := rec.Template()
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateTemplate(tpl); err != nil {
		return nil, fmt.Errorf("restoring template %s: %w", templateID, err)
	}
	return rec, nil
}

// ExportTemplates writes the templates with the given ids as an export
// document. An empty id list exports the whole catalog.
func (s *Service) ExportTemplates(w io.Writer, ids []string, opts exchange.ExportOptions) error {
	var templates []*template.Template
	if len(ids) == 0 {
		all, err := s.store.ListTemplates(store.Filter{})
		if err != nil {
			return err
		}
		templates = all
	} else {
		for _, id := range ids {
			tpl, err := s.store.GetTemplate(id)
			if err != nil {
				return fmt.Errorf("exporting %s: %w", id, err)
			}
			templates = append(templates, tpl)
		}
	}
	return exchange.Export(w, s.store, templates, opts)
}

// ImportTemplates applies an export document to the store.
func (s *Service) ImportTemplates(r io.Reader, opts exchange.ImportOptions) (*exchange.ImportResult, error) {
	return exchange.Import(r, s.store, s.checks, opts)
}

// GetUsageStats returns the recorded usage counters for a template.
func (s *Service) GetUsageStats(templateID string) (*template.UsageStats, error) {
	return s.store.GetUsageStats(templateID)
}

// Close releases the underlying store.
func (s *Service) Close() error {
	return s.store.Close()
}
