package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/structa/fieldwise/internal/inherit"
	"github.com/structa/fieldwise/internal/template"
	"github.com/structa/fieldwise/internal/version"
)

// MemoryStore is an in-memory Store, used by tests and as a scratch
// catalog when no database path is configured.
type MemoryStore struct {
	mu            sync.RWMutex
	templates     map[string]*template.Template
	relationships []template.Relationship
	versions      map[string][]*version.Record
	stats         map[string]*template.UsageStats
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		templates: make(map[string]*template.Template),
		versions:  make(map[string][]*version.Record),
		stats:     make(map[string]*template.UsageStats),
	}
}

// CreateTemplate inserts a new template.
func (s *MemoryStore) CreateTemplate(tpl *template.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tpl.IsActive {
		for _, existing := range s.templates {
			if existing.IsActive && existing.Name == tpl.Name {
				return fmt.Errorf("%w: %q", ErrDuplicateName, tpl.Name)
			}
		}
	}
	s.templates[tpl.ID] = tpl.Clone()
	return nil
}

// GetTemplate loads a template by id.
func (s *MemoryStore) GetTemplate(id string) (*template.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tpl, ok := s.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: template %s", ErrNotFound, id)
	}
	return tpl.Clone(), nil
}

// UpdateTemplate overwrites an existing template.
func (s *MemoryStore) UpdateTemplate(tpl *template.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[tpl.ID]; !ok {
		return fmt.Errorf("%w: template %s", ErrNotFound, tpl.ID)
	}
	if tpl.IsActive {
		for id, existing := range s.templates {
			if id != tpl.ID && existing.IsActive && existing.Name == tpl.Name {
				return fmt.Errorf("%w: %q", ErrDuplicateName, tpl.Name)
			}
		}
	}
	s.templates[tpl.ID] = tpl.Clone()
	return nil
}

// DeleteTemplate removes a template and its relationships.
func (s *MemoryStore) DeleteTemplate(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[id]; !ok {
		return fmt.Errorf("%w: template %s", ErrNotFound, id)
	}
	delete(s.templates, id)
	kept := s.relationships[:0]
	for _, rel := range s.relationships {
		if rel.ChildID != id && rel.ParentID != id {
			kept = append(kept, rel)
		}
	}
	s.relationships = kept
	return nil
}

// ListTemplates returns templates passing the filter, name ascending.
func (s *MemoryStore) ListTemplates(filter Filter) ([]*template.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*template.Template
	for _, tpl := range s.templates {
		if filter.Matches(tpl) {
			out = append(out, tpl.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListRelationships returns all inheritance edges.
func (s *MemoryStore) ListRelationships() ([]template.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]template.Relationship(nil), s.relationships...), nil
}

// CreateRelationship persists an edge after the cycle check passes.
func (s *MemoryStore) CreateRelationship(rel template.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	templates := make([]*template.Template, 0, len(s.templates))
	for _, tpl := range s.templates {
		templates = append(templates, tpl)
	}
	resolver := inherit.NewResolver(inherit.NewCatalog(templates, s.relationships))
	if err := resolver.ValidateRelationship(rel.ChildID, rel.ParentID); err != nil {
		return err
	}

	s.relationships = append(s.relationships, rel)
	return nil
}

// RemoveRelationship deletes an edge.
func (s *MemoryStore) RemoveRelationship(childID, parentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rel := range s.relationships {
		if rel.ChildID == childID && rel.ParentID == parentID {
			s.relationships = append(s.relationships[:i], s.relationships[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: relationship %s -> %s", ErrNotFound, childID, parentID)
}

// AppendVersion stores a version record.
func (s *MemoryStore) AppendVersion(rec *version.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions[rec.TemplateID] = append(s.versions[rec.TemplateID], rec)
	return nil
}

// ListVersions returns a template's versions oldest first.
func (s *MemoryStore) ListVersions(templateID string) ([]*version.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*version.Record(nil), s.versions[templateID]...), nil
}

// GetVersion loads one version by template id and label.
func (s *MemoryStore) GetVersion(templateID, label string) (*version.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.versions[templateID] {
		if rec.Label == label {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("%w: version %s of template %s", ErrNotFound, label, templateID)
}

// GetUsageStats returns a template's usage counters.
func (s *MemoryStore) GetUsageStats(templateID string) (*template.UsageStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if stats, ok := s.stats[templateID]; ok {
		copied := *stats
		return &copied, nil
	}
	return &template.UsageStats{TemplateID: templateID}, nil
}

// RecordUsage folds one extraction run into the counters.
func (s *MemoryStore) RecordUsage(templateID string, success bool, elapsed time.Duration, confidence float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats, ok := s.stats[templateID]
	if !ok {
		stats = &template.UsageStats{TemplateID: templateID}
		s.stats[templateID] = stats
	}
	stats.RecordRun(success, elapsed, confidence)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
