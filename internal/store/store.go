package store

import (
	"errors"
	"time"

	"github.com/structa/fieldwise/internal/template"
	"github.com/structa/fieldwise/internal/version"
)

var (
	// ErrNotFound means the requested template, version, or relationship
	// does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateName means an active template with the same name already
	// exists; two active templates sharing a name would make matching
	// ambiguous.
	ErrDuplicateName = errors.New("duplicate active template name")
)

// Filter narrows template listings. Zero values mean no constraint.
type Filter struct {
	Category   string
	Tag        string
	Format     string
	ActiveOnly bool
}

// Matches reports whether a template passes the filter.
func (f Filter) Matches(tpl *template.Template) bool {
	if f.ActiveOnly && !tpl.IsActive {
		return false
	}
	if f.Category != "" && tpl.Category != f.Category {
		return false
	}
	if f.Tag != "" && !tpl.HasTag(f.Tag) {
		return false
	}
	if f.Format != "" && !tpl.SupportsFormat(f.Format) {
		return false
	}
	return true
}

// Store is the persistence contract for templates, inheritance
// relationships, version history, and usage statistics.
type Store interface {
	CreateTemplate(tpl *template.Template) error
	GetTemplate(id string) (*template.Template, error)
	UpdateTemplate(tpl *template.Template) error
	DeleteTemplate(id string) error
	ListTemplates(filter Filter) ([]*template.Template, error)

	ListRelationships() ([]template.Relationship, error)
	// CreateRelationship validates that the new edge keeps the graph
	// acyclic before persisting; a rejected edge leaves the graph
	// unchanged.
	CreateRelationship(rel template.Relationship) error
	RemoveRelationship(childID, parentID string) error

	AppendVersion(rec *version.Record) error
	ListVersions(templateID string) ([]*version.Record, error)
	GetVersion(templateID, label string) (*version.Record, error)

	GetUsageStats(templateID string) (*template.UsageStats, error)
	RecordUsage(templateID string, success bool, elapsed time.Duration, confidence float64) error

	Close() error
}
