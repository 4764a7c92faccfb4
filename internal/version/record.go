package version

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/structa/fieldwise/internal/template"
)

// Record is one immutable template version: an append-only snapshot of the
// template's serialized form. History is never rewritten.
type Record struct {
	ID          string    `json:"id"`
	TemplateID  string    `json:"template_id"`
	Label       string    `json:"label"`
	Snapshot    []byte    `json:"snapshot"`
	Hash        string    `json:"hash"`
	Description string    `json:"description,omitempty"`
	Author      string    `json:"author,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewRecord snapshots a template into a version record.
func NewRecord(tpl *template.Template, label, description string) (*Record, error) {
	snapshot, err := json.Marshal(tpl)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize template %q: %w", tpl.Name, err)
	}
	sum := sha256.Sum256(snapshot)
	return &Record{
		ID:          uuid.NewString(),
		TemplateID:  tpl.ID,
		Label:       label,
		Snapshot:    snapshot,
		Hash:        hex.EncodeToString(sum[:]),
		Description: description,
		Author:      tpl.Author,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Template deserializes the snapshot back into a template value.
func (r *Record) Template() (*template.Template, error) {
	var tpl template.Template
	if err := json.Unmarshal(r.Snapshot, &tpl); err != nil {
		return nil, fmt.Errorf("failed to parse version snapshot %s: %w", r.ID, err)
	}
	return &tpl, nil
}

// History is the narrow slice of the template store the versioning engine
// needs.
type History interface {
	AppendVersion(rec *Record) error
	ListVersions(templateID string) ([]*Record, error)
	GetVersion(templateID, label string) (*Record, error)
}

// Engine records template versions and produces field-level differences
// between any two of them.
type Engine struct {
	history History
}

// NewEngine creates a versioning engine over the given history store.
func NewEngine(history History) *Engine {
	return &Engine{history: history}
}

// Record appends a new version of the template when its serialized form
// changed since the latest recorded version. It returns the new record, or
// nil when nothing changed.
func (e *Engine) Record(tpl *template.Template, label, description string) (*Record, error) {
	rec, err := NewRecord(tpl, label, description)
	if err != nil {
		return nil, err
	}

	existing, err := e.history.ListVersions(tpl.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 && existing[len(existing)-1].Hash == rec.Hash {
		return nil, nil
	}

	if err := e.history.AppendVersion(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Rollback appends a new version whose content equals the version with the
// given label. History is append-only: rolling back never rewrites or
// removes records, so the audit trail stays complete.
func (e *Engine) Rollback(templateID, label string) (*Record, error) {
	prior, err := e.history.GetVersion(templateID, label)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		ID:          uuid.NewString(),
		TemplateID:  prior.TemplateID,
		Label:       fmt.Sprintf("%s-rollback-%d", prior.Label, time.Now().UTC().Unix()),
		Snapshot:    append([]byte(nil), prior.Snapshot...),
		Hash:        prior.Hash,
		Description: fmt.Sprintf("rollback to version %s", prior.Label),
		Author:      prior.Author,
		CreatedAt:   time.Now().UTC(),
	}
	if err := e.history.AppendVersion(rec); err != nil {
		return nil, err
	}
	return rec, nil
}
