package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/structa/fieldwise/internal/inherit"
	"github.com/structa/fieldwise/internal/template"
	"github.com/structa/fieldwise/internal/version"
)

// SQLiteStore persists templates, relationships, versions, and usage
// statistics in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and bootstraps the
// schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS templates (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT,
			is_active INTEGER NOT NULL DEFAULT 1,
			payload TEXT NOT NULL
		)`,
		// name+active must stay unique so matching is never ambiguous.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_templates_active_name
			ON templates(name) WHERE is_active = 1`,
		`CREATE TABLE IF NOT EXISTS relationships (
			child_id TEXT NOT NULL REFERENCES templates(id),
			parent_id TEXT NOT NULL REFERENCES templates(id),
			merge TEXT,
			PRIMARY KEY (child_id, parent_id)
		)`,
		`CREATE TABLE IF NOT EXISTS versions (
			id TEXT PRIMARY KEY,
			template_id TEXT NOT NULL,
			label TEXT NOT NULL,
			snapshot BLOB NOT NULL,
			hash TEXT NOT NULL,
			description TEXT,
			author TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_versions_template ON versions(template_id)`,
		`CREATE TABLE IF NOT EXISTS usage_stats (
			template_id TEXT PRIMARY KEY,
			total_runs INTEGER NOT NULL DEFAULT 0,
			successful_runs INTEGER NOT NULL DEFAULT 0,
			avg_run_millis REAL NOT NULL DEFAULT 0,
			accuracy_estimate REAL NOT NULL DEFAULT 0,
			last_used_at TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateTemplate inserts a new template.
func (s *SQLiteStore) CreateTemplate(tpl *template.Template) error {
	payload, err := json.Marshal(tpl)
	if err != nil {
		return fmt.Errorf("serializing template %q: %w", tpl.Name, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO templates (id, name, category, is_active, payload) VALUES (?, ?, ?, ?, ?)`,
		tpl.ID, tpl.Name, tpl.Category, boolToInt(tpl.IsActive), string(payload),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", ErrDuplicateName, tpl.Name)
		}
		return fmt.Errorf("inserting template %q: %w", tpl.Name, err)
	}
	return nil
}

// GetTemplate loads a template by id.
func (s *SQLiteStore) GetTemplate(id string) (*template.Template, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM templates WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: template %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading template %s: %w", id, err)
	}
	return decodeTemplate(payload)
}

// UpdateTemplate overwrites an existing template.
func (s *SQLiteStore) UpdateTemplate(tpl *template.Template) error {
	payload, err := json.Marshal(tpl)
	if err != nil {
		return fmt.Errorf("serializing template %q: %w", tpl.Name, err)
	}
	res, err := s.db.Exec(
		`UPDATE templates SET name = ?, category = ?, is_active = ?, payload = ? WHERE id = ?`,
		tpl.Name, tpl.Category, boolToInt(tpl.IsActive), string(payload), tpl.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", ErrDuplicateName, tpl.Name)
		}
		return fmt.Errorf("updating template %s: %w", tpl.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: template %s", ErrNotFound, tpl.ID)
	}
	return nil
}

// DeleteTemplate removes a template and its relationships. Version history
// is kept; it is append-only.
func (s *SQLiteStore) DeleteTemplate(id string) error {
	if _, err := s.db.Exec(`DELETE FROM relationships WHERE child_id = ? OR parent_id = ?`, id, id); err != nil {
		return fmt.Errorf("removing relationships of %s: %w", id, err)
	}
	res, err := s.db.Exec(`DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting template %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: template %s", ErrNotFound, id)
	}
	return nil
}

// ListTemplates returns templates passing the filter, name ascending.
func (s *SQLiteStore) ListTemplates(filter Filter) ([]*template.Template, error) {
	rows, err := s.db.Query(`SELECT payload FROM templates ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	defer rows.Close()

	var templates []*template.Template
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning template row: %w", err)
		}
		tpl, err := decodeTemplate(payload)
		if err != nil {
			return nil, err
		}
		if filter.Matches(tpl) {
			templates = append(templates, tpl)
		}
	}
	return templates, rows.Err()
}

// ListRelationships returns all inheritance edges.
func (s *SQLiteStore) ListRelationships() ([]template.Relationship, error) {
	rows, err := s.db.Query(`SELECT child_id, parent_id, merge FROM relationships`)
	if err != nil {
		return nil, fmt.Errorf("listing relationships: %w", err)
	}
	defer rows.Close()

	var rels []template.Relationship
	for rows.Next() {
		var rel template.Relationship
		var merge sql.NullString
		if err := rows.Scan(&rel.ChildID, &rel.ParentID, &merge); err != nil {
			return nil, fmt.Errorf("scanning relationship row: %w", err)
		}
		if merge.Valid && merge.String != "" {
			if err := json.Unmarshal([]byte(merge.String), &rel.Merge); err != nil {
				return nil, fmt.Errorf("parsing merge config: %w", err)
			}
		}
		rels = append(rels, rel)
	}
	return rels, rows.Err()
}

// CreateRelationship persists a child-to-parent edge after confirming it
// keeps the graph acyclic. A rejected edge is never written.
func (s *SQLiteStore) CreateRelationship(rel template.Relationship) error {
	templates, err := s.ListTemplates(Filter{})
	if err != nil {
		return err
	}
	existing, err := s.ListRelationships()
	if err != nil {
		return err
	}
	resolver := inherit.NewResolver(inherit.NewCatalog(templates, existing))
	if err := resolver.ValidateRelationship(rel.ChildID, rel.ParentID); err != nil {
		return err
	}

	merge, err := json.Marshal(rel.Merge)
	if err != nil {
		return fmt.Errorf("serializing merge config: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO relationships (child_id, parent_id, merge) VALUES (?, ?, ?)`,
		rel.ChildID, rel.ParentID, string(merge),
	)
	if err != nil {
		return fmt.Errorf("inserting relationship %s -> %s: %w", rel.ChildID, rel.ParentID, err)
	}
	return nil
}

// RemoveRelationship deletes an edge.
func (s *SQLiteStore) RemoveRelationship(childID, parentID string) error {
	res, err := s.db.Exec(`DELETE FROM relationships WHERE child_id = ? AND parent_id = ?`, childID, parentID)
	if err != nil {
		return fmt.Errorf("removing relationship: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: relationship %s -> %s", ErrNotFound, childID, parentID)
	}
	return nil
}

// AppendVersion stores a version record. Records are never updated or
// deleted.
func (s *SQLiteStore) AppendVersion(rec *version.Record) error {
	_, err := s.db.Exec(
		`INSERT INTO versions (id, template_id, label, snapshot, hash, description, author, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.TemplateID, rec.Label, rec.Snapshot, rec.Hash,
		rec.Description, rec.Author, rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("appending version %s of %s: %w", rec.Label, rec.TemplateID, err)
	}
	return nil
}

// ListVersions returns a template's versions oldest first.
func (s *SQLiteStore) ListVersions(templateID string) ([]*version.Record, error) {
	rows, err := s.db.Query(
		`SELECT id, template_id, label, snapshot, hash, description, author, created_at
		 FROM versions WHERE template_id = ? ORDER BY created_at ASC, rowid ASC`, templateID)
	if err != nil {
		return nil, fmt.Errorf("listing versions of %s: %w", templateID, err)
	}
	defer rows.Close()

	var records []*version.Record
	for rows.Next() {
		rec, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetVersion loads one version by template id and label.
func (s *SQLiteStore) GetVersion(templateID, label string) (*version.Record, error) {
	rows, err := s.db.Query(
		`SELECT id, template_id, label, snapshot, hash, description, author, created_at
		 FROM versions WHERE template_id = ? AND label = ? LIMIT 1`, templateID, label)
	if err != nil {
		return nil, fmt.Errorf("loading version %s of %s: %w", label, templateID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("%w: version %s of template %s", ErrNotFound, label, templateID)
	}
	return scanVersion(rows)
}

// GetUsageStats returns a template's usage counters, zero-valued when the
// template has never run.
func (s *SQLiteStore) GetUsageStats(templateID string) (*template.UsageStats, error) {
	stats := &template.UsageStats{TemplateID: templateID}
	var lastUsed sql.NullString
	err := s.db.QueryRow(
		`SELECT total_runs, successful_runs, avg_run_millis, accuracy_estimate, last_used_at
		 FROM usage_stats WHERE template_id = ?`, templateID,
	).Scan(&stats.TotalRuns, &stats.SuccessfulRuns, &stats.AvgRunMillis, &stats.AccuracyEstimate, &lastUsed)
	if err == sql.ErrNoRows {
		return stats, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading usage stats of %s: %w", templateID, err)
	}
	if lastUsed.Valid {
		if t, err := time.Parse(time.RFC3339Nano, lastUsed.String); err == nil {
			stats.LastUsedAt = t
		}
	}
	return stats, nil
}

// RecordUsage folds one extraction run into the template's counters.
func (s *SQLiteStore) RecordUsage(templateID string, success bool, elapsed time.Duration, confidence float64) error {
	stats, err := s.GetUsageStats(templateID)
	if err != nil {
		return err
	}
	stats.RecordRun(success, elapsed, confidence)

	_, err = s.db.Exec(
		`INSERT INTO usage_stats (template_id, total_runs, successful_runs, avg_run_millis, accuracy_estimate, last_used_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(template_id) DO UPDATE SET
			total_runs = excluded.total_runs,
			successful_runs = excluded.successful_runs,
			avg_run_millis = excluded.avg_run_millis,
			accuracy_estimate = excluded.accuracy_estimate,
			last_used_at = excluded.last_used_at`,
		templateID, stats.TotalRuns, stats.SuccessfulRuns, stats.AvgRunMillis,
		stats.AccuracyEstimate, stats.LastUsedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording usage of %s: %w", templateID, err)
	}
	return nil
}

func scanVersion(rows *sql.Rows) (*version.Record, error) {
	var rec version.Record
	var createdAt string
	var description, author sql.NullString
	if err := rows.Scan(&rec.ID, &rec.TemplateID, &rec.Label, &rec.Snapshot, &rec.Hash,
		&description, &author, &createdAt); err != nil {
		return nil, fmt.Errorf("scanning version row: %w", err)
	}
	rec.Description = description.String
	rec.Author = author.String
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		rec.CreatedAt = t
	}
	return &rec, nil
}

func decodeTemplate(payload string) (*template.Template, error) {
	var tpl template.Template
	if err := json.Unmarshal([]byte(payload), &tpl); err != nil {
		return nil, fmt.Errorf("parsing stored template: %w", err)
	}
	return &tpl, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
