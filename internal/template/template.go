package template

import (
	"strings"
	"time"
)

// Template describes how field data is extracted from one family of documents.
type Template struct {
	ID               string    `json:"id" yaml:"id"`
	Name             string    `json:"name" yaml:"name"`
	Category         string    `json:"category,omitempty" yaml:"category,omitempty"`
	Tags             []string  `json:"tags,omitempty" yaml:"tags,omitempty"`
	Fields           []Field   `json:"fields" yaml:"fields"`
	SupportedFormats []string  `json:"supported_formats" yaml:"supported_formats"`
	IsActive         bool      `json:"is_active" yaml:"is_active"`
	Version          string    `json:"version,omitempty" yaml:"version,omitempty"`
	ParentID         string    `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	TriggerKeywords  []string  `json:"trigger_keywords,omitempty" yaml:"trigger_keywords,omitempty"`
	PageRange        PageRange `json:"page_range,omitempty" yaml:"page_range,omitempty"`
	Author           string    `json:"author,omitempty" yaml:"author,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt        time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// PageRange is the page-count band a template considers normal for its
// documents. Zero values mean no expectation.
type PageRange struct {
	Min int `json:"min,omitempty" yaml:"min,omitempty"`
	Max int `json:"max,omitempty" yaml:"max,omitempty"`
}

// IsZero reports whether no page expectation was declared.
func (p PageRange) IsZero() bool {
	return p.Min == 0 && p.Max == 0
}

// SupportsFormat reports whether the template accepts documents of the
// given format. Comparison is case-insensitive on the format token.
func (t *Template) SupportsFormat(format string) bool {
	for _, f := range t.SupportedFormats {
		if strings.EqualFold(f, format) {
			return true
		}
	}
	return false
}

// FieldByName returns the field with the given name, or nil.
func (t *Template) FieldByName(name string) *Field {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i]
		}
	}
	return nil
}

// HasTag reports whether the template carries the given tag.
func (t *Template) HasTag(tag string) bool {
	for _, tg := range t.Tags {
		if strings.EqualFold(tg, tag) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the template. Resolution and import paths
// mutate field lists, so shared backing arrays are never handed out.
func (t *Template) Clone() *Template {
	out := *t
	out.Tags = append([]string(nil), t.Tags...)
	out.SupportedFormats = append([]string(nil), t.SupportedFormats...)
	out.TriggerKeywords = append([]string(nil), t.TriggerKeywords...)
	out.Fields = make([]Field, len(t.Fields))
	for i := range t.Fields {
		out.Fields[i] = *t.Fields[i].Clone()
	}
	return &out
}

// Relationship is a child-to-parent inheritance edge with its merge policy.
type Relationship struct {
	ChildID  string      `json:"child_id" yaml:"child_id"`
	ParentID string      `json:"parent_id" yaml:"parent_id"`
	Merge    MergeConfig `json:"merge,omitempty" yaml:"merge,omitempty"`
}

// MergeConfig controls which inherited fields survive resolution.
type MergeConfig struct {
	// ExcludedFields lists parent field names the child refuses to inherit.
	ExcludedFields []string `json:"excluded_fields,omitempty" yaml:"excluded_fields,omitempty"`
}

// Excludes reports whether the merge policy drops the named parent field.
func (m MergeConfig) Excludes(fieldName string) bool {
	for _, name := range m.ExcludedFields {
		if name == fieldName {
			return true
		}
	}
	return false
}

// UsageStats tracks how a template has performed across extraction runs.
// Only the extraction engine's post-run callback mutates these counters.
type UsageStats struct {
	TemplateID       string    `json:"template_id"`
	TotalRuns        int64     `json:"total_runs"`
	SuccessfulRuns   int64     `json:"successful_runs"`
	AvgRunMillis     float64   `json:"avg_run_millis"`
	AccuracyEstimate float64   `json:"accuracy_estimate"`
	LastUsedAt       time.Time `json:"last_used_at,omitempty"`
}

// RecordRun folds one extraction run into the rolling counters.
func (u *UsageStats) RecordRun(success bool, elapsed time.Duration, confidence float64) {
	elapsedMillis := float64(elapsed.Milliseconds())
	total := float64(u.TotalRuns)
	u.AvgRunMillis = (u.AvgRunMillis*total + elapsedMillis) / (total + 1)
	u.AccuracyEstimate = (u.AccuracyEstimate*total + confidence) / (total + 1)
	u.TotalRuns++
	if success {
		u.SuccessfulRuns++
	}
	u.LastUsedAt = time.Now().UTC()
}
