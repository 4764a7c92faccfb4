package version

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/structa/fieldwise/internal/template"
)

// FieldChange describes how one field differs between two versions.
type FieldChange struct {
	Name    string   `json:"name"`
	Changes []string `json:"changes"`
}

// Comparison is the field-level difference between two versions of a
// template. Version A is the baseline: "added" fields exist only in B,
// "removed" fields only in A.
type Comparison struct {
	TemplateID   string        `json:"template_id"`
	VersionA     string        `json:"version_a"`
	VersionB     string        `json:"version_b"`
	Added        []string      `json:"added,omitempty"`
	Removed      []string      `json:"removed,omitempty"`
	Modified     []FieldChange `json:"modified,omitempty"`
	AreIdentical bool          `json:"are_identical"`
}

// Compare loads two version snapshots and diffs their field lists by name.
func (e *Engine) Compare(templateID, labelA, labelB string) (*Comparison, error) {
	recA, err := e.history.GetVersion(templateID, labelA)
	if err != nil {
		return nil, err
	}
	recB, err := e.history.GetVersion(templateID, labelB)
	if err != nil {
		return nil, err
	}
	return compareRecords(recA, recB)
}

func compareRecords(recA, recB *Record) (*Comparison, error) {
	tplA, err := recA.Template()
	if err != nil {
		return nil, err
	}
	tplB, err := recB.Template()
	if err != nil {
		return nil, err
	}

	cmp := &Comparison{
		TemplateID: recA.TemplateID,
		VersionA:   recA.Label,
		VersionB:   recB.Label,
	}

	fieldsA := fieldIndex(tplA)
	fieldsB := fieldIndex(tplB)

	for name := range fieldsB {
		if _, ok := fieldsA[name]; !ok {
			cmp.Added = append(cmp.Added, name)
		}
	}
	for name, fa := range fieldsA {
		fb, ok := fieldsB[name]
		if !ok {
			cmp.Removed = append(cmp.Removed, name)
			continue
		}
		if changes := diffField(fa, fb); len(changes) > 0 {
			cmp.Modified = append(cmp.Modified, FieldChange{Name: name, Changes: changes})
		}
	}

	sort.Strings(cmp.Added)
	sort.Strings(cmp.Removed)
	sort.Slice(cmp.Modified, func(i, j int) bool {
		return cmp.Modified[i].Name < cmp.Modified[j].Name
	})

	cmp.AreIdentical = len(cmp.Added) == 0 && len(cmp.Removed) == 0 && len(cmp.Modified) == 0
	return cmp, nil
}

func fieldIndex(tpl *template.Template) map[string]*template.Field {
	index := make(map[string]*template.Field, len(tpl.Fields))
	for i := range tpl.Fields {
		index[tpl.Fields[i].Name] = &tpl.Fields[i]
	}
	return index
}

// diffField compares two same-named fields and describes each difference.
func diffField(a, b *template.Field) []string {
	var changes []string
	if a.Type != b.Type {
		changes = append(changes, fmt.Sprintf("type changed from %s to %s", a.Type, b.Type))
	}
	if a.Required != b.Required {
		changes = append(changes, fmt.Sprintf("required changed from %t to %t", a.Required, b.Required))
	}
	if a.Method != b.Method {
		changes = append(changes, fmt.Sprintf("extraction method changed from %s to %s", a.Method, b.Method))
	}
	if !reflect.DeepEqual(a.Patterns, b.Patterns) {
		changes = append(changes, "text patterns changed")
	}
	if !reflect.DeepEqual(a.Zones, b.Zones) {
		changes = append(changes, "extraction zones changed")
	}
	if !reflect.DeepEqual(a.Keywords, b.Keywords) {
		changes = append(changes, "trigger keywords changed")
	}
	if a.MetadataKey != b.MetadataKey {
		changes = append(changes, "metadata key changed")
	}
	if !reflect.DeepEqual(a.Validation, b.Validation) {
		changes = append(changes, "validation rules changed")
	}
	if !reflect.DeepEqual(a.Transform, b.Transform) {
		changes = append(changes, "transformation changed")
	}
	if !reflect.DeepEqual(a.Fallback, b.Fallback) {
		changes = append(changes, "fallback policy changed")
	}
	if a.DefaultValue != b.DefaultValue {
		changes = append(changes, "default value changed")
	}
	if a.MultiValue != b.MultiValue || a.MultiValueSeparator != b.MultiValueSeparator {
		changes = append(changes, "multi-value configuration changed")
	}
	if a.ConfidenceThreshold != b.ConfidenceThreshold {
		changes = append(changes, fmt.Sprintf("confidence threshold changed from %.2f to %.2f",
			a.ConfidenceThreshold, b.ConfidenceThreshold))
	}
	return changes
}
