package template

import (
	"fmt"
	"regexp"
	"strings"
)

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Validate checks a template for structural problems. Malformed templates
// are rejected here, at create/update time, so they never reach matching
// or extraction. The check registry is needed to confirm that every named
// validation check actually exists.
func (t *Template) Validate(checks *CheckRegistry) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("template name cannot be empty")
	}
	if len(t.SupportedFormats) == 0 {
		return fmt.Errorf("template %q must declare at least one supported format", t.Name)
	}
	if len(t.Fields) == 0 {
		return fmt.Errorf("template %q has no fields", t.Name)
	}

	seen := make(map[string]bool, len(t.Fields))
	for i := range t.Fields {
		f := &t.Fields[i]
		if err := f.validate(checks); err != nil {
			return fmt.Errorf("template %q: %w", t.Name, err)
		}
		if seen[f.Name] {
			return fmt.Errorf("template %q: duplicate field name %q", t.Name, f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}

func (f *Field) validate(checks *CheckRegistry) error {
	if f.Name == "" {
		return fmt.Errorf("field name cannot be empty")
	}
	if !fieldNamePattern.MatchString(f.Name) {
		return fmt.Errorf("field %q: name must be identifier-like", f.Name)
	}
	if !f.Type.IsValid() {
		return fmt.Errorf("field %q: unknown field type %q", f.Name, f.Type)
	}
	if !f.Method.IsValid() {
		return fmt.Errorf("field %q: unknown extraction method %q", f.Name, f.Method)
	}
	if !f.HasTrigger() {
		return fmt.Errorf("field %q: must declare a zone, pattern, keyword, or metadata key", f.Name)
	}
	if f.ConfidenceThreshold < 0 || f.ConfidenceThreshold > 1 {
		return fmt.Errorf("field %q: confidence threshold %.2f outside [0,1]", f.Name, f.ConfidenceThreshold)
	}

	for _, p := range f.Patterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("field %q: invalid pattern %q: %w", f.Name, p, err)
		}
	}
	if f.Validation.Pattern != "" {
		if _, err := regexp.Compile(f.Validation.Pattern); err != nil {
			return fmt.Errorf("field %q: invalid validation pattern: %w", f.Name, err)
		}
	}
	if f.Validation.MinLength < 0 || (f.Validation.MaxLength > 0 && f.Validation.MaxLength < f.Validation.MinLength) {
		return fmt.Errorf("field %q: invalid length bounds [%d, %d]", f.Name, f.Validation.MinLength, f.Validation.MaxLength)
	}
	for _, c := range f.Validation.Checks {
		if checks != nil && !checks.Has(c.Name) {
			return fmt.Errorf("field %q: unknown validation check %q", f.Name, c.Name)
		}
	}

	for _, z := range append(append([]Zone(nil), f.Zones...), fallbackZones(f.Fallback)...) {
		if z.Page < 1 {
			return fmt.Errorf("field %q: zone page must be >= 1", f.Name)
		}
		if z.Width <= 0 || z.Height <= 0 {
			return fmt.Errorf("field %q: zone dimensions must be positive", f.Name)
		}
	}

	for _, step := range f.Fallback.Steps {
		if !step.Method.IsValid() {
			return fmt.Errorf("field %q: fallback step has unknown method %q", f.Name, step.Method)
		}
		for _, p := range step.Patterns {
			if _, err := regexp.Compile(p); err != nil {
				return fmt.Errorf("field %q: invalid fallback pattern %q: %w", f.Name, p, err)
			}
		}
	}
	return nil
}

func fallbackZones(fb Fallback) []Zone {
	var zones []Zone
	for _, step := range fb.Steps {
		zones = append(zones, step.Zones...)
	}
	return zones
}
