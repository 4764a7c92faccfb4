package extract

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/structa/fieldwise/internal/fingerprint"
	"github.com/structa/fieldwise/internal/template"
)

// UsageCallback receives the outcome of every extraction run, keyed by
// template id. The store wires this to its usage-statistics counters.
type UsageCallback func(templateID string, success bool, elapsed time.Duration, confidence float64)

// Engine extracts, validates, and transforms field values from document
// fingerprints according to a resolved template. It holds no per-document
// state; concurrent Extract calls are safe.
type Engine struct {
	checks *template.CheckRegistry
	onRun  UsageCallback
}

// NewEngine creates an extraction engine using the given check registry.
func NewEngine(checks *template.CheckRegistry) *Engine {
	if checks == nil {
		checks = template.NewCheckRegistry()
	}
	return &Engine{checks: checks}
}

// SetUsageCallback registers a post-run callback. Pass nil to disable.
func (e *Engine) SetUsageCallback(fn UsageCallback) {
	e.onRun = fn
}

// Extract runs the resolved template against the fingerprint and returns a
// complete result. A single field's failure never raises; it is recorded
// as a warning (optional field) or error (required field) and the rest of
// the document still extracts. Only a fingerprint with no usable content
// at all elevates to a document-level failure.
func (e *Engine) Extract(tpl *template.Template, fp *fingerprint.Fingerprint) (*Result, error) {
	start := time.Now()

	if fp == nil || !fp.HasContent() {
		return nil, fmt.Errorf("fingerprint has no usable content for template %q", tpl.Name)
	}

	result := &Result{
		TemplateID:   tpl.ID,
		TemplateName: tpl.Name,
	}

	// Ascending processing order; ties keep declaration order.
	fields := make([]*template.Field, len(tpl.Fields))
	for i := range tpl.Fields {
		fields[i] = &tpl.Fields[i]
	}
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Order < fields[j].Order
	})

	for _, f := range fields {
		result.Fields = append(result.Fields, e.extractField(f, fp, result))
	}

	result.OverallConfidence = overallConfidence(result.Fields, tpl)
	result.Elapsed = time.Since(start)

	if e.onRun != nil {
		e.onRun(tpl.ID, result.Succeeded(), result.Elapsed, result.OverallConfidence)
	}
	return result, nil
}

// extractField runs the primary attempt and, if enabled, the fallback
// chain, then falls through to the default value.
func (e *Engine) extractField(f *template.Field, fp *fingerprint.Fingerprint, result *Result) FieldResult {
	attempts := []attempt{primaryAttempt(f)}
	if f.Fallback.Enabled {
		for _, step := range f.Fallback.Steps {
			attempts = append(attempts, fallbackAttempt(step))
		}
	}

	for _, a := range attempts {
		out, ok := a.run(fp, f.MultiValue)
		if !ok {
			continue
		}

		values, err := e.finishValues(f, out.values)
		if err != nil {
			// A value failing transformation or validation is extraction
			// failure for this attempt; the next attempt may still succeed.
			continue
		}

		fr := FieldResult{
			Name:         f.Name,
			Values:       values,
			Value:        strings.Join(values, f.Separator()),
			Method:       a.method,
			UsedFallback: a.fallback,
			Confidence:   fieldConfidence(a, out, hasValidation(f)),
		}
		if fr.Confidence < f.ConfidenceThreshold {
			fr.LowConfidence = true
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"field %q: confidence %.2f below threshold %.2f", f.Name, fr.Confidence, f.ConfidenceThreshold))
		}
		return fr
	}

	if f.DefaultValue != "" {
		fr := FieldResult{
			Name:        f.Name,
			Values:      []string{f.DefaultValue},
			Value:       f.DefaultValue,
			UsedDefault: true,
			Confidence:  confidenceDefaultValue,
		}
		if fr.Confidence < f.ConfidenceThreshold {
			fr.LowConfidence = true
		}
		result.Warnings = append(result.Warnings, fmt.Sprintf("field %q: default value used", f.Name))
		return fr
	}

	if f.Required {
		result.Errors = append(result.Errors, fmt.Sprintf("required field %q could not be extracted", f.Name))
	} else {
		result.Warnings = append(result.Warnings, fmt.Sprintf("field %q could not be extracted", f.Name))
	}
	return FieldResult{Name: f.Name, Missing: true}
}

// finishValues transforms then validates every value of a successful
// attempt, in that order, so validation sees normalized input.
func (e *Engine) finishValues(f *template.Field, raw []string) ([]string, error) {
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		transformed, err := applyTransform(v, f.Transform)
		if err != nil {
			return nil, err
		}
		values = append(values, transformed)
	}
	if err := validateValues(f, values, e.checks); err != nil {
		return nil, err
	}
	return values, nil
}

func hasValidation(f *template.Field) bool {
	v := f.Validation
	return v.MinLength > 0 || v.MaxLength > 0 || v.Pattern != "" || len(v.Checks) > 0
}
