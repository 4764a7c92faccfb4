package extract

import (
	"time"

	"github.com/structa/fieldwise/internal/template"
)

// FieldResult is the outcome of extracting one field.
type FieldResult struct {
	Name   string   `json:"name"`
	Values []string `json:"values,omitempty"`
	// Value is the joined form: the single value, or multi-values joined
	// with the field's separator in encounter order.
	Value      string                    `json:"value"`
	Confidence float64                   `json:"confidence"`
	Method     template.ExtractionMethod `json:"method,omitempty"`
	// UsedFallback is set when a fallback step produced the value rather
	// than the primary method.
	UsedFallback bool `json:"used_fallback,omitempty"`
	// UsedDefault is set when every attempt failed and the field's default
	// value was taken as a low-confidence success.
	UsedDefault bool `json:"used_default,omitempty"`
	// LowConfidence flags a value below the field's own threshold. The
	// value is kept so callers can decide whether to accept it.
	LowConfidence bool `json:"low_confidence,omitempty"`
	// Missing is set when no value could be produced at all.
	Missing bool `json:"missing,omitempty"`
}

// Result is the complete outcome of extracting one document against one
// resolved template. The engine always returns a complete result; field
// failures accumulate in Warnings and Errors instead of aborting.
type Result struct {
	TemplateID        string        `json:"template_id"`
	TemplateName      string        `json:"template_name"`
	Fields            []FieldResult `json:"fields"`
	OverallConfidence float64       `json:"overall_confidence"`
	Warnings          []string      `json:"warnings,omitempty"`
	Errors            []string      `json:"errors,omitempty"`
	Elapsed           time.Duration `json:"elapsed"`
}

// Field returns the result for the named field, or nil.
func (r *Result) Field(name string) *FieldResult {
	for i := range r.Fields {
		if r.Fields[i].Name == name {
			return &r.Fields[i]
		}
	}
	return nil
}

// Succeeded reports whether the run completed without field errors.
// Warnings (missing optional fields, low confidence) do not count against
// success.
func (r *Result) Succeeded() bool {
	return len(r.Errors) == 0
}
