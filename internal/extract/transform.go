package extract

import (
	"fmt"
	"strings"
	"unicode"

	"time"

	"github.com/structa/fieldwise/internal/template"
)

// defaultDateInputFormats are tried when a date transform declares no
// source layouts of its own.
var defaultDateInputFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"02.01.2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	time.RFC3339,
}

// applyTransform normalizes a value in the fixed order trim, case
// conversion, special-character removal, date reformat, so each later step
// sees already-normalized input.
func applyTransform(value string, tr template.Transform) (string, error) {
	if tr.Trim {
		value = strings.TrimSpace(value)
	}

	switch tr.Case {
	case template.CaseUpper:
		value = strings.ToUpper(value)
	case template.CaseLower:
		value = strings.ToLower(value)
	case template.CaseTitle:
		value = titleCase(value)
	}

	if tr.StripSpecial {
		value = strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) || r == '-' || r == '_' || r == '.' {
				return r
			}
			return -1
		}, value)
	}

	if tr.DateFormat != "" {
		reformatted, err := reformatDate(value, tr)
		if err != nil {
			return value, err
		}
		value = reformatted
	}

	return value, nil
}

func reformatDate(value string, tr template.Transform) (string, error) {
	layouts := tr.DateInputFormats
	if len(layouts) == 0 {
		layouts = defaultDateInputFormats
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, strings.TrimSpace(value)); err == nil {
			return t.Format(tr.DateFormat), nil
		}
	}
	return "", fmt.Errorf("value %q does not parse as a date", value)
}

func titleCase(s string) string {
	prevSpace := true
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			prevSpace = true
			return r
		}
		if prevSpace {
			prevSpace = false
			return unicode.ToUpper(r)
		}
		return unicode.ToLower(r)
	}, s)
}

// validateValues applies the field's validation rules to every produced
// value. A validation failure is treated as extraction failure for the
// attempt that produced the values.
func validateValues(f *template.Field, values []string, checks *template.CheckRegistry) error {
	for _, v := range values {
		if v == "" && !f.Validation.AllowEmpty {
			return fmt.Errorf("empty value not allowed")
		}
		if f.Validation.MinLength > 0 && len(v) < f.Validation.MinLength {
			return fmt.Errorf("value %q shorter than %d", v, f.Validation.MinLength)
		}
		if f.Validation.MaxLength > 0 && len(v) > f.Validation.MaxLength {
			return fmt.Errorf("value %q longer than %d", v, f.Validation.MaxLength)
		}
	}

	if f.Validation.Pattern != "" {
		if err := checks.Run(template.Check{Name: template.CheckMatchesRegex, Param: f.Validation.Pattern}, values); err != nil {
			return err
		}
	}

	for _, check := range f.Validation.Checks {
		if err := checks.Run(check, values); err != nil {
			return err
		}
	}
	return nil
}
