package template

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// CheckFunc is a named validation predicate. It receives every value the
// field produced (single-value fields pass a one-element slice) and the
// check's parameter, and returns a descriptive error on failure.
type CheckFunc func(values []string, param string) error

// CheckRegistry holds the closed set of named validation checks. The
// registry is constructed explicitly so tests can supply isolated fixtures
// instead of mutating shared process state.
type CheckRegistry struct {
	checks map[string]CheckFunc
}

// Built-in check names.
const (
	CheckHasDigit     = "has_digit"
	CheckHasLetter    = "has_letter"
	CheckMatchesRegex = "matches_regex"
	CheckNoWhitespace = "no_whitespace"
	CheckUniqueValues = "unique_values"
)

// NewCheckRegistry returns a registry populated with the built-in checks.
func NewCheckRegistry() *CheckRegistry {
	r := &CheckRegistry{checks: make(map[string]CheckFunc)}
	r.Register(CheckHasDigit, checkHasDigit)
	r.Register(CheckHasLetter, checkHasLetter)
	r.Register(CheckMatchesRegex, checkMatchesRegex)
	r.Register(CheckNoWhitespace, checkNoWhitespace)
	r.Register(CheckUniqueValues, checkUniqueValues)
	return r
}

// Register adds or replaces a named check.
func (r *CheckRegistry) Register(name string, fn CheckFunc) {
	r.checks[name] = fn
}

// Has reports whether a check with the given name is registered.
func (r *CheckRegistry) Has(name string) bool {
	_, ok := r.checks[name]
	return ok
}

// Run executes the named check against the extracted values.
func (r *CheckRegistry) Run(check Check, values []string) error {
	fn, ok := r.checks[check.Name]
	if !ok {
		return fmt.Errorf("unknown validation check %q", check.Name)
	}
	return fn(values, check.Param)
}

func checkHasDigit(values []string, _ string) error {
	for _, v := range values {
		if !strings.ContainsFunc(v, unicode.IsDigit) {
			return fmt.Errorf("value %q contains no digit", v)
		}
	}
	return nil
}

func checkHasLetter(values []string, _ string) error {
	for _, v := range values {
		if !strings.ContainsFunc(v, unicode.IsLetter) {
			return fmt.Errorf("value %q contains no letter", v)
		}
	}
	return nil
}

func checkMatchesRegex(values []string, param string) error {
	if param == "" {
		return fmt.Errorf("matches_regex requires a pattern parameter")
	}
	re, err := regexp.Compile(param)
	if err != nil {
		return fmt.Errorf("matches_regex pattern invalid: %w", err)
	}
	for _, v := range values {
		if !re.MatchString(v) {
			return fmt.Errorf("value %q does not match %q", v, param)
		}
	}
	return nil
}

func checkNoWhitespace(values []string, _ string) error {
	for _, v := range values {
		if strings.ContainsFunc(v, unicode.IsSpace) {
			return fmt.Errorf("value %q contains whitespace", v)
		}
	}
	return nil
}

func checkUniqueValues(values []string, _ string) error {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if seen[v] {
			return fmt.Errorf("duplicate value %q", v)
		}
		seen[v] = true
	}
	return nil
}
