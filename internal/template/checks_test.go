package template

import (
	"testing"
)

func TestCheckRegistryBuiltins(t *testing.T) {
	r := NewCheckRegistry()

	for _, name := range []string{
		CheckHasDigit, CheckHasLetter, CheckMatchesRegex,
		CheckNoWhitespace, CheckUniqueValues,
	} {
		if !r.Has(name) {
			t.Errorf("registry is missing built-in check %q", name)
		}
	}
	if r.Has("nonexistent") {
		t.Error("registry should not report unknown checks")
	}
}

func TestCheckRegistryRun(t *testing.T) {
	r := NewCheckRegistry()

	tests := []struct {
		name    string
		check   Check
		values  []string
		wantErr bool
	}{
		{
			name:   "has_digit passes",
			check:  Check{Name: CheckHasDigit},
			values: []string{"INC-2025"},
		},
		{
			name:    "has_digit fails",
			check:   Check{Name: CheckHasDigit},
			values:  []string{"no-digits-here"},
			wantErr: true,
		},
		{
			name:   "has_letter passes",
			check:  Check{Name: CheckHasLetter},
			values: []string{"abc123"},
		},
		{
			name:    "has_letter fails",
			check:   Check{Name: CheckHasLetter},
			values:  []string{"123456"},
			wantErr: true,
		},
		{
			name:   "matches_regex passes",
			check:  Check{Name: CheckMatchesRegex, Param: `^[A-Z]+-\d+$`},
			values: []string{"SEC-1234"},
		},
		{
			name:    "matches_regex fails",
			check:   Check{Name: CheckMatchesRegex, Param: `^[A-Z]+-\d+$`},
			values:  []string{"sec 1234"},
			wantErr: true,
		},
		{
			name:    "matches_regex requires a parameter",
			check:   Check{Name: CheckMatchesRegex},
			values:  []string{"anything"},
			wantErr: true,
		},
		{
			name:    "matches_regex rejects bad pattern",
			check:   Check{Name: CheckMatchesRegex, Param: "[unclosed"},
			values:  []string{"anything"},
			wantErr: true,
		},
		{
			name:   "no_whitespace passes",
			check:  Check{Name: CheckNoWhitespace},
			values: []string{"jdoe42"},
		},
		{
			name:    "no_whitespace fails",
			check:   Check{Name: CheckNoWhitespace},
			values:  []string{"j doe"},
			wantErr: true,
		},
		{
			name:   "unique_values passes",
			check:  Check{Name: CheckUniqueValues},
			values: []string{"a", "b", "c"},
		},
		{
			name:    "unique_values fails on duplicate",
			check:   Check{Name: CheckUniqueValues},
			values:  []string{"a", "b", "a"},
			wantErr: true,
		},
		{
			name:    "unknown check",
			check:   Check{Name: "exotic"},
			values:  []string{"anything"},
			wantErr: true,
		},
		{
			name:    "check applies to every value",
			check:   Check{Name: CheckHasDigit},
			values:  []string{"a1", "bees"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Run(tt.check, tt.values)
			if (err != nil) != tt.wantErr {
				t.Errorf("Run(%q) error = %v, wantErr %v", tt.check.Name, err, tt.wantErr)
			}
		})
	}
}

func TestCheckRegistryRegisterOverride(t *testing.T) {
	r := NewCheckRegistry()
	called := false
	r.Register("custom_marker", func(values []string, param string) error {
		called = true
		return nil
	})

	if err := r.Run(Check{Name: "custom_marker"}, []string{"x"}); err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	if !called {
		t.Error("registered check was not invoked")
	}
}
