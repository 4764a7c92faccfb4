package template

import (
	"testing"
	"time"
)

func TestSupportsFormat(t *testing.T) {
	tpl := &Template{SupportedFormats: []string{"pdf", "xlsx"}}

	tests := []struct {
		name   string
		format string
		want   bool
	}{
		{
			name:   "exact match",
			format: "pdf",
			want:   true,
		},
		{
			name:   "case insensitive match",
			format: "PDF",
			want:   true,
		},
		{
			name:   "second format",
			format: "xlsx",
			want:   true,
		},
		{
			name:   "unsupported format",
			format: "docx",
			want:   false,
		},
		{
			name:   "empty format",
			format: "",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tpl.SupportsFormat(tt.format); got != tt.want {
				t.Errorf("SupportsFormat(%q) = %v, want %v", tt.format, got, tt.want)
			}
		})
	}
}

func TestHasTag(t *testing.T) {
	tpl := &Template{Tags: []string{"security", "incident"}}

	if !tpl.HasTag("security") {
		t.Error("HasTag() should find exact tag")
	}
	if !tpl.HasTag("INCIDENT") {
		t.Error("HasTag() should match case-insensitively")
	}
	if tpl.HasTag("finance") {
		t.Error("HasTag() should not find absent tag")
	}
}

func TestFieldByName(t *testing.T) {
	tpl := &Template{
		Fields: []Field{
			{Name: "incident_id"},
			{Name: "reported_by"},
		},
	}

	f := tpl.FieldByName("reported_by")
	if f == nil {
		t.Fatal("FieldByName() returned nil for existing field")
	}
	if f.Name != "reported_by" {
		t.Errorf("FieldByName() returned field %q", f.Name)
	}

	if tpl.FieldByName("missing") != nil {
		t.Error("FieldByName() should return nil for unknown field")
	}
}

func TestTemplateClone(t *testing.T) {
	orig := &Template{
		ID:               "t1",
		Name:             "incident report",
		Tags:             []string{"security"},
		SupportedFormats: []string{"pdf"},
		TriggerKeywords:  []string{"incident"},
		Fields: []Field{
			{
				Name:     "incident_id",
				Type:     FieldTypeTicket,
				Method:   MethodPattern,
				Patterns: []string{`INC-\d+`},
				Zones:    []Zone{{Page: 1, X: 10, Y: 10, Width: 100, Height: 20}},
				Validation: ValidationRules{
					Checks: []Check{{Name: CheckHasDigit}},
				},
				Fallback: Fallback{
					Enabled: true,
					Steps:   []FallbackStep{{Method: MethodMetadata, MetadataKey: "title"}},
				},
			},
		},
	}

	clone := orig.Clone()

	// Mutating the clone must leave the original untouched.
	clone.Tags[0] = "changed"
	clone.Fields[0].Patterns[0] = "changed"
	clone.Fields[0].Zones[0].X = 999
	clone.Fields[0].Validation.Checks[0].Name = "changed"
	clone.Fields[0].Fallback.Steps[0].MetadataKey = "changed"

	if orig.Tags[0] != "security" {
		t.Error("Clone() shares the tags slice")
	}
	if orig.Fields[0].Patterns[0] != `INC-\d+` {
		t.Error("Clone() shares the field patterns slice")
	}
	if orig.Fields[0].Zones[0].X != 10 {
		t.Error("Clone() shares the field zones slice")
	}
	if orig.Fields[0].Validation.Checks[0].Name != CheckHasDigit {
		t.Error("Clone() shares the validation checks slice")
	}
	if orig.Fields[0].Fallback.Steps[0].MetadataKey != "title" {
		t.Error("Clone() shares the fallback steps slice")
	}
}

func TestMergeConfigExcludes(t *testing.T) {
	m := MergeConfig{ExcludedFields: []string{"internal_notes"}}

	if !m.Excludes("internal_notes") {
		t.Error("Excludes() should report listed field")
	}
	if m.Excludes("incident_id") {
		t.Error("Excludes() should not report unlisted field")
	}
	if (MergeConfig{}).Excludes("anything") {
		t.Error("empty merge config should exclude nothing")
	}
}

func TestFieldSeparator(t *testing.T) {
	f := &Field{}
	if got := f.Separator(); got != ", " {
		t.Errorf("Separator() default = %q, want %q", got, ", ")
	}

	f.MultiValueSeparator = "; "
	if got := f.Separator(); got != "; " {
		t.Errorf("Separator() = %q, want %q", got, "; ")
	}
}

func TestZoneContains(t *testing.T) {
	z := Zone{Page: 1, X: 10, Y: 20, Width: 100, Height: 50}

	tests := []struct {
		name string
		x, y float64
		want bool
	}{
		{"inside", 50, 40, true},
		{"on left edge", 10, 40, true},
		{"on bottom right corner", 110, 70, true},
		{"left of zone", 5, 40, false},
		{"below zone", 50, 80, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := z.Contains(tt.x, tt.y); got != tt.want {
				t.Errorf("Contains(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestExtractionMethodHelpers(t *testing.T) {
	tests := []struct {
		method       ExtractionMethod
		usesZones    bool
		usesPatterns bool
	}{
		{MethodPattern, false, true},
		{MethodZone, true, false},
		{MethodOCRZone, true, false},
		{MethodMetadata, false, false},
		{MethodHybrid, true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			if got := tt.method.UsesZones(); got != tt.usesZones {
				t.Errorf("UsesZones() = %v, want %v", got, tt.usesZones)
			}
			if got := tt.method.UsesPatterns(); got != tt.usesPatterns {
				t.Errorf("UsesPatterns() = %v, want %v", got, tt.usesPatterns)
			}
		})
	}
}

func TestUsageStatsRecordRun(t *testing.T) {
	var stats UsageStats

	stats.RecordRun(true, 100*time.Millisecond, 0.8)
	stats.RecordRun(false, 300*time.Millisecond, 0.4)

	if stats.TotalRuns != 2 {
		t.Errorf("TotalRuns = %d, want 2", stats.TotalRuns)
	}
	if stats.SuccessfulRuns != 1 {
		t.Errorf("SuccessfulRuns = %d, want 1", stats.SuccessfulRuns)
	}
	if stats.AvgRunMillis != 200 {
		t.Errorf("AvgRunMillis = %v, want 200", stats.AvgRunMillis)
	}
	if diff := stats.AccuracyEstimate - 0.6; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("AccuracyEstimate = %v, want 0.6", stats.AccuracyEstimate)
	}
	if stats.LastUsedAt.IsZero() {
		t.Error("LastUsedAt should be set after a run")
	}
}
