package template

// FieldType categorizes the value a field is expected to hold.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeUsername FieldType = "username"
	FieldTypeTicket   FieldType = "ticket_number"
	FieldTypeDate     FieldType = "date"
	FieldTypeEmail    FieldType = "email"
	FieldTypeNumber   FieldType = "number"
	FieldTypeBoolean  FieldType = "boolean"
	FieldTypeCategory FieldType = "category"
	FieldTypeCustom   FieldType = "custom"
)

// IsValid checks if the field type is a known variant.
func (ft FieldType) IsValid() bool {
	switch ft {
	case FieldTypeText, FieldTypeUsername, FieldTypeTicket, FieldTypeDate,
		FieldTypeEmail, FieldTypeNumber, FieldTypeBoolean, FieldTypeCategory,
		FieldTypeCustom:
		return true
	default:
		return false
	}
}

// ExtractionMethod selects the strategy used to pull a field's value out of
// a document fingerprint. The set is closed: the extraction engine switches
// exhaustively over these variants.
type ExtractionMethod string

const (
	MethodPattern  ExtractionMethod = "text_pattern"
	MethodZone     ExtractionMethod = "coordinate_zone"
	MethodOCRZone  ExtractionMethod = "ocr_zone"
	MethodMetadata ExtractionMethod = "document_metadata"
	MethodHybrid   ExtractionMethod = "hybrid"
)

// IsValid checks if the extraction method is a known variant.
func (m ExtractionMethod) IsValid() bool {
	switch m {
	case MethodPattern, MethodZone, MethodOCRZone, MethodMetadata, MethodHybrid:
		return true
	default:
		return false
	}
}

// UsesZones reports whether the method reads coordinate zones.
func (m ExtractionMethod) UsesZones() bool {
	return m == MethodZone || m == MethodOCRZone || m == MethodHybrid
}

// UsesPatterns reports whether the method reads text patterns.
func (m ExtractionMethod) UsesPatterns() bool {
	return m == MethodPattern || m == MethodHybrid
}

// Zone is a page-relative rectangle in document coordinate space.
type Zone struct {
	Page   int     `json:"page" yaml:"page"`
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Contains reports whether the point (x, y) lies inside the zone.
func (z Zone) Contains(x, y float64) bool {
	return x >= z.X && x <= z.X+z.Width && y >= z.Y && y <= z.Y+z.Height
}

// Field defines one extractable value within a template.
type Field struct {
	Name                string           `json:"name" yaml:"name"`
	DisplayName         string           `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Type                FieldType        `json:"type" yaml:"type"`
	Method              ExtractionMethod `json:"method" yaml:"method"`
	Required            bool             `json:"required" yaml:"required"`
	Order               int              `json:"order" yaml:"order"`
	Zones               []Zone           `json:"zones,omitempty" yaml:"zones,omitempty"`
	Patterns            []string         `json:"patterns,omitempty" yaml:"patterns,omitempty"`
	Keywords            []string         `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	MetadataKey         string           `json:"metadata_key,omitempty" yaml:"metadata_key,omitempty"`
	Validation          ValidationRules  `json:"validation,omitempty" yaml:"validation,omitempty"`
	Transform           Transform        `json:"transform,omitempty" yaml:"transform,omitempty"`
	Fallback            Fallback         `json:"fallback,omitempty" yaml:"fallback,omitempty"`
	DefaultValue        string           `json:"default_value,omitempty" yaml:"default_value,omitempty"`
	MultiValue          bool             `json:"multi_value,omitempty" yaml:"multi_value,omitempty"`
	MultiValueSeparator string           `json:"multi_value_separator,omitempty" yaml:"multi_value_separator,omitempty"`
	ConfidenceThreshold float64          `json:"confidence_threshold,omitempty" yaml:"confidence_threshold,omitempty"`
}

// HasTrigger reports whether the field declares at least one way to match:
// a zone, a pattern, a keyword, or a metadata key. A field without any
// trigger can never extract.
func (f *Field) HasTrigger() bool {
	return len(f.Zones) > 0 || len(f.Patterns) > 0 || len(f.Keywords) > 0 || f.MetadataKey != ""
}

// Separator returns the configured multi-value separator, defaulting to
// a comma-space join.
func (f *Field) Separator() string {
	if f.MultiValueSeparator != "" {
		return f.MultiValueSeparator
	}
	return ", "
}

// Clone returns a deep copy of the field.
func (f *Field) Clone() *Field {
	out := *f
	out.Zones = append([]Zone(nil), f.Zones...)
	out.Patterns = append([]string(nil), f.Patterns...)
	out.Keywords = append([]string(nil), f.Keywords...)
	out.Validation.Checks = append([]Check(nil), f.Validation.Checks...)
	out.Fallback.Steps = make([]FallbackStep, len(f.Fallback.Steps))
	for i, step := range f.Fallback.Steps {
		out.Fallback.Steps[i] = step
		out.Fallback.Steps[i].Zones = append([]Zone(nil), step.Zones...)
		out.Fallback.Steps[i].Patterns = append([]string(nil), step.Patterns...)
		out.Fallback.Steps[i].Keywords = append([]string(nil), step.Keywords...)
	}
	return &out
}

// ValidationRules constrain an extracted value before it is accepted.
type ValidationRules struct {
	MinLength  int     `json:"min_length,omitempty" yaml:"min_length,omitempty"`
	MaxLength  int     `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	Pattern    string  `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	AllowEmpty bool    `json:"allow_empty,omitempty" yaml:"allow_empty,omitempty"`
	Checks     []Check `json:"checks,omitempty" yaml:"checks,omitempty"`
}

// Check names a built-in validation predicate with an optional parameter.
// Checks are selected by tag from a constructed registry; they are never
// arbitrary executable text.
type Check struct {
	Name  string `json:"name" yaml:"name"`
	Param string `json:"param,omitempty" yaml:"param,omitempty"`
}

// CaseMode is the case normalization applied by a transform.
type CaseMode string

const (
	CaseNone  CaseMode = ""
	CaseUpper CaseMode = "upper"
	CaseLower CaseMode = "lower"
	CaseTitle CaseMode = "title"
)

// Transform normalizes an extracted value. Steps run in a fixed order:
// trim, case conversion, special-character removal, date reformat.
type Transform struct {
	Trim         bool     `json:"trim,omitempty" yaml:"trim,omitempty"`
	Case         CaseMode `json:"case,omitempty" yaml:"case,omitempty"`
	StripSpecial bool     `json:"strip_special,omitempty" yaml:"strip_special,omitempty"`
	// DateFormat is a Go reference-time layout the value is rewritten into.
	// Empty means no date handling.
	DateFormat string `json:"date_format,omitempty" yaml:"date_format,omitempty"`
	// DateInputFormats are the accepted source layouts. When empty a
	// default set of common layouts is tried.
	DateInputFormats []string `json:"date_input_formats,omitempty" yaml:"date_input_formats,omitempty"`
}

// Fallback lists alternative extraction attempts tried after the primary
// method fails.
type Fallback struct {
	Enabled bool           `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Steps   []FallbackStep `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// FallbackStep is one alternative extraction configuration.
type FallbackStep struct {
	Method      ExtractionMethod `json:"method" yaml:"method"`
	Zones       []Zone           `json:"zones,omitempty" yaml:"zones,omitempty"`
	Patterns    []string         `json:"patterns,omitempty" yaml:"patterns,omitempty"`
	Keywords    []string         `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	MetadataKey string           `json:"metadata_key,omitempty" yaml:"metadata_key,omitempty"`
}
