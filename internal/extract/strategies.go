package extract

import (
	"regexp"
	"strings"

	"github.com/structa/fieldwise/internal/fingerprint"
	"github.com/structa/fieldwise/internal/template"
)

// attempt is one concrete extraction try: a method plus the sources it
// reads. The primary attempt carries the field's own configuration;
// fallback attempts carry a fallback step's.
type attempt struct {
	method      template.ExtractionMethod
	zones       []template.Zone
	patterns    []string
	keywords    []string
	metadataKey string
	fallback    bool
}

// outcome is what an attempt produced, before transformation and
// validation.
type outcome struct {
	values []string
	// specificity estimates how anchored the matching source was, in
	// [0,1]. Longer, anchored patterns score higher than loose keyword
	// hits; it feeds the confidence model.
	specificity float64
}

func primaryAttempt(f *template.Field) attempt {
	return attempt{
		method:      f.Method,
		zones:       f.Zones,
		patterns:    f.Patterns,
		keywords:    f.Keywords,
		metadataKey: f.MetadataKey,
	}
}

func fallbackAttempt(step template.FallbackStep) attempt {
	return attempt{
		method:      step.Method,
		zones:       step.Zones,
		patterns:    step.Patterns,
		keywords:    step.Keywords,
		metadataKey: step.MetadataKey,
		fallback:    true,
	}
}

// run executes the attempt against the fingerprint. Sources are tried in
// fixed priority order, zones then patterns then keywords then metadata,
// restricted to what the attempt's method reads.
func (a attempt) run(fp *fingerprint.Fingerprint, multiValue bool) (outcome, bool) {
	if a.method.UsesZones() {
		if out, ok := extractFromZones(fp, a.zones); ok {
			return out, true
		}
	}
	if a.method.UsesPatterns() {
		if out, ok := extractFromPatterns(fp, a.patterns, multiValue); ok {
			return out, true
		}
	}
	if a.method == template.MethodHybrid {
		if out, ok := extractFromKeywords(fp, a.keywords, multiValue); ok {
			return out, true
		}
	}
	if a.method == template.MethodMetadata || a.method == template.MethodHybrid {
		if out, ok := extractFromMetadata(fp, a.metadataKey); ok {
			return out, true
		}
	}
	return outcome{}, false
}

// extractFromZones reads the text inside each configured zone. Zones are
// independent: a multi-zone field yields one value per non-empty zone.
func extractFromZones(fp *fingerprint.Fingerprint, zones []template.Zone) (outcome, bool) {
	var values []string
	for _, z := range zones {
		text := fp.TextIn(z.Page, z.X, z.Y, z.Width, z.Height)
		if text != "" {
			values = append(values, text)
		}
	}
	if len(values) == 0 {
		return outcome{}, false
	}
	return outcome{values: values, specificity: 0.9}, true
}

// extractFromPatterns applies each pattern against the raw text. The first
// capture group is the value when present, the whole match otherwise.
// Multi-value fields collect every non-overlapping match; single-value
// fields take the first.
func extractFromPatterns(fp *fingerprint.Fingerprint, patterns []string, multiValue bool) (outcome, bool) {
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			// Template validation rejects bad patterns; a stale one is
			// skipped rather than failing the document.
			continue
		}

		var values []string
		if multiValue {
			for _, m := range re.FindAllStringSubmatch(fp.RawText, -1) {
				values = append(values, submatchValue(m))
			}
		} else if m := re.FindStringSubmatch(fp.RawText); m != nil {
			values = append(values, submatchValue(m))
		}
		if len(values) > 0 {
			return outcome{values: values, specificity: patternSpecificity(p)}, true
		}
	}
	return outcome{}, false
}

// extractFromKeywords looks for a keyword and takes the remainder of its
// line as the value, "Label: value" style.
func extractFromKeywords(fp *fingerprint.Fingerprint, keywords []string, multiValue bool) (outcome, bool) {
	var values []string
	for _, line := range strings.Split(fp.RawText, "\n") {
		for _, kw := range keywords {
			idx := indexFold(line, kw)
			if idx < 0 {
				continue
			}
			rest := line[idx+len(kw):]
			rest = strings.TrimLeft(rest, " \t:=-")
			rest = strings.TrimSpace(rest)
			if rest == "" {
				continue
			}
			values = append(values, rest)
			if !multiValue {
				return outcome{values: values, specificity: 0.4}, true
			}
			break
		}
	}
	if len(values) == 0 {
		return outcome{}, false
	}
	return outcome{values: values, specificity: 0.4}, true
}

// extractFromMetadata reads a document metadata entry by key.
func extractFromMetadata(fp *fingerprint.Fingerprint, key string) (outcome, bool) {
	if key == "" {
		return outcome{}, false
	}
	value, ok := fp.Metadata[strings.ToLower(key)]
	if !ok || strings.TrimSpace(value) == "" {
		return outcome{}, false
	}
	return outcome{values: []string{value}, specificity: 0.8}, true
}

func submatchValue(m []string) string {
	if len(m) > 1 && m[1] != "" {
		return m[1]
	}
	return m[0]
}

// patternSpecificity scores how anchored a regular expression is. Length
// contributes up to 0.6; anchors and word boundaries add the rest.
func patternSpecificity(pattern string) float64 {
	score := float64(len(pattern)) / 40.0 * 0.6
	if score > 0.6 {
		score = 0.6
	}
	for _, anchor := range []string{`^`, `$`, `\b`, `\s*`} {
		if strings.Contains(pattern, anchor) {
			score += 0.1
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func indexFold(s, substr string) int {
	return strings.Index(strings.ToLower(s), strings.ToLower(substr))
}
