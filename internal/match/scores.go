package match

import (
	"fmt"
	"strings"

	"github.com/structa/fieldwise/internal/fingerprint"
	"github.com/structa/fieldwise/internal/template"
)

// neutralScore is used when a template declares nothing to score against,
// so a missing signal neither sinks nor boosts the candidate.
const neutralScore = 0.5

// keywordScore is the fraction of the template's trigger keywords found in
// the fingerprint's keyword set.
func (e *Engine) keywordScore(fp *fingerprint.Fingerprint, tpl *template.Template, b *Breakdown) float64 {
	if len(tpl.TriggerKeywords) == 0 {
		b.Reasons = append(b.Reasons, Reason{
			Category: "keyword",
			Evidence: "template declares no trigger keywords",
			Score:    neutralScore,
		})
		return neutralScore
	}

	hits := 0
	for _, kw := range tpl.TriggerKeywords {
		if fp.HasKeyword(kw) || containsFold(fp.RawText, kw) {
			hits++
		}
	}
	score := float64(hits) / float64(len(tpl.TriggerKeywords))
	b.Reasons = append(b.Reasons, Reason{
		Category: "keyword",
		Evidence: fmt.Sprintf("%d of %d trigger keywords present", hits, len(tpl.TriggerKeywords)),
		Score:    score,
	})
	return score
}

// structureScore compares the fingerprint's page count and span density
// against the template's expectations, falling off linearly outside the
// acceptable range.
func (e *Engine) structureScore(fp *fingerprint.Fingerprint, tpl *template.Template, b *Breakdown) float64 {
	pageScore := neutralScore
	if !tpl.PageRange.IsZero() {
		pageScore = pageRangeScore(fp.PageCount, tpl.PageRange)
		b.Reasons = append(b.Reasons, Reason{
			Category: "structure",
			Evidence: fmt.Sprintf("%d pages against expected %d-%d", fp.PageCount, tpl.PageRange.Min, tpl.PageRange.Max),
			Score:    pageScore,
		})
	}

	zonedFields := 0
	satisfied := 0
	for i := range tpl.Fields {
		f := &tpl.Fields[i]
		if !f.Method.UsesZones() || len(f.Zones) == 0 {
			continue
		}
		zonedFields++
		for _, z := range f.Zones {
			if fp.ZoneCount(z.Page) > 0 {
				satisfied++
				break
			}
		}
	}

	if zonedFields == 0 {
		return pageScore
	}

	density := float64(satisfied) / float64(zonedFields)
	b.Reasons = append(b.Reasons, Reason{
		Category: "structure",
		Evidence: fmt.Sprintf("%d of %d zoned fields have indexed text on their pages", satisfied, zonedFields),
		Score:    density,
	})
	return (pageScore + density) / 2
}

// contentScore is the proportion of fields whose extraction method could
// plausibly apply given what the fingerprint actually contains.
func (e *Engine) contentScore(fp *fingerprint.Fingerprint, tpl *template.Template, b *Breakdown) float64 {
	if len(tpl.Fields) == 0 {
		return 0
	}

	applicable := 0
	for i := range tpl.Fields {
		if fieldApplies(fp, &tpl.Fields[i]) {
			applicable++
		}
	}
	score := float64(applicable) / float64(len(tpl.Fields))
	b.Reasons = append(b.Reasons, Reason{
		Category: "content",
		Evidence: fmt.Sprintf("%d of %d fields have a plausible extraction source", applicable, len(tpl.Fields)),
		Score:    score,
	})
	return score
}

func fieldApplies(fp *fingerprint.Fingerprint, f *template.Field) bool {
	switch f.Method {
	case template.MethodPattern:
		return strings.TrimSpace(fp.RawText) != ""
	case template.MethodZone, template.MethodOCRZone:
		for _, z := range f.Zones {
			if fp.ZoneCount(z.Page) > 0 {
				return true
			}
		}
		return false
	case template.MethodMetadata:
		_, ok := fp.Metadata[strings.ToLower(f.MetadataKey)]
		return ok
	case template.MethodHybrid:
		if strings.TrimSpace(fp.RawText) != "" && (len(f.Patterns) > 0 || len(f.Keywords) > 0) {
			return true
		}
		for _, z := range f.Zones {
			if fp.ZoneCount(z.Page) > 0 {
				return true
			}
		}
		if f.MetadataKey != "" {
			_, ok := fp.Metadata[strings.ToLower(f.MetadataKey)]
			return ok
		}
		return false
	default:
		return false
	}
}

func pageRangeScore(pages int, r template.PageRange) float64 {
	min, max := r.Min, r.Max
	if max == 0 {
		max = min
	}
	if pages >= min && pages <= max {
		return 1.0
	}

	var distance int
	if pages < min {
		distance = min - pages
	} else {
		distance = pages - max
	}
	span := max
	if span == 0 {
		span = 1
	}
	score := 1.0 - float64(distance)/float64(span)
	if score < 0 {
		return 0
	}
	return score
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
