package extract

import (
	"github.com/structa/fieldwise/internal/template"
)

// Confidence model. Scores are reliability estimates in [0,1], not
// probabilities. A primary-method hit outranks a fallback hit, anchored
// patterns outrank loose keyword matches, and a value that also cleared
// declared validation rules earns a small bonus.
const (
	confidenceDefaultValue = 0.30
	fallbackPenalty        = 0.75
	validationBonus        = 0.05
)

// methodBase is the starting confidence for each extraction source.
func methodBase(m template.ExtractionMethod) float64 {
	switch m {
	case template.MethodZone:
		return 0.85
	case template.MethodOCRZone:
		return 0.70
	case template.MethodMetadata:
		return 0.90
	case template.MethodPattern:
		return 0.75
	case template.MethodHybrid:
		return 0.70
	default:
		return 0.50
	}
}

// fieldConfidence scores one successful attempt.
func fieldConfidence(a attempt, out outcome, hadValidation bool) float64 {
	score := methodBase(a.method)

	// Specificity moves the score up to 0.15 in either direction around
	// its midpoint.
	score += (out.specificity - 0.5) * 0.3

	if a.fallback {
		score *= fallbackPenalty
	}
	if hadValidation {
		score += validationBonus
	}

	if score > 1.0 {
		return 1.0
	}
	if score < 0.0 {
		return 0.0
	}
	return score
}

// overallConfidence is the mean of per-field confidences with required
// fields weighted double.
func overallConfidence(fields []FieldResult, tpl *template.Template) float64 {
	var sum, weight float64
	for _, fr := range fields {
		w := 1.0
		if f := tpl.FieldByName(fr.Name); f != nil && f.Required {
			w = 2.0
		}
		sum += fr.Confidence * w
		weight += w
	}
	if weight == 0 {
		return 0
	}
	return sum / weight
}
