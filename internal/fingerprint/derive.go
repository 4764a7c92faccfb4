package fingerprint

import (
	"sort"
	"strings"
	"unicode"
)

// maxKeywords caps the keyword set so matching stays cheap on large
// documents.
const maxKeywords = 200

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "with": true,
	"this": true, "that": true, "from": true, "have": true, "has": true,
	"was": true, "were": true, "will": true, "been": true, "its": true,
	"not": true, "all": true, "any": true, "can": true, "per": true,
	"der": true, "die": true, "und": true, "las": true, "los": true,
	"les": true, "des": true, "una": true, "est": true, "par": true,
}

var languageMarkers = map[string][]string{
	"en": {"the", "and", "with", "from", "that", "this", "shall"},
	"es": {"el", "la", "los", "las", "una", "por", "para", "con"},
	"fr": {"le", "la", "les", "des", "une", "pour", "avec", "est"},
	"de": {"der", "die", "das", "und", "nicht", "mit", "für", "ein"},
}

// deriveKeywords builds the fingerprint keyword set: the most frequent
// non-stopword terms of three or more characters, lowercased.
func deriveKeywords(text string) map[string]bool {
	freq := make(map[string]int)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.TrimFunc(word, func(c rune) bool {
			return !unicode.IsLetter(c) && !unicode.IsNumber(c)
		})
		if len(word) < 3 || stopwords[word] {
			continue
		}
		freq[word]++
	}

	type entry struct {
		word  string
		count int
	}
	entries := make([]entry, 0, len(freq))
	for w, c := range freq {
		entries = append(entries, entry{w, c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].word < entries[j].word
	})

	keywords := make(map[string]bool, len(entries))
	for i, e := range entries {
		if i >= maxKeywords {
			break
		}
		keywords[e.word] = true
	}
	return keywords
}

// detectLanguage guesses the document language from stopword frequency.
// Returns "unknown" when no marker set scores.
func detectLanguage(text string) string {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return "unknown"
	}

	counts := make(map[string]int)
	for _, word := range words {
		word = strings.Trim(word, ".,;:!?()[]\"'")
		for lang, markers := range languageMarkers {
			for _, m := range markers {
				if word == m {
					counts[lang]++
				}
			}
		}
	}

	best, bestCount := "unknown", 0
	// Deterministic tie-break: iterate in sorted language order.
	langs := make([]string, 0, len(counts))
	for lang := range counts {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		if counts[lang] > bestCount {
			best, bestCount = lang, counts[lang]
		}
	}
	return best
}

// countWords returns the whitespace-delimited word count.
func countWords(text string) int {
	return len(strings.Fields(text))
}
