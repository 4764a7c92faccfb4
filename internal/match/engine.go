package match

import (
	"runtime"
	"sort"
	"sync"

	"github.com/structa/fieldwise/internal/fingerprint"
	"github.com/structa/fieldwise/internal/template"
)

// Weights are the relative importance of each sub-score. They are
// configuration, not constants, so deployments can tune ranking without a
// rebuild.
type Weights struct {
	Keyword   float64 `json:"keyword"`
	Format    float64 `json:"format"`
	Structure float64 `json:"structure"`
	Content   float64 `json:"content"`
}

// DefaultWeights returns the standard weighting.
func DefaultWeights() Weights {
	return Weights{
		Keyword:   0.35,
		Format:    0.10,
		Structure: 0.20,
		Content:   0.35,
	}
}

func (w Weights) total() float64 {
	return w.Keyword + w.Format + w.Structure + w.Content
}

// Reason explains one sub-score's contribution to a match.
type Reason struct {
	Category string  `json:"category"`
	Evidence string  `json:"evidence"`
	Score    float64 `json:"score"`
}

// Breakdown carries the individual sub-scores behind a match.
type Breakdown struct {
	Keyword   float64  `json:"keyword"`
	Format    float64  `json:"format"`
	Structure float64  `json:"structure"`
	Content   float64  `json:"content"`
	Reasons   []Reason `json:"reasons,omitempty"`
}

// Match is one ranked template candidate.
type Match struct {
	Template  *template.Template `json:"template"`
	Score     float64            `json:"score"`
	Breakdown Breakdown          `json:"breakdown"`
}

// Engine ranks candidate templates against a document fingerprint. It is
// stateless per call; concurrent Rank calls are safe.
type Engine struct {
	weights Weights
	workers int
}

// NewEngine creates a matching engine with the given weights. Zero-total
// weights fall back to the defaults.
func NewEngine(weights Weights) *Engine {
	if weights.total() <= 0 {
		weights = DefaultWeights()
	}
	return &Engine{
		weights: weights,
		workers: runtime.GOMAXPROCS(0),
	}
}

// Rank scores every candidate against the fingerprint and returns matches
// at or above minConfidence, best first. Templates whose supported-format
// set excludes the fingerprint's format are excluded outright, not merely
// penalized. Ties break by template name ascending so ranking is
// deterministic.
func (e *Engine) Rank(fp *fingerprint.Fingerprint, candidates []*template.Template, minConfidence float64) []Match {
	// Hard format filter before any scoring.
	eligible := make([]*template.Template, 0, len(candidates))
	for _, tpl := range candidates {
		if tpl != nil && tpl.SupportsFormat(fp.Format) {
			eligible = append(eligible, tpl)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	// Candidates share no mutable state, so scoring fans out over a
	// bounded pool; results land in their own slots to stay ordered.
	scored := make([]Match, len(eligible))
	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := e.workers
	if workers > len(eligible) {
		workers = len(eligible)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				scored[i] = e.score(fp, eligible[i])
			}
		}()
	}
	for i := range eligible {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	matches := make([]Match, 0, len(scored))
	for _, m := range scored {
		if m.Score >= minConfidence {
			matches = append(matches, m)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Template.Name < matches[j].Template.Name
	})
	return matches
}

// Best returns the single highest-ranked match, or nil when nothing
// clears the confidence floor.
func (e *Engine) Best(fp *fingerprint.Fingerprint, candidates []*template.Template, minConfidence float64) *Match {
	matches := e.Rank(fp, candidates, minConfidence)
	if len(matches) == 0 {
		return nil
	}
	return &matches[0]
}

func (e *Engine) score(fp *fingerprint.Fingerprint, tpl *template.Template) Match {
	var b Breakdown
	b.Keyword = e.keywordScore(fp, tpl, &b)
	b.Format = 1.0 // survived the hard filter
	b.Structure = e.structureScore(fp, tpl, &b)
	b.Content = e.contentScore(fp, tpl, &b)

	w := e.weights
	overall := (b.Keyword*w.Keyword + b.Format*w.Format + b.Structure*w.Structure + b.Content*w.Content) / w.total()

	return Match{Template: tpl, Score: overall, Breakdown: b}
}
