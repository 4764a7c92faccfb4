package extract

import (
	"context"
	"runtime"
	"sync"

	"github.com/structa/fieldwise/internal/fingerprint"
	"github.com/structa/fieldwise/internal/template"
)

// BatchItem is the outcome for one document in a batch run. Exactly one of
// Result and Err is set.
type BatchItem struct {
	Source string  `json:"source,omitempty"`
	Result *Result `json:"result,omitempty"`
	Err    error   `json:"-"`
}

// ExtractBatch runs one resolved template over many fingerprints on a
// bounded worker pool. Cancellation is cooperative and checked between
// documents, never mid-field, so no partial field result is ever returned;
// documents not started when the context fires report the context error.
// The returned slice has one item per input, in input order.
func (e *Engine) ExtractBatch(ctx context.Context, tpl *template.Template, fps []*fingerprint.Fingerprint, workers int) []BatchItem {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(fps) {
		workers = len(fps)
	}

	items := make([]BatchItem, len(fps))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				select {
				case <-ctx.Done():
					items[i] = BatchItem{Source: sourceTag(fps[i]), Err: ctx.Err()}
					continue
				default:
				}
				result, err := e.Extract(tpl, fps[i])
				items[i] = BatchItem{Source: sourceTag(fps[i]), Result: result, Err: err}
			}
		}()
	}

	for i := range fps {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return items
}

func sourceTag(fp *fingerprint.Fingerprint) string {
	if fp == nil {
		return ""
	}
	return fp.SourceTag
}
