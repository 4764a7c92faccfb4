package extract

import (
	"context"
	"fmt"
	"testing"

	"github.com/structa/fieldwise/internal/fingerprint"
)

func TestExtractBatchPreservesOrder(t *testing.T) {
	e := NewEngine(nil)
	tpl := incidentTemplate()

	var fps []*fingerprint.Fingerprint
	for i := 0; i < 20; i++ {
		fp := incidentFingerprint()
		fp.SourceTag = fmt.Sprintf("report-%02d.txt", i)
		fps = append(fps, fp)
	}

	items := e.ExtractBatch(context.Background(), tpl, fps, 4)

	if len(items) != len(fps) {
		t.Fatalf("ExtractBatch() returned %d items, want %d", len(items), len(fps))
	}
	for i, item := range items {
		want := fmt.Sprintf("report-%02d.txt", i)
		if item.Source != want {
			t.Errorf("items[%d].Source = %q, want %q", i, item.Source, want)
		}
		if item.Err != nil {
			t.Errorf("items[%d].Err = %v", i, item.Err)
		}
		if item.Result == nil || item.Result.Field("incident_id") == nil {
			t.Errorf("items[%d] missing extraction result", i)
		}
	}
}

func TestExtractBatchMixedFailures(t *testing.T) {
	e := NewEngine(nil)
	tpl := incidentTemplate()

	good := incidentFingerprint()
	good.SourceTag = "good.txt"
	empty := &fingerprint.Fingerprint{Format: "txt", SourceTag: "empty.txt"}

	items := e.ExtractBatch(context.Background(), tpl, []*fingerprint.Fingerprint{good, empty, good}, 2)

	if items[0].Err != nil || items[2].Err != nil {
		t.Fatalf("good documents errored: %v, %v", items[0].Err, items[2].Err)
	}
	if items[1].Err == nil {
		t.Fatal("contentless document should error")
	}
	if items[1].Result != nil {
		t.Error("errored item must not carry a result")
	}
}

func TestExtractBatchCancelledContext(t *testing.T) {
	e := NewEngine(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fps := []*fingerprint.Fingerprint{incidentFingerprint(), incidentFingerprint()}
	items := e.ExtractBatch(ctx, incidentTemplate(), fps, 1)

	for i, item := range items {
		if item.Err != context.Canceled {
			t.Errorf("items[%d].Err = %v, want context.Canceled", i, item.Err)
		}
		if item.Result != nil {
			t.Errorf("items[%d] carries a result after cancellation", i)
		}
	}
}

func TestExtractBatchEmptyInput(t *testing.T) {
	e := NewEngine(nil)
	items := e.ExtractBatch(context.Background(), incidentTemplate(), nil, 4)
	if len(items) != 0 {
		t.Fatalf("ExtractBatch() on empty input returned %d items", len(items))
	}
}

func TestExtractBatchDefaultWorkerCount(t *testing.T) {
	e := NewEngine(nil)
	fps := []*fingerprint.Fingerprint{incidentFingerprint()}
	items := e.ExtractBatch(context.Background(), incidentTemplate(), fps, 0)
	if len(items) != 1 || items[0].Err != nil {
		t.Fatalf("ExtractBatch() with default workers failed: %+v", items)
	}
}
