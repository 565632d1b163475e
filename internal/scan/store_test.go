package scan

import (
	"testing"

	"github.com/pagelens/pagelens/internal/model"
)

func TestResultStoreReplaceByKey(t *testing.T) {
	s := NewResultStore()
	s.Replace(model.ScanResult{URL: "https://a.example.com", Status: model.ScanCompleted, HTML: "one"})
	s.Replace(model.ScanResult{URL: "https://b.example.com", Status: model.ScanFailed, Error: "x"})
	s.Replace(model.ScanResult{URL: "https://a.example.com", Status: model.ScanCompleted, HTML: "two"})

	entries := s.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	// First-seen order survives replacement.
	if entries[0].URL != "https://a.example.com" || entries[1].URL != "https://b.example.com" {
		t.Errorf("order = %v", []string{entries[0].URL, entries[1].URL})
	}
	if entries[0].Result.HTML != "two" {
		t.Errorf("replacement did not supersede: %q", entries[0].Result.HTML)
	}
}

func TestResultStoreChangeSummaryOnReplace(t *testing.T) {
	s := NewResultStore()
	s.Replace(model.ScanResult{URL: "u", Status: model.ScanCompleted, HTML: "hello old world"})
	s.Replace(model.ScanResult{URL: "u", Status: model.ScanCompleted, HTML: "hello new world"})

	got, _ := s.Get("u")
	if got.ChangeSummary == nil {
		t.Fatal("expected a change summary")
	}
	if got.ChangeSummary.Inserted == 0 || got.ChangeSummary.Deleted == 0 || got.ChangeSummary.Unchanged == 0 {
		t.Errorf("summary = %+v", got.ChangeSummary)
	}
}

func TestResultStoreKeysEquivalentURLs(t *testing.T) {
	s := NewResultStore()
	s.Replace(model.ScanResult{URL: "https://example.com:443/a/", Status: model.ScanCompleted, Title: "one"})

	got, ok := s.Get("https://example.com/a")
	if !ok || got.Title != "one" {
		t.Fatalf("Get by equivalent spelling = %+v, %v", got, ok)
	}

	s.MarkPending("https://EXAMPLE.com/a")
	if entries := s.All(); len(entries) != 1 {
		t.Errorf("got %d entries, want equivalent URLs to share one", len(entries))
	}
}

func TestMarkScanningKeepsPreviousDocument(t *testing.T) {
	s := NewResultStore()
	s.Replace(model.ScanResult{URL: "u", Status: model.ScanCompleted, HTML: "hello old world"})

	s.MarkScanning("u")
	got, _ := s.Get("u")
	if got.Status != model.ScanScanning {
		t.Fatalf("status = %q, want scanning", got.Status)
	}
	if got.HTML != "hello old world" {
		t.Error("marking in flight must not drop the previous document")
	}

	s.Replace(model.ScanResult{URL: "u", Status: model.ScanCompleted, HTML: "hello new world"})
	got, _ = s.Get("u")
	if got.ChangeSummary == nil {
		t.Error("re-scan across an in-flight mark should still diff against the old document")
	}
}

func TestPendingURLsRecomputedEachCall(t *testing.T) {
	s := NewResultStore()
	s.MarkPending("https://a.example.com")
	s.MarkPending("https://b.example.com")

	first := s.PendingURLs()
	second := s.PendingURLs()
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("pending sets = %v / %v, want both to list 2", first, second)
	}

	s.Replace(model.ScanResult{URL: "https://a.example.com", Status: model.ScanCompleted})
	if got := s.PendingURLs(); len(got) != 1 || got[0] != "https://b.example.com" {
		t.Errorf("pending after completion = %v", got)
	}
}

func TestMarkPendingDoesNotClobberResults(t *testing.T) {
	s := NewResultStore()
	s.Replace(model.ScanResult{URL: "u", Status: model.ScanCompleted, Title: "kept"})
	s.MarkPending("u")

	got, _ := s.Get("u")
	if got.Status != model.ScanCompleted || got.Title != "kept" {
		t.Errorf("MarkPending overwrote an existing result: %+v", got)
	}
}

func TestLoadKeepsFirstDuplicate(t *testing.T) {
	s := NewResultStore()
	s.Load([]model.ScanEntry{
		{URL: "u", Result: model.ScanResult{URL: "u", Title: "first"}},
		{URL: "u", Result: model.ScanResult{URL: "u", Title: "second"}},
	})
	got, _ := s.Get("u")
	if got.Title != "first" {
		t.Errorf("title = %q, want first occurrence kept", got.Title)
	}
}
