package scan

import (
	"context"
	"fmt"
	"testing"

	"github.com/pagelens/pagelens/internal/assets"
	"github.com/pagelens/pagelens/internal/logging"
	"github.com/pagelens/pagelens/internal/model"
	"github.com/pagelens/pagelens/internal/page"
)

// fakeFetcher serves canned document text by URL.
type fakeFetcher struct {
	pages map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return "", err
	}
	html, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("no page for %s", url)
	}
	return html, nil
}

type fixture struct {
	service  *Service
	results  *ResultStore
	registry *assets.Registry
	fetcher  *fakeFetcher
}

func newFixture() *fixture {
	f := &fakeFetcher{pages: map[string]string{}, errs: map[string]error{}}
	results := NewResultStore()
	registry := assets.NewRegistry(logging.NopLogger{})
	analyzer := page.NewAnalyzer(page.Config{}, logging.NopLogger{})
	service := NewService(Config{}, f, analyzer, results, registry, logging.NopLogger{})
	return &fixture{service: service, results: results, registry: registry, fetcher: f}
}

func TestScanPageEndToEnd(t *testing.T) {
	fx := newFixture()
	fx.fetcher.pages["https://example.com"] = `<html><head><title>Example</title></head>` +
		`<body><img src="/logo.png"></body></html>`

	result := fx.service.ScanPage(context.Background(), "https://example.com", nil)

	if result.Status != model.ScanCompleted {
		t.Fatalf("status = %q, error = %q", result.Status, result.Error)
	}
	if result.Title != "Example" {
		t.Errorf("title = %q, want Example", result.Title)
	}

	asset, ok := fx.registry.Get("https://example.com/logo.png")
	if !ok {
		t.Fatal("expected the image to be registered as an asset")
	}
	if asset.Type != model.AssetImage || asset.Status != model.AssetPending {
		t.Errorf("asset = %+v", asset)
	}
}

func TestScanPageFetchFailure(t *testing.T) {
	fx := newFixture()
	fx.fetcher.errs["https://down.example.com"] = fmt.Errorf("connection refused")

	result := fx.service.ScanPage(context.Background(), "https://down.example.com", nil)

	if result.Status != model.ScanFailed {
		t.Fatalf("status = %q, want failed", result.Status)
	}
	if result.Error == "" {
		t.Error("failed result must carry an error")
	}
	if result.Title != "" || len(result.Links) != 0 {
		t.Error("failed result must not carry structural fields")
	}
}

func TestScanPageProgressMilestones(t *testing.T) {
	fx := newFixture()
	fx.fetcher.pages["https://example.com"] = "<html><body>ok</body></html>"

	var percents []int
	fx.service.ScanPage(context.Background(), "https://example.com", func(_, _ string, pct int) {
		percents = append(percents, pct)
	})

	want := []int{20, 40, 60, 80, 100}
	if len(percents) != len(want) {
		t.Fatalf("got %v, want %v", percents, want)
	}
	for i := range want {
		if percents[i] != want[i] {
			t.Fatalf("got %v, want %v", percents, want)
		}
	}
}

func TestScanPageMarksEntryScanningWhileInFlight(t *testing.T) {
	fx := newFixture()
	fx.fetcher.pages["https://example.com"] = "<html></html>"

	var inFlight []model.ScanStatus
	fx.service.ScanPage(context.Background(), "https://example.com", func(_, stage string, _ int) {
		if stage == StageFetching {
			if r, ok := fx.results.Get("https://example.com"); ok {
				inFlight = append(inFlight, r.Status)
			}
		}
	})

	if len(inFlight) != 1 || inFlight[0] != model.ScanScanning {
		t.Errorf("status during fetch = %v, want scanning", inFlight)
	}
	final, _ := fx.results.Get("https://example.com")
	if final.Status != model.ScanCompleted {
		t.Errorf("final status = %q, want completed", final.Status)
	}
}

func TestScanPagesFailureIsolation(t *testing.T) {
	fx := newFixture()
	fx.fetcher.errs["https://a.example.com"] = fmt.Errorf("boom")
	fx.fetcher.pages["https://b.example.com"] = "<html><head><title>B</title></head><body></body></html>"

	results := fx.service.ScanPages(context.Background(),
		[]string{"https://a.example.com", "https://b.example.com"}, nil)

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].URL != "https://a.example.com" || results[0].Status != model.ScanFailed {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].URL != "https://b.example.com" || results[1].Status != model.ScanCompleted {
		t.Errorf("results[1] = %+v", results[1])
	}
}

func TestScanPagesCooperativeStop(t *testing.T) {
	fx := newFixture()
	fx.fetcher.pages["https://a.example.com"] = "<html></html>"
	fx.fetcher.pages["https://b.example.com"] = "<html></html>"

	// Stop after the first URL completes.
	results := fx.service.ScanPages(context.Background(),
		[]string{"https://a.example.com", "https://b.example.com"},
		func(string, string, int) { fx.service.Stop() })

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1 (stop honored between URLs)", len(results))
	}
	if len(fx.fetcher.calls) != 1 {
		t.Errorf("fetcher called %d times, want 1", len(fx.fetcher.calls))
	}
}

func TestScanMarksDiscoveredLinksPending(t *testing.T) {
	fx := newFixture()
	fx.fetcher.pages["https://example.com"] = `<html><body>` +
		`<a href="/about">a</a><a href="/contact">c</a></body></html>`

	fx.service.ScanPage(context.Background(), "https://example.com", nil)

	pending := fx.results.PendingURLs()
	if len(pending) != 2 {
		t.Fatalf("pending = %v, want the two discovered links", pending)
	}
}

func TestRescanReplacesEntry(t *testing.T) {
	fx := newFixture()
	fx.fetcher.pages["https://example.com"] = "<html><head><title>v1</title></head><body>one</body></html>"
	fx.service.ScanPage(context.Background(), "https://example.com", nil)

	fx.fetcher.pages["https://example.com"] = "<html><head><title>v2</title></head><body>two</body></html>"
	result := fx.service.ScanPage(context.Background(), "https://example.com", nil)

	entries := fx.results.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries for one URL, want 1", len(entries))
	}
	if entries[0].Result.Title != "v2" {
		t.Errorf("stored title = %q, want the re-scan to supersede", entries[0].Result.Title)
	}
	if result.ChangeSummary == nil {
		t.Fatal("re-scan should record a change summary")
	}
	if result.ChangeSummary.Inserted == 0 && result.ChangeSummary.Deleted == 0 {
		t.Errorf("change summary = %+v, want some difference", result.ChangeSummary)
	}
}
