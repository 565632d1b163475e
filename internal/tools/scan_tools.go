package tools

import (
	"context"
	"fmt"

	"github.com/pagelens/pagelens/internal/model"
)

// scanSummary is the per-URL payload returned by the scan operations. Raw
// document text stays in the store; results carry the derived facts only.
type scanSummary struct {
	URL    string               `json:"url"`
	Status model.ScanStatus     `json:"status"`
	Title  string               `json:"title,omitempty"`
	Links  int                  `json:"links"`
	Images int                  `json:"images"`
	Error  string               `json:"error,omitempty"`
	Change *model.ChangeSummary `json:"change_summary,omitempty"`
}

func summarizeResult(r model.ScanResult) scanSummary {
	return scanSummary{
		URL:    r.URL,
		Status: r.Status,
		Title:  r.Title,
		Links:  len(r.Links),
		Images: len(r.Images),
		Error:  r.Error,
		Change: r.ChangeSummary,
	}
}

func (b *builtins) scanPages(ctx context.Context, params map[string]any) (any, error) {
	urls, err := stringSliceParam(params, "urls")
	if err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("parameter %q is empty", "urls")
	}

	results := b.deps.Scanner.ScanPages(ctx, urls, b.deps.Progress)
	summaries := make([]scanSummary, 0, len(results))
	for _, r := range results {
		summaries = append(summaries, summarizeResult(r))
	}
	return summaries, nil
}

// scanAllPendingPages computes its target set here, at dispatch time, so two
// back-to-back dispatches with no status change see the same URLs.
func (b *builtins) scanAllPendingPages(ctx context.Context, _ map[string]any) (any, error) {
	urls := b.deps.Results.PendingURLs()
	if len(urls) == 0 {
		return map[string]any{"scanned": 0, "message": "no pages are pending"}, nil
	}

	results := b.deps.Scanner.ScanPages(ctx, urls, b.deps.Progress)
	summaries := make([]scanSummary, 0, len(results))
	for _, r := range results {
		summaries = append(summaries, summarizeResult(r))
	}
	return map[string]any{"scanned": len(summaries), "results": summaries}, nil
}

// performSeoAnalysis reuses the SEO facts of an already-completed scan before
// reaching for the network.
func (b *builtins) performSeoAnalysis(ctx context.Context, params map[string]any) (any, error) {
	url, err := stringParam(params, "url")
	if err != nil {
		return nil, err
	}

	if cached, ok := b.deps.Results.Get(url); ok && cached.Status == model.ScanCompleted && cached.SEO != nil {
		return cached.SEO, nil
	}

	result := b.deps.Scanner.ScanPage(ctx, url, b.deps.Progress)
	if result.Status != model.ScanCompleted {
		return nil, fmt.Errorf("page %s could not be scanned: %s", url, result.Error)
	}
	if result.SEO == nil {
		return nil, fmt.Errorf("no SEO data derived for %s", url)
	}
	return result.SEO, nil
}
