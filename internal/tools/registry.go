package tools

import (
	"context"
	"fmt"

	"github.com/pagelens/pagelens/internal/assets"
	"github.com/pagelens/pagelens/internal/logging"
	"github.com/pagelens/pagelens/internal/model"
	"github.com/pagelens/pagelens/internal/page"
	"github.com/pagelens/pagelens/internal/scan"
	"github.com/pagelens/pagelens/internal/webclient"
)

// Deps are the collaborators the built-in operations work against.
type Deps struct {
	Scanner  *scan.Service
	Results  *scan.ResultStore
	Assets   *assets.Registry
	Client   webclient.WebClient
	Progress scan.ProgressFunc
	Logger   logging.Logger
}

// RegisterBuiltins installs the fixed operation set on the orchestrator.
func RegisterBuiltins(o *Orchestrator, deps Deps) {
	b := &builtins{deps: deps}

	o.Register("scanPages", b.scanPages)
	o.Register("scanAllPendingPages", b.scanAllPendingPages)
	o.Register("extractDataFromPage", b.extractDataFromPage)
	o.Register("performSeoAnalysis", b.performSeoAnalysis)
	o.Register("analyzeImageFromUrl", b.analyzeImageFromURL)
	o.Register("fetchSitemap", b.fetchSitemap)
	o.Register("checkAccessibility", b.checkAccessibility)
	o.Register("analyzePerformance", b.analyzePerformance)
	o.Register("summarizePage", b.summarizePage)
	o.Register("detectTechStack", b.detectTechStack)
}

type builtins struct {
	deps Deps
}

// document returns a parsed DOM for url, scanning the page first when no
// completed result is cached.
func (b *builtins) document(ctx context.Context, url string) (*page.Document, *model.ScanResult, error) {
	result, ok := b.deps.Results.Get(url)
	if !ok || result.Status != model.ScanCompleted {
		result = b.deps.Scanner.ScanPage(ctx, url, b.deps.Progress)
	}
	if result.Status != model.ScanCompleted {
		return nil, nil, fmt.Errorf("page %s could not be scanned: %s", url, result.Error)
	}
	doc, err := page.Parse(result.HTML, url)
	if err != nil {
		return nil, nil, err
	}
	return doc, &result, nil
}
