package scan

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/pagelens/pagelens/internal/assets"
	"github.com/pagelens/pagelens/internal/logging"
	"github.com/pagelens/pagelens/internal/model"
	"github.com/pagelens/pagelens/internal/page"
)

// DocumentFetcher resolves a URL to document text. Satisfied by
// fetcher.Fetcher.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Stage names reported to progress callbacks, in order.
const (
	StageConnecting = "connecting"
	StageFetching   = "fetching"
	StageParsing    = "parsing"
	StageAssets     = "discovering assets"
	StageAnalyzing  = "analyzing"
)

// ProgressFunc receives milestone updates during a scan. Percent is monotonic
// per URL and reaches 100 on success. Called synchronously; keep it cheap.
type ProgressFunc func(url, stage string, percent int)

// Config tunes the multi-URL scan loop.
type Config struct {
	// PolitenessDelay is the minimum spacing between fetches of consecutive
	// URLs in one batch. Zero disables the limiter.
	PolitenessDelay time.Duration `yaml:"politeness_delay"`
}

func DefaultConfig() Config {
	return Config{PolitenessDelay: 500 * time.Millisecond}
}

// Service runs the page acquisition pipeline: fetch, parse, analyze, record.
// One scan is processed to completion at a time.
type Service struct {
	fetcher  DocumentFetcher
	analyzer *page.Analyzer
	results  *ResultStore
	registry *assets.Registry
	limiter  *rate.Limiter
	stopped  atomic.Bool
	logger   logging.Logger
}

func NewService(cfg Config, f DocumentFetcher, analyzer *page.Analyzer, results *ResultStore, registry *assets.Registry, logger logging.Logger) *Service {
	var limiter *rate.Limiter
	if cfg.PolitenessDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.PolitenessDelay), 1)
	}
	return &Service{
		fetcher:  f,
		analyzer: analyzer,
		results:  results,
		registry: registry,
		limiter:  limiter,
		logger:   logger.With(logging.Field{Key: "component", Value: "scan"}),
	}
}

// Stop requests that any in-flight multi-URL scan halt after the current URL
// finishes. The flag clears when a new batch starts.
func (s *Service) Stop() {
	s.stopped.Store(true)
}

// ScanPage runs the full pipeline for one URL. It always returns a terminal
// ScanResult: fetch and parse failures become a failed result with the error
// recorded, never a returned error.
func (s *Service) ScanPage(ctx context.Context, url string, progress ProgressFunc) model.ScanResult {
	report := func(stage string, pct int) {
		if progress != nil {
			progress(url, stage, pct)
		}
	}

	s.logger.Info("scanning page", logging.Field{Key: "url", Value: url})
	report(StageConnecting, 20)
	s.results.MarkScanning(url)

	report(StageFetching, 40)
	html, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return s.record(failedResult(url, err))
	}

	report(StageParsing, 60)
	doc, err := page.Parse(html, url)
	if err != nil {
		return s.record(failedResult(url, err))
	}

	report(StageAssets, 80)
	analysis := s.analyzer.Analyze(doc)
	s.registry.RegisterAll(analysis.Images, model.AssetImage)
	s.registry.RegisterAll(analysis.Scripts, model.AssetScript)
	s.registry.RegisterAll(analysis.Stylesheets, model.AssetStylesheet)

	report(StageAnalyzing, 100)
	result := model.ScanResult{
		URL:         url,
		Status:      model.ScanCompleted,
		Title:       analysis.Title,
		Description: analysis.Description,
		HTML:        html,
		Links:       analysis.Links,
		Images:      analysis.Images,
		Scripts:     analysis.Scripts,
		Stylesheets: analysis.Stylesheets,
		SEO:         analysis.SEO,
		ScannedAt:   time.Now(),
	}
	stored := s.record(result)

	// Discovered links become pending pages so a later pass can pick them up.
	for _, link := range analysis.Links {
		if link != url {
			s.results.MarkPending(link)
		}
	}

	return stored
}

// ScanPages processes urls sequentially. A failure on one URL yields a failed
// result for that URL only; the rest still run. The batch stops early when
// Stop was called or ctx is done, leaving unvisited URLs untouched.
func (s *Service) ScanPages(ctx context.Context, urls []string, progress ProgressFunc) []model.ScanResult {
	s.stopped.Store(false)

	results := make([]model.ScanResult, 0, len(urls))
	for i, url := range urls {
		if s.stopped.Load() || ctx.Err() != nil {
			s.logger.Info("scan batch stopped",
				logging.Field{Key: "completed", Value: i},
				logging.Field{Key: "remaining", Value: len(urls) - i})
			break
		}
		if i > 0 && s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				break
			}
		}
		results = append(results, s.ScanPage(ctx, url, progress))
	}
	return results
}

func (s *Service) record(result model.ScanResult) model.ScanResult {
	s.results.Replace(result)
	if stored, ok := s.results.Get(result.URL); ok {
		return stored
	}
	return result
}

func failedResult(url string, err error) model.ScanResult {
	return model.ScanResult{
		URL:       url,
		Status:    model.ScanFailed,
		Error:     err.Error(),
		ScannedAt: time.Now(),
	}
}
