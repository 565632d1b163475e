package fetcher

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/pagelens/pagelens/internal/logging"
	"github.com/pagelens/pagelens/internal/model"
	"github.com/pagelens/pagelens/internal/webclient"
)

// FetchError reports a fetch that failed after all attempts were exhausted.
// StatusCode is zero for transport-level failures.
type FetchError struct {
	URL        string
	StatusCode int
	Reason     string
	Attempts   int
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d after %d attempts", e.URL, e.StatusCode, e.Attempts)
	}
	return fmt.Sprintf("fetch %s: %s after %d attempts", e.URL, e.Reason, e.Attempts)
}

// Browser identities rotated per attempt. Sites that throttle unknown agents
// are less likely to block a scan outright this way.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:89.0) Gecko/20100101 Firefox/89.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:89.0) Gecko/20100101 Firefox/89.0",
}

// Fetcher resolves a URL to raw document text with bounded retry and linear
// backoff. It holds no shared state beyond its collaborators.
type Fetcher struct {
	cfg    Config
	wc     webclient.WebClient
	rng    *rand.Rand
	sleep  func(context.Context, time.Duration) error
	logger logging.Logger
}

// New creates a Fetcher. rng may be nil, in which case a time-seeded source is
// used; tests inject a fixed seed for determinism.
func New(cfg Config, wc webclient.WebClient, rng *rand.Rand, logger logging.Logger) (*Fetcher, error) {
	if wc == nil {
		return nil, fmt.Errorf("fetcher: webclient is nil")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultConfig().BackoffBase
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Fetcher{
		cfg:    cfg,
		wc:     wc,
		rng:    rng,
		sleep:  sleepCtx,
		logger: logger.With(logging.Field{Key: "component", Value: "fetcher"}),
	}, nil
}

// Fetch retrieves url and returns the document text. Any non-2xx response or
// transport failure counts as a retryable failure; after MaxAttempts the last
// observed error is returned as a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	var lastErr *FetchError

	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			// Linear backoff: attempt k waits base*(k-1) before running.
			if err := f.sleep(ctx, f.cfg.BackoffBase*time.Duration(attempt-1)); err != nil {
				return "", err
			}
		}

		resp, err := f.attempt(ctx, url)
		if err != nil {
			lastErr = &FetchError{URL: url, Reason: err.Error(), Attempts: attempt}
			f.logger.Warn("fetch attempt failed",
				logging.Field{Key: "url", Value: url},
				logging.Field{Key: "attempt", Value: attempt},
				logging.Field{Key: "error", Value: err.Error()})
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			lastErr = &FetchError{URL: url, StatusCode: resp.StatusCode, Attempts: attempt}
			f.logger.Warn("fetch attempt returned non-2xx",
				logging.Field{Key: "url", Value: url},
				logging.Field{Key: "attempt", Value: attempt},
				logging.Field{Key: "status", Value: resp.StatusCode})
			continue
		}

		return string(resp.Body), nil
	}

	return "", lastErr
}

func (f *Fetcher) attempt(ctx context.Context, url string) (*model.Response, error) {
	headers := http.Header{}
	headers.Set("User-Agent", userAgents[f.rng.Intn(len(userAgents))])
	headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	headers.Set("Accept-Language", "en-US,en;q=0.5")

	req := &model.Request{
		Method:  "GET",
		URL:     url,
		Headers: headers,
	}
	return f.wc.Do(ctx, req)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
