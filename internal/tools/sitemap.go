package tools

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"github.com/pagelens/pagelens/internal/model"
)

const sitemapURLCap = 50

type sitemapDoc struct {
	URLs     []sitemapLoc `xml:"url"`
	Sitemaps []sitemapLoc `xml:"sitemap"`
}

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

// fetchSitemap retrieves a site's sitemap and records its URLs as pending
// pages. It tries <origin>/sitemap.xml first and falls back to the Sitemap
// directives in robots.txt.
func (b *builtins) fetchSitemap(ctx context.Context, params map[string]any) (any, error) {
	raw, err := stringParam(params, "url")
	if err != nil {
		return nil, err
	}
	origin, err := siteOrigin(raw)
	if err != nil {
		return nil, err
	}

	sitemapURL := origin + "/sitemap.xml"
	urls, err := b.readSitemap(ctx, sitemapURL)
	if err != nil {
		fallback, robotsErr := b.sitemapFromRobots(ctx, origin)
		if robotsErr != nil {
			return nil, fmt.Errorf("no sitemap at %s (%v) and robots.txt gave none (%v)", sitemapURL, err, robotsErr)
		}
		sitemapURL = fallback
		if urls, err = b.readSitemap(ctx, sitemapURL); err != nil {
			return nil, err
		}
	}

	if len(urls) > sitemapURLCap {
		urls = urls[:sitemapURLCap]
	}
	for _, u := range urls {
		b.deps.Results.MarkPending(u)
	}

	return map[string]any{
		"sitemap": sitemapURL,
		"urls":    urls,
		"count":   len(urls),
	}, nil
}

func (b *builtins) readSitemap(ctx context.Context, sitemapURL string) ([]string, error) {
	resp, err := b.deps.Client.Do(ctx, &model.Request{Method: "GET", URL: sitemapURL})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: HTTP %d", sitemapURL, resp.StatusCode)
	}

	var doc sitemapDoc
	if err := xml.Unmarshal(resp.Body, &doc); err != nil {
		return nil, fmt.Errorf("parse sitemap %s: %w", sitemapURL, err)
	}

	var urls []string
	for _, entry := range doc.URLs {
		if loc := strings.TrimSpace(entry.Loc); loc != "" {
			urls = append(urls, loc)
		}
	}
	// Index sitemaps list child sitemaps instead of pages; surface those
	// locations so the caller can follow up.
	if len(urls) == 0 {
		for _, entry := range doc.Sitemaps {
			if loc := strings.TrimSpace(entry.Loc); loc != "" {
				urls = append(urls, loc)
			}
		}
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("sitemap %s holds no locations", sitemapURL)
	}
	return urls, nil
}

func (b *builtins) sitemapFromRobots(ctx context.Context, origin string) (string, error) {
	robotsURL := origin + "/robots.txt"
	resp, err := b.deps.Client.Do(ctx, &model.Request{Method: "GET", URL: robotsURL})
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch %s: HTTP %d", robotsURL, resp.StatusCode)
	}

	for _, line := range strings.Split(string(resp.Body), "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "Sitemap:"); ok {
			if loc := strings.TrimSpace(rest); loc != "" {
				return loc, nil
			}
		}
	}
	return "", fmt.Errorf("robots.txt at %s declares no sitemap", origin)
}

func siteOrigin(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url %q is not absolute", raw)
	}
	return u.Scheme + "://" + u.Host, nil
}
