package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pagelens/pagelens/internal/page"
)

// accessibilityReport lists concrete findings a markup-only audit can make.
// Anything needing rendering (contrast, focus order) is out of reach here.
type accessibilityReport struct {
	ImagesMissingAlt  int      `json:"images_missing_alt"`
	InputsMissingName int      `json:"inputs_missing_label"`
	EmptyLinks        int      `json:"empty_links"`
	HasLangAttribute  bool     `json:"has_lang_attribute"`
	HeadingOrderJumps int      `json:"heading_order_jumps"`
	Issues            []string `json:"issues"`
}

func (b *builtins) checkAccessibility(ctx context.Context, params map[string]any) (any, error) {
	url, err := stringParam(params, "url")
	if err != nil {
		return nil, err
	}
	doc, _, err := b.document(ctx, url)
	if err != nil {
		return nil, err
	}

	report := accessibilityReport{}

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if alt, ok := s.Attr("alt"); !ok || strings.TrimSpace(alt) == "" {
			report.ImagesMissingAlt++
		}
	})

	doc.Find("input, select, textarea").Each(func(_ int, s *goquery.Selection) {
		if typ, _ := s.Attr("type"); typ == "hidden" || typ == "submit" || typ == "button" {
			return
		}
		if _, ok := s.Attr("aria-label"); ok {
			return
		}
		id, hasID := s.Attr("id")
		if hasID && doc.Find(fmt.Sprintf(`label[for=%q]`, id)).Length() > 0 {
			return
		}
		report.InputsMissingName++
	})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if strings.TrimSpace(s.Text()) == "" && s.Find("img[alt]").Length() == 0 {
			if _, ok := s.Attr("aria-label"); !ok {
				report.EmptyLinks++
			}
		}
	})

	_, report.HasLangAttribute = doc.Find("html").Attr("lang")
	report.HeadingOrderJumps = headingJumps(doc)

	if report.ImagesMissingAlt > 0 {
		report.Issues = append(report.Issues, fmt.Sprintf("%d image(s) have no alt text", report.ImagesMissingAlt))
	}
	if report.InputsMissingName > 0 {
		report.Issues = append(report.Issues, fmt.Sprintf("%d form control(s) have no label", report.InputsMissingName))
	}
	if report.EmptyLinks > 0 {
		report.Issues = append(report.Issues, fmt.Sprintf("%d link(s) have no accessible text", report.EmptyLinks))
	}
	if !report.HasLangAttribute {
		report.Issues = append(report.Issues, "the html element declares no lang attribute")
	}
	if report.HeadingOrderJumps > 0 {
		report.Issues = append(report.Issues, fmt.Sprintf("heading levels skip %d time(s)", report.HeadingOrderJumps))
	}

	return report, nil
}

// headingJumps counts transitions that skip a level, e.g. h1 straight to h3.
func headingJumps(doc *page.Document) int {
	jumps := 0
	last := 0
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		level := int(goquery.NodeName(s)[1] - '0')
		if last > 0 && level > last+1 {
			jumps++
		}
		last = level
	})
	return jumps
}

type performanceReport struct {
	DocumentBytes   int    `json:"document_bytes"`
	ScriptCount     int    `json:"script_count"`
	StylesheetCount int    `json:"stylesheet_count"`
	ImageCount      int    `json:"image_count"`
	InlineStyles    int    `json:"inline_styles"`
	IframeCount     int    `json:"iframe_count"`
	Assessment      string `json:"assessment"`
}

func (b *builtins) analyzePerformance(ctx context.Context, params map[string]any) (any, error) {
	url, err := stringParam(params, "url")
	if err != nil {
		return nil, err
	}
	doc, result, err := b.document(ctx, url)
	if err != nil {
		return nil, err
	}

	report := performanceReport{
		DocumentBytes:   len(result.HTML),
		ScriptCount:     doc.Find("script[src]").Length(),
		StylesheetCount: doc.Find(`link[rel="stylesheet"]`).Length(),
		ImageCount:      doc.Find("img[src]").Length(),
		InlineStyles:    doc.Find("[style]").Length(),
		IframeCount:     doc.Find("iframe").Length(),
	}

	requests := report.ScriptCount + report.StylesheetCount + report.ImageCount
	switch {
	case report.DocumentBytes > 1_000_000 || requests > 100:
		report.Assessment = "heavy"
	case report.DocumentBytes > 250_000 || requests > 40:
		report.Assessment = "moderate"
	default:
		report.Assessment = "light"
	}

	return report, nil
}

// Technology fingerprints checked against script URLs, inline script text and
// meta tags. Order here is display order only; all matches are reported.
var techFingerprints = []struct {
	Name     string
	Category string
	Needles  []string
}{
	{"React", "framework", []string{"react", "_next/static", "__NEXT_DATA__"}},
	{"Vue.js", "framework", []string{"vue.js", "vue.min.js", "__vue__", "nuxt"}},
	{"Angular", "framework", []string{"angular", "ng-version"}},
	{"jQuery", "library", []string{"jquery"}},
	{"Bootstrap", "css", []string{"bootstrap"}},
	{"Tailwind CSS", "css", []string{"tailwind"}},
	{"WordPress", "cms", []string{"wp-content", "wp-includes", "wordpress"}},
	{"Shopify", "cms", []string{"cdn.shopify.com", "shopify"}},
	{"Drupal", "cms", []string{"drupal"}},
	{"Google Analytics", "analytics", []string{"google-analytics.com", "googletagmanager.com", "gtag("}},
	{"Cloudflare", "cdn", []string{"cdnjs.cloudflare.com", "cloudflareinsights"}},
	{"Font Awesome", "library", []string{"font-awesome", "fontawesome"}},
}

type techDetection struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

func (b *builtins) detectTechStack(ctx context.Context, params map[string]any) (any, error) {
	url, err := stringParam(params, "url")
	if err != nil {
		return nil, err
	}
	doc, result, err := b.document(ctx, url)
	if err != nil {
		return nil, err
	}

	haystack := strings.ToLower(result.HTML)

	var detected []techDetection
	for _, fp := range techFingerprints {
		for _, needle := range fp.Needles {
			if strings.Contains(haystack, strings.ToLower(needle)) {
				detected = append(detected, techDetection{Name: fp.Name, Category: fp.Category})
				break
			}
		}
	}

	generator, _ := doc.Find(`meta[name="generator"]`).First().Attr("content")

	return map[string]any{
		"url":        url,
		"detected":   detected,
		"generator":  strings.TrimSpace(generator),
		"script_tag": doc.Find("script").Length(),
	}, nil
}
