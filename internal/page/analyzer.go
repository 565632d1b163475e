package page

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pagelens/pagelens/internal/logging"
	"github.com/pagelens/pagelens/internal/model"
	"github.com/pagelens/pagelens/internal/urlutil"
)

// Config bounds what the analyzer extracts.
type Config struct {
	// LinkLimit caps discovered links per page. Zero means the default.
	LinkLimit int `yaml:"link_limit"`
}

func DefaultConfig() Config {
	return Config{LinkLimit: 50}
}

// Analysis is everything the analyzer derives from one document.
type Analysis struct {
	Title       string
	Description string
	Links       []string
	Images      []string
	Scripts     []string
	Stylesheets []string
	SEO         *model.SEOData
}

// Analyzer extracts page facts from a parsed Document. It is stateless and
// safe for reuse across pages.
type Analyzer struct {
	cfg    Config
	logger logging.Logger
}

func NewAnalyzer(cfg Config, logger logging.Logger) *Analyzer {
	if cfg.LinkLimit <= 0 {
		cfg.LinkLimit = DefaultConfig().LinkLimit
	}
	return &Analyzer{
		cfg:    cfg,
		logger: logger.With(logging.Field{Key: "component", Value: "analyzer"}),
	}
}

// Analyze walks the document once per concern. Asset lists keep duplicates;
// deduplication belongs to the asset registry. Links are absolute http(s)
// URLs only and capped at the configured ceiling.
func (a *Analyzer) Analyze(doc *Document) *Analysis {
	an := &Analysis{
		Title:       a.title(doc),
		Description: a.description(doc),
		Links:       a.links(doc),
		Images:      a.attrURLs(doc, "img[src]", "src"),
		Scripts:     a.attrURLs(doc, "script[src]", "src"),
		Stylesheets: a.attrURLs(doc, `link[rel="stylesheet"][href]`, "href"),
		SEO:         a.seo(doc),
	}

	a.logger.Debug("analyzed document",
		logging.Field{Key: "url", Value: doc.BaseURL},
		logging.Field{Key: "links", Value: len(an.Links)},
		logging.Field{Key: "images", Value: len(an.Images)})

	return an
}

func (a *Analyzer) title(doc *Document) string {
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		return strings.TrimSpace(og)
	}
	return ""
}

func (a *Analyzer) description(doc *Document) string {
	if d, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok && strings.TrimSpace(d) != "" {
		return strings.TrimSpace(d)
	}
	if og, ok := doc.Find(`meta[property="og:description"]`).First().Attr("content"); ok {
		return strings.TrimSpace(og)
	}
	return ""
}

func (a *Analyzer) links(doc *Document) []string {
	var links []string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
			return true
		}
		abs := urlutil.Resolve(doc.BaseURL, href)
		if !urlutil.IsAbsolute(abs) {
			return true
		}
		links = append(links, abs)
		return len(links) < a.cfg.LinkLimit
	})
	return links
}

func (a *Analyzer) attrURLs(doc *Document, selector, attr string) []string {
	var urls []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		raw, _ := s.Attr(attr)
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "data:") {
			return
		}
		if abs := urlutil.Resolve(doc.BaseURL, raw); abs != "" {
			urls = append(urls, abs)
		}
	})
	return urls
}

func (a *Analyzer) seo(doc *Document) *model.SEOData {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	desc, _ := doc.Find(`meta[name="description"]`).First().Attr("content")
	desc = strings.TrimSpace(desc)

	seo := &model.SEOData{
		Title:                 title,
		TitleLength:           len(title),
		MetaDescription:       desc,
		MetaDescriptionLength: len(desc),
		H1Tags:                headingTexts(doc, "h1"),
		H2Tags:                headingTexts(doc, "h2"),
		WordCount:             len(strings.Fields(doc.Text())),
	}

	if canon, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		seo.CanonicalURL = urlutil.Resolve(doc.BaseURL, canon)
	}
	if robots, ok := doc.Find(`meta[name="robots"]`).First().Attr("content"); ok {
		seo.Robots = strings.TrimSpace(robots)
	}

	seo.OpenGraph = metaProperties(doc, "og:")
	seo.TwitterCard = metaNames(doc, "twitter:")
	seo.StructuredData = structuredData(doc, a.logger)

	return seo
}

func headingTexts(doc *Document, tag string) []string {
	var out []string
	doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// metaProperties collects meta tags keyed by the property attribute, e.g.
// Open Graph. Last value wins on duplicate keys.
func metaProperties(doc *Document, prefix string) map[string]string {
	out := map[string]string{}
	doc.Find("meta[property]").Each(func(_ int, s *goquery.Selection) {
		prop, _ := s.Attr("property")
		if !strings.HasPrefix(prop, prefix) {
			return
		}
		content, _ := s.Attr("content")
		out[prop] = strings.TrimSpace(content)
	})
	if len(out) == 0 {
		return nil
	}
	return out
}

// metaNames is metaProperties for name-keyed tags (Twitter Cards).
func metaNames(doc *Document, prefix string) map[string]string {
	out := map[string]string{}
	doc.Find("meta[name]").Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		if !strings.HasPrefix(name, prefix) {
			return
		}
		content, _ := s.Attr("content")
		out[name] = strings.TrimSpace(content)
	})
	if len(out) == 0 {
		return nil
	}
	return out
}

// structuredData parses each JSON-LD block independently. A malformed block is
// skipped; the rest still count.
func structuredData(doc *Document, logger logging.Logger) []any {
	var blocks []any
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var v any
		if err := json.Unmarshal([]byte(s.Text()), &v); err != nil {
			logger.Debug("skipping malformed json-ld block",
				logging.Field{Key: "url", Value: doc.BaseURL},
				logging.Field{Key: "error", Value: err.Error()})
			return
		}
		blocks = append(blocks, v)
	})
	return blocks
}
