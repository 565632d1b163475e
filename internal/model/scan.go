package model

import "time"

// ScanStatus is the lifecycle state of a ScanResult.
type ScanStatus string

const (
	ScanPending   ScanStatus = "pending"
	ScanScanning  ScanStatus = "scanning"
	ScanCompleted ScanStatus = "completed"
	ScanFailed    ScanStatus = "failed"
)

// ScanResult is the outcome record of attempting to fetch and analyze one URL.
// A result moves from pending through a transient scanning state to completed
// or failed and is immutable afterwards; re-scanning a URL supersedes the
// stored result rather than mutating it.
type ScanResult struct {
	// URL is the scanned URL and the key a result is stored under.
	URL string `json:"url"`

	// Status is exactly one of pending/scanning/completed/failed.
	Status ScanStatus `json:"status"`

	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	// HTML is the raw document text as fetched.
	HTML string `json:"html,omitempty"`

	// Discovered references, each resolved to an absolute URL.
	// Links are capped at the analyzer's ceiling; asset lists keep duplicates
	// (deduplication is the asset registry's job).
	Links       []string `json:"links,omitempty"`
	Images      []string `json:"images,omitempty"`
	Scripts     []string `json:"scripts,omitempty"`
	Stylesheets []string `json:"stylesheets,omitempty"`

	// SEO holds derived search-engine facts; never persisted apart from its
	// owning result.
	SEO *SEOData `json:"seo_data,omitempty"`

	// Error is set exactly when Status is failed.
	Error string `json:"error,omitempty"`

	// ChangeSummary describes how the document differs from a superseded scan
	// of the same URL, when one existed.
	ChangeSummary *ChangeSummary `json:"change_summary,omitempty"`

	ScannedAt time.Time `json:"scanned_at"`
}

// ChangeSummary is a compact diff record produced when a re-scan replaces a
// previous result for the same URL.
type ChangeSummary struct {
	Inserted int `json:"inserted"`
	Deleted  int `json:"deleted"`
	// Unchanged counts characters common to both documents.
	Unchanged int `json:"unchanged"`
}

// SEOData holds derived search-engine-relevant facts about a page.
type SEOData struct {
	Title                 string `json:"title"`
	TitleLength           int    `json:"title_length"`
	MetaDescription       string `json:"meta_description"`
	MetaDescriptionLength int    `json:"meta_description_length"`

	// Heading text in document order.
	H1Tags []string `json:"h1_tags"`
	H2Tags []string `json:"h2_tags"`

	// WordCount counts whitespace-delimited tokens in body text only.
	WordCount int `json:"word_count"`

	CanonicalURL string `json:"canonical_url,omitempty"`
	Robots       string `json:"robots,omitempty"`

	// Open Graph and Twitter Card properties, last value wins on duplicates.
	OpenGraph   map[string]string `json:"open_graph,omitempty"`
	TwitterCard map[string]string `json:"twitter_card,omitempty"`

	// StructuredData holds individually parsed JSON-LD blocks; malformed
	// blocks are skipped, not fatal.
	StructuredData []any `json:"structured_data,omitempty"`
}
