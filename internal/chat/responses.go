package chat

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Acknowledgement text sent while a tool runs, keyed by intent category.
var categoryAcks = map[string]string{
	"sitemap":       "Fetching the sitemap to map out the site's pages.",
	"extraction":    "Extracting structured data from the page.",
	"pending":       "Scanning all pages still waiting in the queue.",
	"seo":           "Running an SEO analysis on the page.",
	"accessibility": "Checking the page for accessibility issues.",
	"performance":   "Analyzing page weight and performance signals.",
	"tech_stack":    "Detecting the technologies this page is built with.",
	"content":       "Reading the page to put together a summary.",
	"image":         "Analyzing the image you pointed me at.",
	"competitive":   "Scanning the pages so we can compare them.",
	"scan":          "Scanning the page now.",
}

var genericResponses = []string{
	"I can scan pages, analyze SEO, check accessibility, inspect performance, detect tech stacks, summarize content, and more. Give me a URL or tell me what to look into.",
	"Tell me what you'd like to analyze. Paste a URL to scan it, or ask about SEO, accessibility, performance, or the tech stack of a page already scanned.",
	"Not sure what to run for that. Try something like \"scan https://example.com\" or \"check the SEO of this page\".",
}

// Responder picks display text for the assistant side of the conversation.
// The random source is injected so tests can pin the generic choice.
type Responder struct {
	rng *rand.Rand
}

func NewResponder(rng *rand.Rand) *Responder {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Responder{rng: rng}
}

// Acknowledge returns the working-on-it text for a classified category.
func (r *Responder) Acknowledge(category string) string {
	if ack, ok := categoryAcks[category]; ok {
		return ack
	}
	return "Working on it."
}

// Generic returns a fallback reply for input no tool matched.
func (r *Responder) Generic() string {
	return genericResponses[r.rng.Intn(len(genericResponses))]
}

// ScanSummary renders the post-scan assistant message.
func (r *Responder) ScanSummary(url, title string, links, images int, failed bool, errMsg string) string {
	if failed {
		return fmt.Sprintf("I couldn't scan %s: %s", url, errMsg)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Finished scanning %s.", url)
	if title != "" {
		fmt.Fprintf(&b, " The page is titled %q.", title)
	}
	fmt.Fprintf(&b, " I found %d links and %d images.", links, images)
	b.WriteString(" Ask me about its SEO, accessibility, performance, or tech stack.")
	return b.String()
}

// ToolOutcome renders the completion text for a finished tool call.
func (r *Responder) ToolOutcome(toolName string, failed bool, errMsg string) string {
	if failed {
		return fmt.Sprintf("The %s operation failed: %s", displayName(toolName), errMsg)
	}
	return fmt.Sprintf("Here's what the %s found.", displayName(toolName))
}

var displayNames = map[string]string{
	"scanPages":           "page scan",
	"scanAllPendingPages": "pending-page scan",
	"extractDataFromPage": "data extraction",
	"performSeoAnalysis":  "SEO analysis",
	"analyzeImageFromUrl": "image analysis",
	"fetchSitemap":        "sitemap fetch",
	"checkAccessibility":  "accessibility check",
	"analyzePerformance":  "performance analysis",
	"summarizePage":       "page summary",
	"detectTechStack":     "tech stack detection",
}

func displayName(tool string) string {
	if n, ok := displayNames[tool]; ok {
		return n
	}
	return tool
}
