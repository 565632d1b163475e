// Package intent maps free-text user input to at most one analysis tool
// request. The baseline implementation is keyword matching over an ordered
// rule list; anything smarter must honor the same contract.
package intent

import (
	"context"
	"regexp"
	"strings"

	"github.com/pagelens/pagelens/internal/logging"
	"github.com/pagelens/pagelens/internal/model"
)

// Classification is a matched category plus the tool request it implies.
type Classification struct {
	Category string
	Request  model.ToolRequest
}

// Classifier turns free text into zero or one tool request. A nil
// Classification with a nil error means no tool matched and the caller should
// respond conversationally instead.
type Classifier interface {
	Classify(ctx context.Context, text string) (*Classification, error)
}

// Rule binds a category to its keyword set and the tool it triggers.
// ParamKey names the parameter that receives a URL found in the input.
type Rule struct {
	Category string
	Keywords []string
	Tool     string
	ParamKey string
}

// DefaultRules returns the baseline rule order. Order is significant: the
// first matching rule wins, so a message naming several concerns resolves to
// the earliest listed one.
func DefaultRules() []Rule {
	return []Rule{
		{Category: "sitemap", Keywords: []string{"sitemap"}, Tool: "fetchSitemap", ParamKey: "url"},
		{Category: "extraction", Keywords: []string{"extract", "contact info", "email address", "phone number"}, Tool: "extractDataFromPage", ParamKey: "url"},
		{Category: "pending", Keywords: []string{"scan all", "pending pages", "all pages"}, Tool: "scanAllPendingPages"},
		{Category: "seo", Keywords: []string{"seo", "meta tag", "search engine", "ranking", "serp"}, Tool: "performSeoAnalysis", ParamKey: "url"},
		{Category: "accessibility", Keywords: []string{"accessibility", "a11y", "wcag", "screen reader", "alt text"}, Tool: "checkAccessibility", ParamKey: "url"},
		{Category: "performance", Keywords: []string{"performance", "speed", "slow", "load time", "page weight"}, Tool: "analyzePerformance", ParamKey: "url"},
		{Category: "tech_stack", Keywords: []string{"tech stack", "technology", "framework", "built with", "cms"}, Tool: "detectTechStack", ParamKey: "url"},
		{Category: "content", Keywords: []string{"summarize", "summary", "main content", "what is this page"}, Tool: "summarizePage", ParamKey: "url"},
		{Category: "image", Keywords: []string{"image", "picture", "photo", "logo"}, Tool: "analyzeImageFromUrl", ParamKey: "imageUrl"},
		{Category: "competitive", Keywords: []string{"competitor", "compare", "versus", " vs "}, Tool: "scanPages"},
	}
}

var urlPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

// RuleClassifier evaluates its rules in order against lowercased input.
type RuleClassifier struct {
	rules  []Rule
	logger logging.Logger
}

// NewRuleClassifier builds a classifier over the given ordered rules. Pass
// DefaultRules() for the baseline behavior.
func NewRuleClassifier(rules []Rule, logger logging.Logger) *RuleClassifier {
	return &RuleClassifier{
		rules:  rules,
		logger: logger.With(logging.Field{Key: "component", Value: "intent"}),
	}
}

// Classify matches text against the rule order. A rule matches when the
// lowercased input contains any of its keywords. If no rule matches but the
// text carries a URL, a plain page scan is proposed; otherwise nil is
// returned and the conversation layer answers generically.
func (c *RuleClassifier) Classify(_ context.Context, text string) (*Classification, error) {
	lowered := strings.ToLower(text)
	urls := urlPattern.FindAllString(text, -1)

	for _, rule := range c.rules {
		if !matchesAny(lowered, rule.Keywords) {
			continue
		}

		req := model.ToolRequest{Name: rule.Tool, Parameters: map[string]any{}}
		switch rule.Tool {
		case "scanPages":
			if len(urls) == 0 {
				continue
			}
			req.Parameters["urls"] = toAnySlice(urls)
		case "scanAllPendingPages":
			// Target set is recomputed at dispatch time; no parameters.
		case "extractDataFromPage":
			if rule.ParamKey != "" && len(urls) > 0 {
				req.Parameters[rule.ParamKey] = urls[0]
			}
			req.Parameters["dataType"] = extractionDataType(lowered)
		default:
			if rule.ParamKey != "" && len(urls) > 0 {
				req.Parameters[rule.ParamKey] = urls[0]
			}
		}

		c.logger.Debug("classified input",
			logging.Field{Key: "category", Value: rule.Category},
			logging.Field{Key: "tool", Value: rule.Tool})
		return &Classification{Category: rule.Category, Request: req}, nil
	}

	if len(urls) > 0 {
		return &Classification{
			Category: "scan",
			Request: model.ToolRequest{
				Name:       "scanPages",
				Parameters: map[string]any{"urls": toAnySlice(urls)},
			},
		}, nil
	}

	return nil, nil
}

// extractionDataType picks the extraction target from the wording. Contact
// details are the default target.
func extractionDataType(lowered string) string {
	switch {
	case strings.Contains(lowered, "product") || strings.Contains(lowered, "price"):
		return "products"
	case strings.Contains(lowered, "blog") || strings.Contains(lowered, "article"):
		return "blog_posts"
	default:
		return "contact"
	}
}

func matchesAny(lowered string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
