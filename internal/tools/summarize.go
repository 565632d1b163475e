package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	readability "github.com/go-shiori/go-readability"
	"github.com/pemistahl/lingua-go"
)

const summarySentenceCap = 3

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// languageDetector is built once; the model data behind it is expensive to
// load.
func languageDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(
				lingua.English, lingua.Spanish, lingua.French, lingua.German,
				lingua.Portuguese, lingua.Italian, lingua.Dutch, lingua.Japanese,
			).
			Build()
	})
	return detector
}

// summarizePage extracts the readable article from a page and reports its
// leading sentences, word count and detected language.
func (b *builtins) summarizePage(ctx context.Context, params map[string]any) (any, error) {
	pageURL, err := stringParam(params, "url")
	if err != nil {
		return nil, err
	}

	_, result, err := b.document(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", pageURL, err)
	}

	article, err := readability.FromReader(strings.NewReader(result.HTML), parsed)
	if err != nil {
		return nil, fmt.Errorf("extract article from %s: %w", pageURL, err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return nil, fmt.Errorf("no readable content found at %s", pageURL)
	}

	summary := leadingSentences(text, summarySentenceCap)

	language := "unknown"
	if lang, ok := languageDetector().DetectLanguageOf(text); ok {
		language = lang.String()
	}

	title := article.Title
	if title == "" {
		title = result.Title
	}

	return map[string]any{
		"url":        pageURL,
		"title":      title,
		"summary":    summary,
		"excerpt":    article.Excerpt,
		"word_count": len(strings.Fields(text)),
		"language":   language,
		"byline":     article.Byline,
	}, nil
}

// leadingSentences returns up to n sentences from the start of text. Sentence
// splitting is rough; good enough for a preview blurb.
func leadingSentences(text string, n int) string {
	fields := strings.Fields(text)
	joined := strings.Join(fields, " ")

	count := 0
	for i := 0; i < len(joined); i++ {
		switch joined[i] {
		case '.', '!', '?':
			// Treat as sentence end only when followed by space or EOT.
			if i+1 == len(joined) || joined[i+1] == ' ' {
				count++
				if count == n {
					return joined[:i+1]
				}
			}
		}
	}
	return joined
}
