package tools

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pagelens/pagelens/internal/page"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9 .\-()]{7,18}[0-9]`)
	pricePattern = regexp.MustCompile(`[$€£]\s?[0-9]+(?:[.,][0-9]{2})?`)
)

// extractDataFromPage pulls typed structured data out of a page. dataType is
// one of contact, products or blog_posts.
func (b *builtins) extractDataFromPage(ctx context.Context, params map[string]any) (any, error) {
	url, err := stringParam(params, "url")
	if err != nil {
		return nil, err
	}
	dataType, err := stringParam(params, "dataType")
	if err != nil {
		return nil, err
	}

	doc, _, err := b.document(ctx, url)
	if err != nil {
		return nil, err
	}

	switch dataType {
	case "contact":
		return extractContact(doc), nil
	case "products":
		return extractProducts(doc), nil
	case "blog_posts":
		return extractBlogPosts(doc), nil
	default:
		return nil, fmt.Errorf("unsupported dataType %q: expected contact, products or blog_posts", dataType)
	}
}

func extractContact(doc *page.Document) map[string]any {
	text := doc.Text()

	emails := uniqueMatches(emailPattern.FindAllString(text, -1))
	// mailto links carry addresses the body text may hide.
	doc.Find(`a[href^="mailto:"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		addr := strings.TrimPrefix(href, "mailto:")
		if i := strings.IndexByte(addr, '?'); i >= 0 {
			addr = addr[:i]
		}
		if emailPattern.MatchString(addr) {
			emails = appendUnique(emails, addr)
		}
	})

	var phones []string
	doc.Find(`a[href^="tel:"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		phones = appendUnique(phones, strings.TrimPrefix(href, "tel:"))
	})
	for _, m := range phonePattern.FindAllString(text, -1) {
		if digitCount(m) >= 8 {
			phones = appendUnique(phones, strings.TrimSpace(m))
		}
	}
	if len(phones) > 10 {
		phones = phones[:10]
	}

	return map[string]any{"emails": emails, "phones": phones}
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func extractProducts(doc *page.Document) []map[string]string {
	var products []map[string]string
	seen := map[string]bool{}

	doc.Find(`[class*="product"], [itemtype*="Product"]`).Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(s.Find("h1, h2, h3, h4").First().Text())
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		entry := map[string]string{"name": name}
		if price := pricePattern.FindString(s.Text()); price != "" {
			entry["price"] = price
		}
		products = append(products, entry)
	})

	return products
}

func extractBlogPosts(doc *page.Document) []map[string]string {
	var posts []map[string]string
	seen := map[string]bool{}

	doc.Find("article").Each(func(_ int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Find("h1, h2, h3").First().Text())
		if title == "" || seen[title] {
			return
		}
		seen[title] = true
		entry := map[string]string{"title": title}
		if href, ok := s.Find("a[href]").First().Attr("href"); ok {
			entry["url"] = href
		}
		posts = append(posts, entry)
	})

	// Pages without article elements still often list posts as linked headings.
	if len(posts) == 0 {
		doc.Find("h2 a[href], h3 a[href]").Each(func(_ int, s *goquery.Selection) {
			title := strings.TrimSpace(s.Text())
			if title == "" || seen[title] {
				return
			}
			seen[title] = true
			href, _ := s.Attr("href")
			posts = append(posts, map[string]string{"title": title, "url": href})
		})
	}

	return posts
}

func uniqueMatches(in []string) []string {
	var out []string
	for _, s := range in {
		out = appendUnique(out, s)
	}
	return out
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if strings.EqualFold(existing, s) {
			return list
		}
	}
	return append(list, s)
}
