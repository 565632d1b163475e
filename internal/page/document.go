package page

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseError reports that document text could not be turned into a queryable
// DOM at all. Malformed markup is not an error; the parser recovers the way
// browsers do.
type ParseError struct {
	BaseURL string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse document %s: %v", e.BaseURL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Document is a parsed page plus the URL its relative references resolve
// against. It is read-only after Parse.
type Document struct {
	BaseURL string

	doc *goquery.Document
}

// Parse builds a Document from raw text. Parsing is lenient: broken or
// truncated markup yields whatever DOM could be recovered. Only a reader-level
// failure returns a *ParseError.
func Parse(html, baseURL string) (*Document, error) {
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &ParseError{BaseURL: baseURL, Err: err}
	}
	return &Document{BaseURL: baseURL, doc: gq}, nil
}

// Find exposes goquery selection over the parsed DOM.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Text returns the concatenated text of the document body.
func (d *Document) Text() string {
	return d.doc.Find("body").Text()
}
