package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

const (
	DefaultCounterSelector = ".mb-0.text-14.text-dark b"
	DefaultDetailSelector  = ".comment-content.box-text-content"
)

// Fragments holds what one page yielded. A fragment is only meaningful
// when its Has flag is set.
type Fragments struct {
	Counter    string
	HasCounter bool
	Detail     string
	HasDetail  bool
}

// ReviewExtractor selects the review counter and the newest review from a
// normalized page.
type ReviewExtractor struct {
	counter cascadia.Selector
	detail  cascadia.Selector
}

func NewReviewExtractor(counterSelector, detailSelector string) (*ReviewExtractor, error) {
	if counterSelector == "" {
		counterSelector = DefaultCounterSelector
	}
	if detailSelector == "" {
		detailSelector = DefaultDetailSelector
	}
	counter, err := cascadia.Compile(counterSelector)
	if err != nil {
		return nil, fmt.Errorf("counter selector %q: %w", counterSelector, err)
	}
	detail, err := cascadia.Compile(detailSelector)
	if err != nil {
		return nil, fmt.Errorf("detail selector %q: %w", detailSelector, err)
	}
	return &ReviewExtractor{counter: counter, detail: detail}, nil
}

// Extract parses the page once and returns both fragments.
func (e *ReviewExtractor) Extract(normalized string) Fragments {
	doc, err := parse(normalized)
	if err != nil {
		return Fragments{}
	}
	var f Fragments
	f.Counter, f.HasCounter = outerFirst(doc, e.counter)
	f.Detail, f.HasDetail = outerFirst(doc, e.detail)
	return f
}

func (e *ReviewExtractor) ExtractCounter(normalized string) (string, bool) {
	doc, err := parse(normalized)
	if err != nil {
		return "", false
	}
	return outerFirst(doc, e.counter)
}

func (e *ReviewExtractor) ExtractDetail(normalized string) (string, bool) {
	doc, err := parse(normalized)
	if err != nil {
		return "", false
	}
	return outerFirst(doc, e.detail)
}

func parse(content string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse failed: %w", err)
	}
	return doc, nil
}

// outerFirst renders the first match in document order, own tag included.
func outerFirst(doc *goquery.Document, sel cascadia.Selector) (string, bool) {
	match := doc.FindMatcher(sel).First()
	if match.Length() == 0 {
		return "", false
	}
	markup, err := goquery.OuterHtml(match)
	if err != nil {
		return "", false
	}
	return markup, true
}
