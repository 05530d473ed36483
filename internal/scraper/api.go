package scraper

import "errors"

// ErrCounterMissing means the page no longer contains the review counter,
// usually because its markup changed.
var ErrCounterMissing = errors.New("review counter not found on page")

type Normalizer interface {
	Normalize(content string) string
}

type Extractor interface {
	Extract(normalized string) Fragments
}
