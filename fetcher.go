package jptransit

import "context"

// Fetcher retrieves HTML pages from URLs.
type Fetcher interface {
	// Fetch retrieves the page at url and returns its HTML.
	// The context controls timeout and cancellation. Transport failures
	// (connection, timeout, non-success status) return ENETWORK errors.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases any resources held by the fetcher.
	Close() error
}
