package scrapely

import "context"

// Fetcher retrieves page markup from URLs.
type Fetcher interface {
	// Fetch returns the markup at url decoded to UTF-8.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (body string, err error)

	// Close releases any resources held by the fetcher.
	Close() error
}
