package scrapely

import "context"

// URLFrontier is a crawl queue that never yields the same URL twice.
type URLFrontier interface {
	// Push queues a link. Returns false if its URL was already seen.
	Push(link Link) bool

	// Pop returns the shallowest queued link, oldest first.
	// Returns false if the frontier is empty.
	Pop() (Link, bool)

	Len() int

	// Seen reports whether the URL was ever pushed.
	Seen(url string) bool
}

// DomainLimiter throttles requests per host.
type DomainLimiter interface {
	// Wait blocks until a request to domain is allowed.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
