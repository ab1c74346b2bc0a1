package scrapely

// Link is a URL discovered on a page during a crawl.
type Link struct {
	URL  string
	Text string

	// Depth is the number of hops from the crawl's start URL.
	Depth int
}

// LinkSelector extracts followable links from markup.
type LinkSelector interface {
	// ExtractLinks returns absolute links found in body, in document order
	// and without duplicates. Relative URLs are resolved against baseURL.
	ExtractLinks(body string, baseURL string) ([]Link, error)
}
