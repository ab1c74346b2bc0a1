package scrapely

import (
	"context"
	"regexp"
)

// SitemapService lists the pages a site publishes in its sitemaps.
type SitemapService interface {
	// DiscoverURLs reads sitemap locations from robots.txt, falling back to
	// /sitemap.xml, and resolves sitemap indexes recursively.
	// A nil filter accepts every URL.
	DiscoverURLs(ctx context.Context, baseURL string, filter *URLFilter) ([]string, error)
}

// URLFilter selects URLs by pattern.
type URLFilter struct {
	// Include, when set, admits only URLs matching at least one pattern.
	Include []*regexp.Regexp

	// Exclude rejects URLs matching any pattern. It wins over Include.
	Exclude []*regexp.Regexp
}

// Match reports whether url passes the filter. A nil filter passes all URLs.
func (f *URLFilter) Match(url string) bool {
	if f == nil {
		return true
	}
	for _, re := range f.Exclude {
		if re.MatchString(url) {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, re := range f.Include {
		if re.MatchString(url) {
			return true
		}
	}
	return false
}
