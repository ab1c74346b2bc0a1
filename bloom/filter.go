// Package bloom deduplicates crawl URLs with a Bloom filter from
// github.com/bits-and-blooms/bloom/v3.
package bloom

import (
	"net/url"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
)

// Filter remembers canonicalized URLs. Membership tests may report false
// positives at the configured rate but never false negatives.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a new Bloom filter sized for n expected URLs
// with the given false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add records a URL.
func (f *Filter) Add(rawURL string) {
	f.f.AddString(Canonical(rawURL))
}

// Test reports whether the URL might have been added.
func (f *Filter) Test(rawURL string) bool {
	return f.f.TestString(Canonical(rawURL))
}

// TestAndAdd records a URL and reports whether it might have been added
// before.
func (f *Filter) TestAndAdd(rawURL string) bool {
	return f.f.TestAndAddString(Canonical(rawURL))
}

// EstimatedCount returns the approximate number of URLs in the filter.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}

// Canonical normalizes a URL for deduplication: the scheme and host are
// lowercased, default ports and fragments dropped, and an empty path becomes
// "/". Unparsable input is returned with only the fragment removed.
func Canonical(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		if i := strings.IndexByte(rawURL, '#'); i >= 0 {
			return rawURL[:i]
		}
		return rawURL
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	switch {
	case u.Scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	u.Host = host
	if u.Path == "" && u.Host != "" {
		u.Path = "/"
	}
	return u.String()
}
