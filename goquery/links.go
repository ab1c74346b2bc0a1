// Package goquery implements scrapely.LinkSelector with CSS selectors from
// github.com/PuerkitoBio/goquery.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/scrapely"
)

// DefaultSelector matches every anchor with an href.
const DefaultSelector = "a[href]"

var _ scrapely.LinkSelector = (*LinkSelector)(nil)

// LinkSelector extracts same-host links matched by CSS selectors.
type LinkSelector struct {
	selectors []string
	pathScope bool
}

// Option configures a LinkSelector.
type Option func(*LinkSelector)

// WithSelectors restricts extraction to anchors matched by the given CSS
// selectors, e.g. ".pagination a" or "a.product-link". Selectors are applied
// in order; links keep the position of their first match.
func WithSelectors(selectors ...string) Option {
	return func(s *LinkSelector) {
		s.selectors = selectors
	}
}

// WithPathScope keeps only links below the base URL's directory.
func WithPathScope() Option {
	return func(s *LinkSelector) {
		s.pathScope = true
	}
}

// NewLinkSelector creates a new LinkSelector.
func NewLinkSelector(opts ...Option) *LinkSelector {
	s := &LinkSelector{selectors: []string{DefaultSelector}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExtractLinks returns the followable links in html. External links
// (different host than baseURL), self links and non-HTTP schemes are
// dropped; fragments are stripped before deduplication.
func (s *LinkSelector) ExtractLinks(html string, baseURL string) ([]scrapely.Link, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, scrapely.Errorf(scrapely.EINVALID, "invalid base URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, scrapely.Errorf(scrapely.EINVALID, "failed to parse HTML: %v", err)
	}

	// <base href> overrides the document URL for relative links.
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
			base = base.ResolveReference(ref)
		}
	}

	scope := ""
	if s.pathScope {
		scope = base.Path[:strings.LastIndex(base.Path, "/")+1]
	}

	seen := make(map[string]bool)
	var links []scrapely.Link

	for _, selector := range s.selectors {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			href, exists := sel.Attr("href")
			if !exists || href == "" || isNonHTTPLink(href) {
				return
			}
			if rel, _ := sel.Attr("rel"); hasToken(rel, "nofollow") {
				return
			}

			resolved := resolveURL(base, href)
			if resolved == nil || resolved.Host != base.Host {
				return
			}
			if scope != "" && !strings.HasPrefix(resolved.Path, scope) {
				return
			}

			u := resolved.String()
			if seen[u] {
				return
			}
			seen[u] = true
			links = append(links, scrapely.Link{
				URL:  u,
				Text: strings.Join(strings.Fields(sel.Text()), " "),
			})
		})
	}

	return links, nil
}

// resolveURL resolves href against base with the fragment stripped.
// Returns nil for unparsable or self-referential links.
func resolveURL(base *url.URL, href string) *url.URL {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""

	self := *base
	self.Fragment = ""
	if resolved.String() == self.String() {
		return nil
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return nil
	}
	return resolved
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}

func hasToken(list, token string) bool {
	for _, f := range strings.Fields(list) {
		if strings.EqualFold(f, token) {
			return true
		}
	}
	return false
}
